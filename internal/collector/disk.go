package collector

import (
	"context"
	"strings"

	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
	"github.com/shirou/gopsutil/v4/disk"
)

// Storage is insufficient below either threshold.
const (
	MinFreePercent = 10.0
	MinFreeGB      = 2.0
)

type DiskSource interface {
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	PathLimits(mountpoint string) (host.PathLimits, error)
}

type Disk struct {
	base
	src DiskSource
}

func (d *Disk) Domain() report.Domain { return report.DomainDisk }

// StorageStatus applies the free-space thresholds.
func StorageStatus(freePercent, freeGB float64) string {
	if freePercent < MinFreePercent || freeGB < MinFreeGB {
		return "Storage isn't sufficient."
	}
	return "Storage is sufficient."
}

func (d *Disk) Collect(ctx context.Context) (*report.Document, error) {
	run := &diskRun{Disk: d}

	overall, err := run.overall(ctx)
	if err != nil {
		return nil, fail(err)
	}

	body := report.NewDocument().
		Set("Storage Overall Report", overall).
		Set("Storage Statistics Report", run.statistics(ctx)).
		Set("Storage Level Report", run.levels())

	return d.section(report.DomainDisk, body), nil
}

type partitionUsage struct {
	usage *disk.UsageStat
	err   error
}

// diskRun holds the partitions of one Collect call. The statistics and
// level steps iterate what overall found.
type diskRun struct {
	*Disk
	partitions []disk.PartitionStat
	usage      []partitionUsage
}

func (r *diskRun) overall(ctx context.Context) ([]*report.Document, error) {
	parts, err := r.src.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	r.partitions = parts

	out := make([]*report.Document, 0, len(parts))
	for _, p := range parts {
		entry := report.NewDocument().
			Set("Device", p.Device).
			Set("MountPoint", p.Mountpoint).
			Set("FileSystemType", p.Fstype).
			Set("Opts", strings.Join(p.Opts, ","))

		if limits, err := r.src.PathLimits(p.Mountpoint); err == nil {
			entry.Set("MaxFile", limits.MaxFile).Set("MaxPath", limits.MaxPath)
		} else {
			r.optional(err, "path limits")
		}

		out = append(out, entry)
	}

	return out, nil
}

func (r *diskRun) statistics(ctx context.Context) []*report.Document {
	r.usage = make([]partitionUsage, len(r.partitions))
	out := make([]*report.Document, 0, len(r.partitions))

	for i, p := range r.partitions {
		usage, err := r.src.DiskUsage(ctx, p.Mountpoint)
		r.usage[i] = partitionUsage{usage: usage, err: err}

		entry := report.NewDocument().Set("Local Disk", p.Device)
		if err != nil {
			r.log.Warn().Err(err).Str("device", p.Device).Msg("Failed to read partition usage")
			out = append(out, entry.Set("Error", err.Error()))
			continue
		}

		entry.
			Set("Total", gb(usage.Total)).
			Set("Used", gb(usage.Used)).
			Set("Free", gb(usage.Free)).
			Set("Percentage Used", percent(usage.UsedPercent)).
			Set("Percentage Free", percent(freePercent(usage)))
		out = append(out, entry)
	}

	return out
}

func (r *diskRun) levels() []*report.Document {
	out := make([]*report.Document, 0, len(r.partitions))

	for i, p := range r.partitions {
		entry := report.NewDocument().Set("Partition", p.Device)
		if u := r.usage[i]; u.err != nil {
			out = append(out, entry.Set("Error", u.err.Error()))
			continue
		}

		usage := r.usage[i].usage
		freeGB := float64(usage.Free) / bytesPerGB
		out = append(out, entry.Set("Status", StorageStatus(freePercent(usage), freeGB)))
	}

	return out
}

func freePercent(u *disk.UsageStat) float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Free) / float64(u.Total) * 100
}
