package collector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/gpu"
	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
	"codeberg.org/mutker/sysreport/internal/timestamp"
	pshost "github.com/shirou/gopsutil/v4/host"
)

type SystemSource interface {
	HostInfo(ctx context.Context) (*pshost.InfoStat, error)
	CPUModel(ctx context.Context) (string, error)
	OSRelease() (host.OSRelease, error)
	BootTime(ctx context.Context) (uint64, error)
	Users(ctx context.Context) ([]pshost.UserStat, error)
	FileExists(path string) bool
	GPUs(ctx context.Context) ([]gpu.DeviceInfo, error)
}

type System struct {
	base
	src          SystemSource
	rebootMarker string
}

func (s *System) Domain() report.Domain { return report.DomainSystem }

func (s *System) Collect(ctx context.Context) (*report.Document, error) {
	info, err := s.src.HostInfo(ctx)
	if err != nil {
		return nil, fail(err)
	}

	boot, err := s.src.BootTime(ctx)
	if err != nil {
		return nil, fail(err)
	}

	body := report.NewDocument().
		Set("System Information", s.identity(ctx, info)).
		Set("System Boot Information", s.boot(info, boot)).
		Set("System Users List", s.users(ctx)).
		Set("Graphics Information", s.graphics(ctx))

	return s.section(report.DomainSystem, body), nil
}

func (s *System) identity(ctx context.Context, info *pshost.InfoStat) *report.Document {
	edition := "Unknown"
	if rel, err := s.src.OSRelease(); err == nil {
		if e := rel.Edition(); e != "" {
			edition = e
		}
	} else {
		s.optional(err, "os edition")
	}

	processor, err := s.src.CPUModel(ctx)
	if err != nil || processor == "" {
		if err != nil {
			s.optional(err, "processor")
		}
		processor = info.KernelArch
	}

	osName := titleCase(info.OS)
	arch := strconv.Itoa(strconv.IntSize) + "bit"

	virtualization := "None"
	if info.VirtualizationSystem != "" {
		virtualization = info.VirtualizationSystem
		if info.VirtualizationRole != "" {
			virtualization += " (" + info.VirtualizationRole + ")"
		}
	}

	return report.NewDocument().
		Set("Device Name", info.Hostname).
		Set("Operating System", joinNonEmpty(" ", osName, osFamily(info.OS), info.KernelVersion, arch, edition)).
		Set("OS Release and Service Pack Version", platformString(info)).
		Set("Processor Identity", processor).
		Set("Machine Type", info.KernelArch).
		Set("System Platform", runtime.GOOS).
		Set("OS Architecture", arch).
		Set("OS Edition", edition).
		Set("Kernel Version", info.KernelVersion).
		Set("Virtualization", virtualization)
}

func (s *System) boot(info *pshost.InfoStat, boot uint64) *report.Document {
	status := "No pending Reboot."
	if s.src.FileExists(s.rebootMarker) {
		status = "Pending Reboot."
	}

	return report.NewDocument().
		Set("Reboot Status", status).
		Set("System Boot Time (sec)", fmt.Sprintf("%d seconds.", boot)).
		Set("System Boot Time", timestamp.FormatEpoch(boot)).
		Set("Uptime", timestamp.ConvertTime(float64(info.Uptime)))
}

// users lists logged-in user names once each, in first-seen order.
func (s *System) users(ctx context.Context) []string {
	stats, err := s.src.Users(ctx)
	if err != nil {
		s.optional(err, "users")
		return []string{}
	}

	seen := make(map[string]struct{}, len(stats))
	names := make([]string, 0, len(stats))
	for _, u := range stats {
		if _, ok := seen[u.User]; ok || u.User == "" {
			continue
		}
		seen[u.User] = struct{}{}
		names = append(names, u.User)
	}

	return names
}

func (s *System) graphics(ctx context.Context) any {
	devices, err := s.src.GPUs(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrSensorUnavailable) {
			s.log.Debug().Err(err).Msg("No NVIDIA GPU detected")
			return "No NVIDIA GPU detected"
		}
		s.log.Warn().Err(err).Msg("Failed to read GPU information")
		return report.NewDocument().Set("Error", err.Error())
	}

	out := make([]*report.Document, 0, len(devices))
	for _, dev := range devices {
		fans := make([]string, len(dev.FanSpeeds))
		for i, speed := range dev.FanSpeeds {
			fans[i] = fmt.Sprintf("%d %%", speed)
		}

		out = append(out, report.NewDocument().
			Set("Name", dev.Name).
			Set("UUID", dev.UUID).
			Set("Temperature", fmt.Sprintf("%d °C", dev.Temperature)).
			Set("Fan Speeds", fans).
			Set("Power Limit", fmt.Sprintf("%d W", dev.PowerLimit)).
			Set("Memory Total", gb(dev.MemoryTotal)).
			Set("Memory Used", gb(dev.MemoryUsed)))
	}

	return out
}

// platformString mirrors the "<os>-<kernel>-<arch>-with-<distro>" form.
func platformString(info *pshost.InfoStat) string {
	s := joinNonEmpty("-", titleCase(info.OS), info.KernelVersion, info.KernelArch)
	if info.Platform != "" {
		s += "-with-" + joinNonEmpty("-", info.Platform, info.PlatformVersion)
	}
	return s
}

func osFamily(goos string) string {
	if goos == "windows" {
		return "NT"
	}
	return "POSIX"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
