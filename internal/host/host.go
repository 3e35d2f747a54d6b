// Package host reads facts about the local machine. Every OS query the
// collectors make goes through a Provider.
package host

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/gpu"
	"codeberg.org/mutker/sysreport/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	pshost "github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	defaultProcRoot = "/proc"
	defaultSysRoot  = "/sys"
	defaultEtcRoot  = "/etc"
)

// Options configures where a Provider reads pseudo-filesystems from.
type Options struct {
	ProcRoot string
	SysRoot  string
	EtcRoot  string
	Log      logger.Logger
	// GPU is the NVML probe; nil disables GPU facts.
	GPU *gpu.Probe
}

// Provider reads host facts through gopsutil and the Linux pseudo
// filesystems. It holds no mutable state and is safe for concurrent use.
type Provider struct {
	procRoot string
	sysRoot  string
	etcRoot  string
	log      logger.Logger
	gpu      *gpu.Probe
	resolver *net.Resolver
}

func New(opts Options) *Provider {
	p := &Provider{
		procRoot: opts.ProcRoot,
		sysRoot:  opts.SysRoot,
		etcRoot:  opts.EtcRoot,
		log:      opts.Log,
		gpu:      opts.GPU,
		resolver: net.DefaultResolver,
	}

	if p.procRoot == "" {
		p.procRoot = defaultProcRoot
	}
	if p.sysRoot == "" {
		p.sysRoot = defaultSysRoot
	}
	if p.etcRoot == "" {
		p.etcRoot = defaultEtcRoot
	}
	if p.log == nil {
		p.log = logger.Nop()
	}

	return p
}

// CPUPercent blocks for interval and returns total utilization.
func (p *Provider) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, errors.New().Wrap(ErrCPURead, err)
	}
	if len(percents) == 0 {
		return 0, errors.New().WithMessage(ErrCPURead, "no cpu utilization sample")
	}

	return percents[0], nil
}

func (p *Provider) CPUCounts(ctx context.Context, logical bool) (int, error) {
	n, err := cpu.CountsWithContext(ctx, logical)
	if err != nil {
		return 0, errors.New().Wrap(ErrCPURead, err)
	}

	return n, nil
}

// CPUTimes returns the cumulative time-in-state totals across all CPUs.
func (p *Provider) CPUTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, errors.New().Wrap(ErrCPURead, err)
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, errors.New().WithMessage(ErrCPURead, "no cpu times")
	}

	return times[0], nil
}

// CPUModel returns the model name of the first processor.
func (p *Provider) CPUModel(ctx context.Context) (string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", errors.New().Wrap(ErrCPURead, err)
	}
	if len(infos) == 0 {
		return "", errors.New().New(ErrSensorUnavailable)
	}

	return infos[0].ModelName, nil
}

func (p *Provider) LoadAverage(ctx context.Context) (*load.AvgStat, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrSensorUnavailable, err)
	}

	return avg, nil
}

func (p *Provider) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrMemoryRead, err)
	}

	return vm, nil
}

func (p *Provider) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrMemoryRead, err)
	}

	return swap, nil
}

// Partitions lists mounted physical partitions.
func (p *Provider) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, errors.New().Wrap(ErrDiskRead, err)
	}

	return parts, nil
}

func (p *Provider) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, errors.New().Wrap(ErrDiskRead, err)
	}

	return usage, nil
}

// Resolve looks name up through the system resolver.
func (p *Provider) Resolve(ctx context.Context, name string) ([]string, error) {
	addrs, err := p.resolver.LookupHost(ctx, name)
	if err != nil {
		return nil, errors.New().Wrap(ErrResolveFailed, err)
	}

	return addrs, nil
}

// NetIOCounters returns counters summed over every interface.
func (p *Provider) NetIOCounters(ctx context.Context) (psnet.IOCountersStat, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return psnet.IOCountersStat{}, errors.New().Wrap(ErrNetworkRead, err)
	}
	if len(counters) == 0 {
		return psnet.IOCountersStat{}, errors.New().WithMessage(ErrNetworkRead, "no network counters")
	}

	return counters[0], nil
}

func (p *Provider) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrNetworkRead, err)
	}

	return ifaces, nil
}

// Connections lists sockets of kind (inet, tcp4, udp6, ...).
func (p *Provider) Connections(ctx context.Context, kind string) ([]psnet.ConnectionStat, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, kind)
	if err != nil {
		return nil, errors.New().Wrap(ErrNetworkRead, err)
	}

	return conns, nil
}

func (p *Provider) Pids(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrProcessRead, err)
	}

	return pids, nil
}

// ProcessName resolves pid to its name. A process that exited since it was
// listed yields ErrProcessGone.
func (p *Provider) ProcessName(ctx context.Context, pid int32) (string, error) {
	errFactory := errors.New()

	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return "", errFactory.Wrap(ErrProcessGone, err)
		}
		return "", errFactory.Wrap(ErrProcessRead, err)
	}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errFactory.Wrap(ErrProcessGone, err)
		}
		if running, rerr := proc.IsRunningWithContext(ctx); rerr == nil && !running {
			return "", errFactory.Wrap(ErrProcessGone, err)
		}
		return "", errFactory.Wrap(ErrProcessRead, err)
	}

	return name, nil
}

func (p *Provider) HostInfo(ctx context.Context) (*pshost.InfoStat, error) {
	info, err := pshost.InfoWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrHostRead, err)
	}

	return info, nil
}

func (p *Provider) BootTime(ctx context.Context) (uint64, error) {
	boot, err := pshost.BootTimeWithContext(ctx)
	if err != nil {
		return 0, errors.New().Wrap(ErrHostRead, err)
	}

	return boot, nil
}

func (p *Provider) Users(ctx context.Context) ([]pshost.UserStat, error) {
	users, err := pshost.UsersWithContext(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrHostRead, err)
	}

	return users, nil
}

// FileExists reports whether path names an existing file.
func (p *Provider) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GPUs returns the NVIDIA devices NVML can see. A host without the NVIDIA
// driver or without devices yields ErrSensorUnavailable; a driver that is
// present but fails yields ErrGPURead.
func (p *Provider) GPUs(_ context.Context) ([]gpu.DeviceInfo, error) {
	if p.gpu == nil {
		return nil, errors.New().New(ErrSensorUnavailable)
	}

	return gpuDevices(p.gpu)
}

// deviceLister is satisfied by *gpu.Probe.
type deviceLister interface {
	Devices() ([]gpu.DeviceInfo, error)
}

func gpuDevices(probe deviceLister) ([]gpu.DeviceInfo, error) {
	errFactory := errors.New()

	devices, err := probe.Devices()
	if err != nil {
		if errors.HasCode(err, gpu.ErrNoDriver) {
			return nil, errFactory.Wrap(ErrSensorUnavailable, err)
		}
		return nil, errFactory.Wrap(ErrGPURead, err)
	}
	if len(devices) == 0 {
		return nil, errFactory.New(ErrSensorUnavailable)
	}

	return devices, nil
}

func (p *Provider) proc(elem ...string) string {
	return filepath.Join(append([]string{p.procRoot}, elem...)...)
}

func (p *Provider) sys(elem ...string) string {
	return filepath.Join(append([]string{p.sysRoot}, elem...)...)
}

func (p *Provider) etc(elem ...string) string {
	return filepath.Join(append([]string{p.etcRoot}, elem...)...)
}
