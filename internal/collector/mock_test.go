package collector

import (
	"context"
	"time"

	"codeberg.org/mutker/sysreport/internal/gpu"
	"codeberg.org/mutker/sysreport/internal/host"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	pshost "github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/mock"
)

const testStamp = "10:00:00 | 01/02/2024"

type fixedClock struct{}

func (fixedClock) GenerateReport() string { return testStamp }

type mockSource struct {
	mock.Mock
}

var _ Source = (*mockSource)(nil)

func (m *mockSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	args := m.Called(ctx, interval)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockSource) CPUCounts(ctx context.Context, logical bool) (int, error) {
	args := m.Called(ctx, logical)
	return args.Int(0), args.Error(1)
}

func (m *mockSource) CPUTimes(ctx context.Context) (cpu.TimesStat, error) {
	args := m.Called(ctx)
	return args.Get(0).(cpu.TimesStat), args.Error(1)
}

func (m *mockSource) CPUFrequency(ctx context.Context) (host.Frequency, error) {
	args := m.Called(ctx)
	return args.Get(0).(host.Frequency), args.Error(1)
}

func (m *mockSource) CPUStats(ctx context.Context) (host.CPUStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(host.CPUStats), args.Error(1)
}

func (m *mockSource) LoadAverage(ctx context.Context) (*load.AvgStat, error) {
	args := m.Called(ctx)
	avg, _ := args.Get(0).(*load.AvgStat)
	return avg, args.Error(1)
}

func (m *mockSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	args := m.Called(ctx)
	vm, _ := args.Get(0).(*mem.VirtualMemoryStat)
	return vm, args.Error(1)
}

func (m *mockSource) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	args := m.Called(ctx)
	swap, _ := args.Get(0).(*mem.SwapMemoryStat)
	return swap, args.Error(1)
}

func (m *mockSource) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	args := m.Called(ctx)
	parts, _ := args.Get(0).([]disk.PartitionStat)
	return parts, args.Error(1)
}

func (m *mockSource) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	args := m.Called(ctx, path)
	usage, _ := args.Get(0).(*disk.UsageStat)
	return usage, args.Error(1)
}

func (m *mockSource) PathLimits(mountpoint string) (host.PathLimits, error) {
	args := m.Called(mountpoint)
	return args.Get(0).(host.PathLimits), args.Error(1)
}

func (m *mockSource) Resolve(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	addrs, _ := args.Get(0).([]string)
	return addrs, args.Error(1)
}

func (m *mockSource) NetIOCounters(ctx context.Context) (psnet.IOCountersStat, error) {
	args := m.Called(ctx)
	return args.Get(0).(psnet.IOCountersStat), args.Error(1)
}

func (m *mockSource) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	args := m.Called(ctx)
	ifaces, _ := args.Get(0).(psnet.InterfaceStatList)
	return ifaces, args.Error(1)
}

func (m *mockSource) LinkInfo(name string) host.LinkInfo {
	return m.Called(name).Get(0).(host.LinkInfo)
}

func (m *mockSource) Connections(ctx context.Context, kind string) ([]psnet.ConnectionStat, error) {
	args := m.Called(ctx, kind)
	conns, _ := args.Get(0).([]psnet.ConnectionStat)
	return conns, args.Error(1)
}

func (m *mockSource) DefaultGateways(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	gws, _ := args.Get(0).(map[string]string)
	return gws, args.Error(1)
}

func (m *mockSource) PeerAddresses(ctx context.Context) (host.Peers, error) {
	args := m.Called(ctx)
	peers, _ := args.Get(0).(host.Peers)
	return peers, args.Error(1)
}

func (m *mockSource) Pids(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	pids, _ := args.Get(0).([]int32)
	return pids, args.Error(1)
}

func (m *mockSource) ProcessName(ctx context.Context, pid int32) (string, error) {
	args := m.Called(ctx, pid)
	return args.String(0), args.Error(1)
}

func (m *mockSource) HostInfo(ctx context.Context) (*pshost.InfoStat, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*pshost.InfoStat)
	return info, args.Error(1)
}

func (m *mockSource) CPUModel(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSource) OSRelease() (host.OSRelease, error) {
	args := m.Called()
	return args.Get(0).(host.OSRelease), args.Error(1)
}

func (m *mockSource) BootTime(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockSource) Users(ctx context.Context) ([]pshost.UserStat, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]pshost.UserStat)
	return users, args.Error(1)
}

func (m *mockSource) FileExists(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *mockSource) GPUs(ctx context.Context) ([]gpu.DeviceInfo, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]gpu.DeviceInfo)
	return devices, args.Error(1)
}

func (m *mockSource) Battery() (host.PowerState, error) {
	args := m.Called()
	return args.Get(0).(host.PowerState), args.Error(1)
}
