package host

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/gpu"
	"github.com/distatus/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseProcStat(t *testing.T) {
	input := `cpu  10132153 290696 3084719 46828483 16683 0 25195 0 0 0
cpu0 1393280 32966 572056 13343292 6130 0 17875 0 0 0
intr 114930548 113199788 3 0 5 263 0 4 [... 50 more ...]
ctxt 1990473
btime 1062191376
processes 2915
softirq 2434564 0 952306 3114 49834 14571 0 2053 868417 0 544269
`
	stats, err := parseProcStat(bufio.NewScanner(strings.NewReader(input)))
	require.NoError(t, err)

	assert.Equal(t, uint64(1990473), stats.CtxSwitches)
	assert.Equal(t, uint64(114930548), stats.Interrupts)
	assert.Equal(t, uint64(2434564), stats.SoftInterrupts)
	assert.Zero(t, stats.Syscalls)
}

func TestCPUStatsMissingProc(t *testing.T) {
	p := New(Options{ProcRoot: t.TempDir()})

	_, err := p.CPUStats(context.Background())
	require.Error(t, err)
}

func TestCPUFrequencyFromSysfs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "devices", "system", "cpu", "cpu0", "cpufreq")
	writeFile(t, filepath.Join(dir, "scaling_cur_freq"), "2400000\n")
	writeFile(t, filepath.Join(dir, "cpuinfo_min_freq"), "800000\n")
	writeFile(t, filepath.Join(dir, "cpuinfo_max_freq"), "4200000\n")

	freq, err := New(Options{SysRoot: root}).CPUFrequency(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 2400.0, freq.Current, 0.001)
	assert.InDelta(t, 800.0, freq.Min, 0.001)
	assert.InDelta(t, 4200.0, freq.Max, 0.001)
}

func TestParseRoutes(t *testing.T) {
	input := `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	00000000	0101A8C0	0003	0	0	100	00000000	0	0	0
eth0	0001A8C0	00000000	0001	0	0	100	00FFFFFF	0	0	0
wlan0	00000000	FE01A8C0	0001	0	0	600	00000000	0	0	0
`
	gateways := make(map[string]string)
	require.NoError(t, parseRoutes(strings.NewReader(input), gateways))

	assert.Equal(t, map[string]string{"eth0": "192.168.1.1"}, gateways)
}

func TestParseIPv6Routes(t *testing.T) {
	input := `00000000000000000000000000000000 00 00000000000000000000000000000000 00 fe800000000000000000000000000001 00000400 00000001 00000000 00000003 eth0
fe800000000000000000000000000000 40 00000000000000000000000000000000 00 00000000000000000000000000000000 00000100 00000001 00000000 00000001 eth0
00000000000000000000000000000000 00 00000000000000000000000000000000 00 fe800000000000000000000000000002 00000400 00000001 00000000 00000003 wlan0
`
	gateways := map[string]string{"wlan0": "10.0.0.1"}
	require.NoError(t, parseIPv6Routes(strings.NewReader(input), gateways))

	assert.Equal(t, "fe80::1", gateways["eth0"])
	assert.Equal(t, "10.0.0.1", gateways["wlan0"])
}

func TestDefaultGateways(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "net", "route"),
		"Iface\tDestination\tGateway\tFlags\tRefCnt\tUse\tMetric\tMask\tMTU\tWindow\tIRTT\n"+
			"enp3s0\t00000000\t010010AC\t0003\t0\t0\t0\t00000000\t0\t0\t0\n")

	gateways, err := New(Options{ProcRoot: root}).DefaultGateways(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.1", gateways["enp3s0"])
}

func TestLinkInfo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "class", "net", "eth0", "duplex"), "full\n")
	writeFile(t, filepath.Join(root, "class", "net", "eth0", "speed"), "1000\n")
	writeFile(t, filepath.Join(root, "class", "net", "veth1", "speed"), "-1\n")

	p := New(Options{SysRoot: root})

	assert.Equal(t, LinkInfo{Duplex: DuplexFull, Speed: 1000}, p.LinkInfo("eth0"))
	assert.Equal(t, LinkInfo{Duplex: DuplexUnknown}, p.LinkInfo("veth1"))
	assert.Equal(t, LinkInfo{Duplex: DuplexUnknown}, p.LinkInfo("missing"))
}

func TestOSRelease(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "os-release"), `NAME="Fedora Linux"
VERSION="40 (Workstation Edition)"
ID=fedora
VERSION_ID=40
PRETTY_NAME="Fedora Linux 40 (Workstation Edition)"
VARIANT="Workstation Edition"
`)

	rel, err := New(Options{EtcRoot: root}).OSRelease()
	require.NoError(t, err)

	assert.Equal(t, "fedora", rel.ID)
	assert.Equal(t, "Fedora Linux", rel.Name)
	assert.Equal(t, "40", rel.VersionID)
	assert.Equal(t, "Workstation Edition", rel.Edition())
}

func TestOSReleaseEditionFallback(t *testing.T) {
	assert.Equal(t, "Debian GNU/Linux 12", OSRelease{ID: "debian", PrettyName: "Debian GNU/Linux 12"}.Edition())
	assert.Equal(t, "alpine", OSRelease{ID: "alpine"}.Edition())
}

func TestOSReleaseMissing(t *testing.T) {
	_, err := New(Options{EtcRoot: t.TempDir()}).OSRelease()
	require.Error(t, err)
}

func readings(bats ...*battery.Battery) []reading {
	out := make([]reading, len(bats))
	for i, bat := range bats {
		out[i] = reading{bat: bat, rateKnown: true}
	}
	return out
}

func TestCombineBatteries(t *testing.T) {
	tests := []struct {
		name     string
		readings []reading
		expected PowerState
	}{
		{
			name: "discharging",
			readings: readings(&battery.Battery{
				State:      battery.State{Raw: battery.Discharging},
				Current:    25000,
				Full:       50000,
				ChargeRate: 10000,
			}),
			expected: PowerState{Percent: 50, SecsLeft: 9000},
		},
		{
			name: "discharging without charge rate",
			readings: []reading{{bat: &battery.Battery{
				State:   battery.State{Raw: battery.Discharging},
				Current: 25000,
				Full:    50000,
			}}},
			expected: PowerState{Percent: 50, SecsLeft: -1},
		},
		{
			name: "charging",
			readings: readings(&battery.Battery{
				State:   battery.State{Raw: battery.Charging},
				Current: 40000,
				Full:    50000,
			}),
			expected: PowerState{Percent: 80, PowerPlugged: true, Charging: true, SecsLeft: -1},
		},
		{
			name: "plugged in but not charging",
			readings: readings(&battery.Battery{
				State:   battery.State{Raw: battery.Idle},
				Current: 40000,
				Full:    50000,
			}),
			expected: PowerState{Percent: 80, PowerPlugged: true, Idle: true, SecsLeft: -1},
		},
		{
			name: "full across two packs",
			readings: readings(
				&battery.Battery{State: battery.State{Raw: battery.Full}, Current: 30000, Full: 30000},
				&battery.Battery{State: battery.State{Raw: battery.Full}, Current: 20000, Full: 20000},
			),
			expected: PowerState{Percent: 100, PowerPlugged: true, Full: true, SecsLeft: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, combine(tt.readings))
		})
	}
}

func TestReadableKeepsBatteryWithoutChargeRate(t *testing.T) {
	bat := &battery.Battery{State: battery.State{Raw: battery.Discharging}, Current: 25000, Full: 50000}
	errs := battery.Errors{battery.ErrPartial{ChargeRate: assert.AnError}}

	got := readable([]*battery.Battery{bat}, errs)
	require.Len(t, got, 1)
	assert.Same(t, bat, got[0].bat)
	assert.False(t, got[0].rateKnown)

	state := combine(got)
	assert.Equal(t, 50.0, state.Percent)
	assert.Equal(t, -1.0, state.SecsLeft)
}

func TestReadableSkipsUnreadableBatteries(t *testing.T) {
	good := &battery.Battery{Full: 1}
	noCharge := &battery.Battery{Full: 3}
	bats := []*battery.Battery{good, {Full: 2}, noCharge, {Full: 4}, nil}
	errs := battery.Errors{
		nil,
		assert.AnError,
		battery.ErrPartial{Current: assert.AnError},
		&battery.ErrPartial{State: assert.AnError},
		nil,
	}

	got := readable(bats, errs)
	require.Len(t, got, 1)
	assert.Same(t, good, got[0].bat)
	assert.True(t, got[0].rateKnown)
}

func TestSocketNames(t *testing.T) {
	assert.Equal(t, "AF_INET", FamilyName(2))
	assert.Equal(t, "SOCK_STREAM", SocketTypeName(1))
	assert.Equal(t, "SOCK_DGRAM", SocketTypeName(2))
}

type fakeLister struct {
	devices []gpu.DeviceInfo
	err     error
}

func (f fakeLister) Devices() ([]gpu.DeviceInfo, error) { return f.devices, f.err }

func TestGPUDevicesErrorMapping(t *testing.T) {
	errFactory := errors.New()

	tests := []struct {
		name        string
		lister      fakeLister
		unavailable bool
	}{
		{"no driver", fakeLister{err: errFactory.New(gpu.ErrNoDriver)}, true},
		{"no devices", fakeLister{}, true},
		{"init failed", fakeLister{err: errFactory.New(gpu.ErrInitFailed)}, false},
		{"device info failed", fakeLister{err: errFactory.New(gpu.ErrDeviceInfoFailed)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gpuDevices(tt.lister)
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.HasCode(err, ErrSensorUnavailable))
			assert.Equal(t, !tt.unavailable, errors.HasCode(err, ErrGPURead))
		})
	}

	devices, err := gpuDevices(fakeLister{devices: []gpu.DeviceInfo{{Name: "RTX"}}})
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}
