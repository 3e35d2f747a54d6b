package host

import (
	"context"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"github.com/shirou/gopsutil/v4/cpu"
)

const kHzPerMHz = 1000

// Frequency is a processor clock reading in MHz.
type Frequency struct {
	Current float64
	Min     float64
	Max     float64
}

// CPUFrequency reads cpufreq scaling data for the first CPU, falling back
// to the nominal clock reported in cpuinfo when cpufreq is absent.
func (p *Provider) CPUFrequency(ctx context.Context) (Frequency, error) {
	dir := p.sys("devices", "system", "cpu", "cpu0", "cpufreq")

	cur, err := readKHz(dir + "/scaling_cur_freq")
	if err == nil {
		freq := Frequency{Current: cur}
		freq.Min, _ = readKHz(dir + "/cpuinfo_min_freq")
		freq.Max, _ = readKHz(dir + "/cpuinfo_max_freq")
		return freq, nil
	}
	p.log.Debug().Err(err).Msg("cpufreq unavailable, using cpuinfo clock")

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return Frequency{}, errors.New().Wrap(ErrSensorUnavailable, err)
	}
	if len(infos) == 0 || infos[0].Mhz == 0 {
		return Frequency{}, errors.New().New(ErrSensorUnavailable)
	}

	return Frequency{Current: infos[0].Mhz, Max: infos[0].Mhz}, nil
}

func readKHz(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, err
	}

	return v / kHzPerMHz, nil
}
