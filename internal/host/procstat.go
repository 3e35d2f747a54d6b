package host

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
)

// CPUStats holds kernel activity counters since boot.
type CPUStats struct {
	CtxSwitches    uint64
	Interrupts     uint64
	SoftInterrupts uint64
	Syscalls       uint64
}

// CPUStats reads context switch and interrupt totals from /proc/stat.
// Linux does not count system calls there, so Syscalls stays zero.
func (p *Provider) CPUStats(_ context.Context) (CPUStats, error) {
	f, err := os.Open(p.proc("stat"))
	if err != nil {
		return CPUStats{}, errors.New().Wrap(ErrSensorUnavailable, err)
	}
	defer f.Close()

	stats, err := parseProcStat(bufio.NewScanner(f))
	if err != nil {
		return CPUStats{}, errors.New().Wrap(ErrCPURead, err)
	}

	return stats, nil
}

func parseProcStat(sc *bufio.Scanner) (CPUStats, error) {
	var stats CPUStats

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}

		var dst *uint64
		switch fields[0] {
		case "ctxt":
			dst = &stats.CtxSwitches
		case "intr":
			dst = &stats.Interrupts
		case "softirq":
			dst = &stats.SoftInterrupts
		default:
			continue
		}

		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return CPUStats{}, err
		}
		*dst = v
	}

	return stats, sc.Err()
}
