package collector

import (
	"context"

	"codeberg.org/mutker/sysreport/internal/report"
	"github.com/shirou/gopsutil/v4/mem"
)

// LowMemoryThreshold is the available memory, in bytes, at or below which
// the report warns.
const LowMemoryThreshold = 100 * 1024 * 1024

type MemorySource interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
}

type Memory struct {
	base
	src MemorySource
}

func (m *Memory) Domain() report.Domain { return report.DomainMemory }

// MemoryThreshold describes available memory against LowMemoryThreshold.
func MemoryThreshold(available uint64) string {
	if available <= LowMemoryThreshold {
		return "Warning: Available memory is below the threshold of 100MB."
	}
	return "Available memory is sufficient."
}

func (m *Memory) Collect(ctx context.Context) (*report.Document, error) {
	vm, err := m.src.VirtualMemory(ctx)
	if err != nil {
		return nil, fail(err)
	}

	swap, err := m.src.SwapMemory(ctx)
	if err != nil {
		return nil, fail(err)
	}

	m.log.Debug().Uint64("available", vm.Available).Uint64("total", vm.Total).Msg("Read memory usage")

	body := report.NewDocument().
		Set("System Memory", report.NewDocument().
			Set("Total", gb(vm.Total)).
			Set("Available", gb(vm.Available)).
			Set("Percentage", percent(vm.UsedPercent)).
			Set("Used", gb(vm.Used)).
			Set("Free", gb(vm.Free))).
		Set("THRESHOLD", MemoryThreshold(vm.Available)).
		Set("Swap Memory", report.NewDocument().
			Set("Total", gb(swap.Total)).
			Set("Used", gb(swap.Used)).
			Set("Free", gb(swap.Free)).
			Set("Percentage", percent(swap.UsedPercent)).
			Set("System IN", gb(swap.Sin)).
			Set("System OUT", gb(swap.Sout)))

	return m.section(report.DomainMemory, body), nil
}
