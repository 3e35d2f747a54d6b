package collector

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
	"codeberg.org/mutker/sysreport/internal/timestamp"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

// HighLoadThreshold is the utilization, in percent, from which load is high.
const HighLoadThreshold = 75.0

type CPUSource interface {
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	CPUCounts(ctx context.Context, logical bool) (int, error)
	CPUTimes(ctx context.Context) (cpu.TimesStat, error)
	CPUFrequency(ctx context.Context) (host.Frequency, error)
	CPUStats(ctx context.Context) (host.CPUStats, error)
	LoadAverage(ctx context.Context) (*load.AvgStat, error)
}

type CPU struct {
	base
	src      CPUSource
	interval time.Duration
}

func (c *CPU) Domain() report.Domain { return report.DomainCPU }

// LoadStatus classifies utilization against HighLoadThreshold.
func LoadStatus(usage float64) string {
	if usage < HighLoadThreshold {
		return "CPU load is normal."
	}
	return "CPU load is too high."
}

func (c *CPU) Collect(ctx context.Context) (*report.Document, error) {
	before, err := c.src.CPUTimes(ctx)
	if err != nil {
		return nil, fail(err)
	}

	usage, err := c.src.CPUPercent(ctx, c.interval)
	if err != nil {
		return nil, fail(err)
	}

	after, err := c.src.CPUTimes(ctx)
	if err != nil {
		return nil, fail(err)
	}

	logical, err := c.src.CPUCounts(ctx, true)
	if err != nil {
		return nil, fail(err)
	}

	physical, err := c.src.CPUCounts(ctx, false)
	if err != nil {
		c.optional(err, "physical cores")
	}

	c.log.Debug().Float64("usage", usage).Int("logical", logical).Int("physical", physical).Msg("Sampled CPU usage")

	body := report.NewDocument().
		Set("Total CPU Usage", percent(usage)).
		Set("Total Processor Cores Count (Logical)", count(logical)).
		Set("Total Processor Cores Count (Physical)", count(physical)).
		Set("CPU Load Status", LoadStatus(usage)).
		Set("System CPU Time Statistics (Time)", cpuTimes(after)).
		Set("System CPU Time Statistics (Percentages)", cpuShares(before, after)).
		Set("CPU Frequency Statistics", c.frequency(ctx)).
		Set("CPU Stats Statistics", c.stats(ctx))

	if avg, err := c.src.LoadAverage(ctx); err == nil {
		body.Set("Load Average", report.NewDocument().
			Set("1 min", fmt.Sprintf("%.2f", avg.Load1)).
			Set("5 min", fmt.Sprintf("%.2f", avg.Load5)).
			Set("15 min", fmt.Sprintf("%.2f", avg.Load15)))
	} else {
		c.optional(err, "load average")
	}

	return c.section(report.DomainCPU, body), nil
}

func (c *CPU) frequency(ctx context.Context) *report.Document {
	freq, err := c.src.CPUFrequency(ctx)
	if err != nil {
		c.optional(err, "frequency")
	}

	return report.NewDocument().
		Set("Current", mhz(freq.Current)).
		Set("Min", mhz(freq.Min)).
		Set("Max", mhz(freq.Max))
}

func (c *CPU) stats(ctx context.Context) *report.Document {
	stats, err := c.src.CPUStats(ctx)
	if err != nil {
		c.optional(err, "cpu stats")
	}

	return report.NewDocument().
		Set("Context Switches", count(stats.CtxSwitches)).
		Set("Interrupts", count(stats.Interrupts)).
		Set("Software Interrupts", count(stats.SoftInterrupts)).
		Set("System Calls", count(stats.Syscalls))
}

// cpuTimes renders cumulative time per state. Interrupt and DPC map to the
// hardware and software interrupt states.
func cpuTimes(t cpu.TimesStat) *report.Document {
	return report.NewDocument().
		Set("User", timestamp.ConvertTime(t.User)).
		Set("System", timestamp.ConvertTime(t.System)).
		Set("IDLE", timestamp.ConvertTime(t.Idle)).
		Set("Interrupt", timestamp.ConvertTime(t.Irq)).
		Set("DPC", timestamp.ConvertTime(t.Softirq))
}

// cpuShares renders each state's share of the time elapsed between two
// samples, or of the cumulative totals when no time elapsed.
func cpuShares(before, after cpu.TimesStat) *report.Document {
	d := cpu.TimesStat{
		User:    after.User - before.User,
		System:  after.System - before.System,
		Idle:    after.Idle - before.Idle,
		Nice:    after.Nice - before.Nice,
		Iowait:  after.Iowait - before.Iowait,
		Irq:     after.Irq - before.Irq,
		Softirq: after.Softirq - before.Softirq,
		Steal:   after.Steal - before.Steal,
	}

	total := busyTotal(d)
	if total <= 0 {
		d = after
		total = busyTotal(after)
	}

	share := func(v float64) string {
		if total <= 0 {
			return percent(0)
		}
		return percent(v / total * 100)
	}

	return report.NewDocument().
		Set("User", share(d.User)).
		Set("System", share(d.System)).
		Set("IDLE", share(d.Idle)).
		Set("Interrupt", share(d.Irq)).
		Set("DPC", share(d.Softirq))
}

func busyTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}
