// Package collector turns host facts into one report section per domain.
package collector

import (
	"context"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/report"
)

const (
	defaultSampleInterval = time.Second
	defaultProbeHost      = "www.google.com"
	defaultRebootMarker   = "/run/reboot-required"
)

// Collector produces the section document of a single domain.
type Collector interface {
	Domain() report.Domain
	Collect(ctx context.Context) (*report.Document, error)
}

// Clock stamps sections with their generation time.
type Clock interface {
	GenerateReport() string
}

// Source is every host fact the collectors read.
type Source interface {
	CPUSource
	ProcessSource
	MemorySource
	DiskSource
	NetworkSource
	SystemSource
	BatterySource
}

type Options struct {
	// SampleInterval is the blocking window for CPU and network rates.
	SampleInterval time.Duration
	// ProbeHost is resolved to decide internet connectivity.
	ProbeHost string
	// RebootMarker is the file whose presence means a reboot is pending.
	RebootMarker string
}

func (o Options) withDefaults() Options {
	if o.SampleInterval < 0 {
		o.SampleInterval = 0
	}
	if o.ProbeHost == "" {
		o.ProbeHost = defaultProbeHost
	}
	if o.RebootMarker == "" {
		o.RebootMarker = defaultRebootMarker
	}

	return o
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{SampleInterval: defaultSampleInterval}.withDefaults()
}

// New returns one collector per domain, in report.Domains order.
func New(src Source, clock Clock, log logger.Logger, opts Options) []Collector {
	opts = opts.withDefaults()
	if log == nil {
		log = logger.Nop()
	}

	b := func(d report.Domain) base {
		return base{clock: clock, log: log.With(d.String())}
	}

	return []Collector{
		&CPU{base: b(report.DomainCPU), src: src, interval: opts.SampleInterval},
		&Process{base: b(report.DomainProcess), src: src},
		&Memory{base: b(report.DomainMemory), src: src},
		&Disk{base: b(report.DomainDisk), src: src},
		&Network{base: b(report.DomainNetwork), src: src, interval: opts.SampleInterval, probeHost: opts.ProbeHost},
		&System{base: b(report.DomainSystem), src: src, rebootMarker: opts.RebootMarker},
		&Battery{base: b(report.DomainBattery), src: src},
	}
}

type base struct {
	clock Clock
	log   logger.Logger
}

// section wraps body under the domain title and stamps it.
func (b base) section(d report.Domain, body *report.Document) *report.Document {
	body.Set(report.GeneratedKey, b.clock.GenerateReport())
	return report.NewDocument().Set(d.Title(), body)
}

// optional logs a failed read of a field that falls back to a default.
func (b base) optional(err error, field string) {
	if errors.HasCode(err, errors.ErrSensorUnavailable) {
		b.log.Debug().Str("field", field).Msg("Sensor unavailable")
		return
	}
	b.log.Warn().Err(err).Str("field", field).Msg("Falling back to default value")
}

func fail(err error) error {
	return errors.New().Wrap(errors.ErrCollectorFailed, err)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
