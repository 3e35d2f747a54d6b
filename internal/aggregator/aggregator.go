// Package aggregator runs the collectors of a selection and gathers their
// outcomes into one snapshot.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/sysreport/internal/collector"
	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/report"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	// Parallel runs the collectors of an all-domains selection concurrently.
	Parallel bool
	// Timeout bounds each collector. Zero means DefaultTimeout.
	Timeout time.Duration
}

type Aggregator struct {
	collectors map[report.Domain]collector.Collector
	clock      collector.Clock
	log        logger.Logger
	opts       Options
}

func New(collectors []collector.Collector, clock collector.Clock, log logger.Logger, opts Options) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	byDomain := make(map[report.Domain]collector.Collector, len(collectors))
	for _, c := range collectors {
		byDomain[c.Domain()] = c
	}

	return &Aggregator{
		collectors: byDomain,
		clock:      clock,
		log:        log.With("aggregator"),
		opts:       opts,
	}
}

// Collect runs every collector of sel. A failing collector is recorded in
// its Result and never stops the others. The snapshot is returned together
// with ErrAllCollectorsFailed when nothing succeeded, and with
// ErrInterrupted when ctx was cancelled.
func (a *Aggregator) Collect(ctx context.Context, sel report.Selection) (*report.Snapshot, error) {
	errFactory := errors.New()

	domains := sel.Domains()
	for _, d := range domains {
		if _, ok := a.collectors[d]; !ok {
			return nil, errFactory.WithData(errors.ErrUnknownDomain, d.String())
		}
	}

	snap := &report.Snapshot{
		Selection: sel,
		Results:   make([]report.Result, len(domains)),
		Started:   time.Now(),
	}

	if a.opts.Parallel && len(domains) > 1 {
		var g errgroup.Group
		for i, d := range domains {
			g.Go(func() error {
				snap.Results[i] = a.run(ctx, d)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, d := range domains {
			snap.Results[i] = a.run(ctx, d)
		}
	}
	snap.Finished = time.Now()

	a.log.Info().
		Str("selection", sel.String()).
		Int("failed", len(snap.Failed())).
		Dur("duration", snap.Finished.Sub(snap.Started)).
		Msg("Collection finished")

	if ctx.Err() != nil {
		return snap, errFactory.Wrap(errors.ErrInterrupted, ctx.Err())
	}
	if len(snap.Failed()) == len(domains) {
		return snap, errFactory.New(errors.ErrAllCollectorsFailed)
	}

	return snap, nil
}

type outcome struct {
	doc *report.Document
	err error
}

// run executes one collector under the per-collector timeout. A collector
// that overruns is abandoned; its goroutine finishes on its own.
func (a *Aggregator) run(ctx context.Context, d report.Domain) report.Result {
	errFactory := errors.New()
	c := a.collectors[d]
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errFactory.WithData(errors.ErrCollectorFailed, fmt.Sprint(r))}
			}
		}()
		doc, err := c.Collect(runCtx)
		done <- outcome{doc: doc, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
	}

	if runCtx.Err() != nil && (out.err != nil || out.doc == nil) {
		if ctx.Err() != nil {
			out.err = errFactory.Wrap(errors.ErrInterrupted, ctx.Err())
		} else {
			out.err = errFactory.WithData(errors.ErrTimeout, a.opts.Timeout.String())
		}
	} else if out.err == nil && out.doc == nil {
		out.err = errFactory.New(errors.ErrCollectorFailed)
	}

	res := report.Result{
		Domain:   d,
		Document: out.doc,
		Err:      out.err,
		Duration: time.Since(start),
	}

	if res.OK() {
		a.log.Info().Str("domain", d.String()).Dur("duration", res.Duration).Msg("Collector succeeded")
		return res
	}

	res.Document = nil
	res.Generated = a.clock.GenerateReport()
	if appErr, ok := out.err.(errors.Error); ok {
		a.log.ErrorWithContext(appErr, d.String(), "collect").Dur("duration", res.Duration).Msg("Collector failed")
	} else {
		a.log.Error().Err(out.err).Str("domain", d.String()).Dur("duration", res.Duration).Msg("Collector failed")
	}

	return res
}
