package main

import (
	"context"
	"fmt"
	"io"

	"codeberg.org/mutker/sysreport/internal/aggregator"
	"codeberg.org/mutker/sysreport/internal/collector"
	"codeberg.org/mutker/sysreport/internal/config"
	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/gpu"
	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/output"
	"codeberg.org/mutker/sysreport/internal/prompt"
	"codeberg.org/mutker/sysreport/internal/report"
	"codeberg.org/mutker/sysreport/internal/timestamp"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

const defaultOutputDir = "."

// collectorFactory builds the collectors for one run.
type collectorFactory func(cfg *config.Config, clock collector.Clock, log logger.Logger) []collector.Collector

// app holds everything one invocation wires together.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newCollectors collectorFactory

	cfg      *config.Config
	log      *logger.Log
	agg      *aggregator.Aggregator
	writer   *output.Writer
	profiler interface{ Stop() }

	// reported is set once the user has been shown a message for the failure.
	reported bool
}

func hostCollectors(cfg *config.Config, clock collector.Clock, log logger.Logger) []collector.Collector {
	src := host.New(host.Options{
		Log: log.With("host"),
		GPU: gpu.NewProbe(log),
	})

	return collector.New(src, clock, log, collector.Options{
		SampleInterval: cfg.SampleInterval,
		ProbeHost:      cfg.ProbeHost,
		RebootMarker:   cfg.RebootMarker,
	})
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel.String(),
		File:    cfg.LogFile,
		Console: a.stderr,
	})
	if err != nil {
		return err
	}
	a.log = log

	a.log.Debug().
		Str("command", cmd.Name()).
		Str("format", cfg.Format).
		Str("layout", cfg.Layout).
		Bool("parallel", cfg.Parallel).
		Dur("timeout", cfg.Timeout).
		Msg("Config loaded")

	a.startProfile()

	factory := a.newCollectors
	if factory == nil {
		factory = hostCollectors
	}

	clock := timestamp.New()
	a.agg = aggregator.New(factory(cfg, clock, a.log), clock, a.log, aggregator.Options{
		Parallel: cfg.Parallel,
		Timeout:  cfg.Timeout,
	})
	a.writer = output.New(output.Options{
		Format: cfg.OutputFormat(),
		Layout: cfg.OutputLayout(),
		Log:    a.log,
	})

	return nil
}

func (a *app) startProfile() {
	var mode func(*profile.Profile)
	switch a.cfg.Profile {
	case config.ProfileCPU:
		mode = profile.CPUProfile
	case config.ProfileMem:
		mode = profile.MemProfile
	default:
		return
	}

	dir := a.cfg.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}

	a.profiler = profile.Start(mode, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	a.log.Info().Str("mode", string(a.cfg.Profile)).Str("dir", dir).Msg("Profiling enabled")
}

// interactive asks what to collect and where to save it, then runs it.
func (a *app) interactive(ctx context.Context) error {
	p := prompt.New(a.stdin, a.stdout, a.log)

	req, err := p.Run(ctx, prompt.Defaults{Dir: a.cfg.OutputDir, File: a.cfg.OutputFile})
	if err != nil {
		if errors.HasCode(err, errors.ErrInterrupted) {
			a.fail(err, errors.GetErrorMessage(errors.ErrInterrupted)+".")
		}
		return err
	}

	return a.report(ctx, req.Selection, req.Dir, req.File)
}

// report collects sel and writes the snapshot to dir/file.
func (a *app) report(ctx context.Context, sel report.Selection, dir, file string) error {
	if dir == "" {
		dir = defaultOutputDir
	}
	if file == "" {
		file = defaultFileName(sel, a.cfg.OutputFormat())
	}

	a.log.Info().Str("selection", sel.String()).Msg("Collecting report")

	snap, err := a.agg.Collect(ctx, sel)
	if err != nil {
		switch {
		case errors.HasCode(err, errors.ErrInterrupted):
			a.fail(err, errors.GetErrorMessage(errors.ErrInterrupted)+".")
		case errors.HasCode(err, errors.ErrAllCollectorsFailed):
			a.fail(err, errors.GetErrorMessage(errors.ErrAllCollectorsFailed)+"; nothing was written.")
		}
		return err
	}

	for _, r := range snap.Failed() {
		fmt.Fprintf(a.stderr, "Warning: %s could not be collected: %v\n", r.Domain.Title(), r.Err)
	}

	path, err := a.writer.Write(ctx, dir, file, snap)
	if err != nil {
		a.fail(err, output.UserMessage(err))
		return err
	}

	fmt.Fprintf(a.stdout, "Report saved to %s\n", path)

	return nil
}

func (a *app) fail(err error, msg string) {
	fmt.Fprintln(a.stderr, msg)
	a.reported = true
	if a.log != nil {
		a.log.Error().Err(err).Msg(msg)
	}
}

// close stops the profiler and flushes the log file.
func (a *app) close() {
	if a.profiler != nil {
		a.profiler.Stop()
		a.profiler = nil
	}
	if a.log != nil {
		if err := a.log.Close(); err != nil {
			fmt.Fprintln(a.stderr, "Error:", err)
		}
	}
}

// defaultFileName names a report when no file was configured.
func defaultFileName(sel report.Selection, f output.Format) string {
	name := "system_report"
	if !sel.All() {
		name = sel.Domain().String() + "_report"
	}
	return name + "." + f.Extension()
}
