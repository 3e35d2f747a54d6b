package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/sysreport/internal/config"
	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/report"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, newCollectors: hostCollectors}
	code := a.execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return exitOK
	}

	if !a.reported {
		fmt.Fprintln(a.stderr, "Error:", err)
	}

	return exitCode(err)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sysreport",
		Short: "Collect a host telemetry report and save it to a file",
		Long: "sysreport queries the operating system for CPU, process, memory, disk, network,\n" +
			"system identity and battery facts and writes them as one structured report.\n" +
			"Without a subcommand it asks what to collect and where to save it.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.interactive(cmd.Context())
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	single := &cobra.Command{
		Use:   "single <id|name>",
		Short: "Collect one domain (1-7 or cpu, process, memory, disk, network, system, battery)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := report.ParseDomain(args[0])
			if err != nil {
				return err
			}
			return a.report(cmd.Context(), report.Single(d), a.cfg.OutputDir, a.cfg.OutputFile)
		},
	}

	all := &cobra.Command{
		Use:   "all",
		Short: "Collect every domain into one report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(cmd.Context(), report.AllDomains(), a.cfg.OutputDir, a.cfg.OutputFile)
		},
	}

	root.AddCommand(single, all)

	return root
}

// loadDotEnv reads .env from the working directory when one exists.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.New().Wrap(errors.ErrReadConfig, err)
	}
	return nil
}

// exitCode maps a run error onto the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.HasCode(err, errors.ErrInterrupted),
		errors.HasCode(err, errors.ErrOutputInterrupted),
		errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
