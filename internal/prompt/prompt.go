// Package prompt asks the user which report to produce and where to put it.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/report"
)

const (
	ModeSingle = "single_report"
	ModeAll    = "all_in_one"

	clearScreenSeq = "\033[H\033[2J"
)

// Request is what the user asked for.
type Request struct {
	Selection report.Selection
	Dir       string
	File      string
}

// Defaults skip the destination questions that are already answered.
type Defaults struct {
	Dir  string
	File string
}

type Option func(*Prompt)

// WithClearScreen replaces the terminal clearing routine.
func WithClearScreen(fn func(io.Writer)) Option {
	return func(p *Prompt) {
		p.clear = fn
	}
}

type Prompt struct {
	in    *bufio.Reader
	out   io.Writer
	log   logger.Logger
	clear func(io.Writer)
	lines chan line
}

type line struct {
	text string
	err  error
}

func New(in io.Reader, out io.Writer, log logger.Logger, opts ...Option) *Prompt {
	if log == nil {
		log = logger.Nop()
	}

	p := &Prompt{
		in:  bufio.NewReader(in),
		out: out,
		log: log.With("prompt"),
		clear: func(w io.Writer) {
			fmt.Fprint(w, clearScreenSeq)
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run walks the user through the wizard. Invalid answers are asked again;
// a report ID of 0 clears the screen and starts over.
func (p *Prompt) Run(ctx context.Context, defaults Defaults) (Request, error) {
	sel, err := p.selection(ctx)
	if err != nil {
		return Request{}, err
	}

	req := Request{Selection: sel, Dir: defaults.Dir, File: defaults.File}

	if req.Dir == "" {
		if req.Dir, err = p.ask(ctx, "Enter base directory path: "); err != nil {
			return Request{}, err
		}
	}

	for req.File == "" {
		if req.File, err = p.ask(ctx, "Enter file name (including extension): "); err != nil {
			return Request{}, err
		}
		if req.File == "" {
			fmt.Fprintln(p.out, "File name cannot be empty.")
		}
	}

	return req, nil
}

func (p *Prompt) selection(ctx context.Context) (report.Selection, error) {
	for {
		answer, err := p.ask(ctx, "What kind of report do you need today? ")
		if err != nil {
			return report.Selection{}, err
		}

		mode := strings.ReplaceAll(strings.ToLower(answer), " ", "_")
		p.log.Info().Str("mode", mode).Msg("User selected report type")

		switch mode {
		case ModeAll:
			return report.AllDomains(), nil
		case ModeSingle:
			id, err := p.reportID(ctx)
			if err != nil {
				return report.Selection{}, err
			}
			if id == 0 {
				p.clear(p.out)
				continue
			}
			return report.Single(report.Domain(id)), nil
		default:
			p.log.Warn().Str("mode", answer).Msg("Invalid choice for report type")
			fmt.Fprintln(p.out, `Invalid choice. Please choose "single_report" or "all_in_one".`)
		}
	}
}

// reportID asks until it gets a number between 0 and 7.
func (p *Prompt) reportID(ctx context.Context) (int, error) {
	maxID := len(report.Domains())

	for {
		answer, err := p.ask(ctx, fmt.Sprintf("Enter Report ID (1-%d, 0 to clear screen): ", maxID))
		if err != nil {
			return 0, err
		}

		id, err := strconv.Atoi(answer)
		if err != nil {
			p.log.Warn().Str("input", answer).Msg("Non-numeric input detected for report ID")
			fmt.Fprintln(p.out, "Invalid input. Please enter a valid number.")
			continue
		}
		if id < 0 || id > maxID {
			p.log.Warn().Int("id", id).Msg("Invalid report ID entered")
			fmt.Fprintf(p.out, "Please enter a number between 1 and %d, or 0 to clear the screen.\n", maxID)
			continue
		}

		return id, nil
	}
}

// ask prints question and returns the trimmed answer. Closed input or a
// cancelled ctx yields ErrInterrupted.
func (p *Prompt) ask(ctx context.Context, question string) (string, error) {
	errFactory := errors.New()
	fmt.Fprint(p.out, question)

	if p.lines == nil {
		p.lines = make(chan line, 1)
	}
	go func() {
		text, err := p.in.ReadString('\n')
		p.lines <- line{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", errFactory.Wrap(errors.ErrInterrupted, ctx.Err())
	case l := <-p.lines:
		if l.err != nil && (!errors.Is(l.err, io.EOF) || l.text == "") {
			return "", errFactory.Wrap(errors.ErrInterrupted, l.err)
		}
		return strings.TrimSpace(l.text), nil
	}
}
