package collector

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
)

type ProcessSource interface {
	Pids(ctx context.Context) ([]int32, error)
	ProcessName(ctx context.Context, pid int32) (string, error)
}

type Process struct {
	base
	src ProcessSource
}

func (p *Process) Domain() report.Domain { return report.DomainProcess }

func (p *Process) Collect(ctx context.Context) (*report.Document, error) {
	pids, err := p.src.Pids(ctx)
	if err != nil {
		return nil, fail(err)
	}

	listed := make([]string, 0, len(pids))
	info := make([]*report.Document, 0, len(pids))

	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, fail(err)
		}

		name, err := p.src.ProcessName(ctx, pid)
		if err != nil {
			if errors.HasCode(err, host.ErrProcessGone) {
				p.log.Debug().Int32("pid", pid).Msg("Process exited before it was resolved")
			} else {
				p.log.Warn().Err(err).Int32("pid", pid).Msg("Failed to resolve process")
			}
			continue
		}

		listed = append(listed, fmt.Sprintf("{'pid': %d}", pid))
		info = append(info, report.NewDocument().Set("pid", pid).Set("name", name))
	}

	body := report.NewDocument().
		Set("Process List", strings.Join(listed, ", ")).
		Set("Process Info", info).
		Set("Process Count", len(info))

	return p.section(report.DomainProcess, body), nil
}
