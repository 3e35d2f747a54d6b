//go:build !linux

package host

import "codeberg.org/mutker/sysreport/internal/errors"

// PathLimits are the longest file name and path a filesystem accepts.
type PathLimits struct {
	MaxFile int
	MaxPath int
}

func (p *Provider) PathLimits(string) (PathLimits, error) {
	return PathLimits{}, errors.New().New(ErrSensorUnavailable)
}
