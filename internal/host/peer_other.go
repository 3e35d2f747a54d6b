//go:build !linux

package host

import (
	"context"

	"codeberg.org/mutker/sysreport/internal/errors"
)

func (p *Provider) PeerAddresses(context.Context) (Peers, error) {
	return nil, errors.New().New(ErrSensorUnavailable)
}
