package collector

import (
	"context"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
	"codeberg.org/mutker/sysreport/internal/timestamp"
)

type BatterySource interface {
	Battery() (host.PowerState, error)
}

type Battery struct {
	base
	src BatterySource
}

func (b *Battery) Domain() report.Domain { return report.DomainBattery }

func (b *Battery) Collect(_ context.Context) (*report.Document, error) {
	state, err := b.src.Battery()
	if err != nil {
		if !errors.HasCode(err, errors.ErrSensorUnavailable) {
			return nil, fail(err)
		}
		b.log.Debug().Msg("No battery detected")
		return b.section(report.DomainBattery, report.NewDocument().Set("Battery Status", "No battery detected")), nil
	}

	connectivity := "Power Disconnected"
	if state.PowerPlugged {
		connectivity = "Power Connected"
	}

	body := report.NewDocument().
		Set("Battery Percentage", percent(state.Percent)).
		Set("Power Connectivity", connectivity).
		Set("Battery Remaining Time", RemainingTime(state))

	return b.section(report.DomainBattery, body), nil
}

// RemainingTime describes how long the battery lasts from state.
func RemainingTime(state host.PowerState) string {
	switch {
	case state.Full || state.Percent >= 100:
		return "Fully Charged"
	case state.Charging:
		return "Charging"
	case state.Idle:
		return "Not Charging"
	case state.SecsLeft >= 0:
		return timestamp.ConvertTime(state.SecsLeft)
	}

	return "Unknown"
}
