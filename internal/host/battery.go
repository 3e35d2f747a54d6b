package host

import (
	"codeberg.org/mutker/sysreport/internal/errors"
	"github.com/distatus/battery"
)

const secondsPerHour = 3600

// PowerState is the combined state of every battery in the machine.
type PowerState struct {
	Percent      float64
	PowerPlugged bool
	Charging     bool
	// Idle is set when external power is present but no battery charges.
	Idle bool
	Full bool
	// SecsLeft is the estimated discharge time, negative when unknown.
	SecsLeft float64
}

// reading is one battery together with whether its charge rate was read.
type reading struct {
	bat       *battery.Battery
	rateKnown bool
}

// Battery aggregates every readable battery. A machine without batteries
// yields ErrSensorUnavailable.
func (p *Provider) Battery() (PowerState, error) {
	errFactory := errors.New()

	bats, err := battery.GetAll()
	var partial battery.Errors
	if err != nil {
		var ok bool
		if partial, ok = err.(battery.Errors); !ok {
			return PowerState{}, errFactory.Wrap(ErrSensorUnavailable, err)
		}
	}

	readings := readable(bats, partial)
	if len(readings) == 0 {
		return PowerState{}, errFactory.New(ErrSensorUnavailable)
	}

	return combine(readings), nil
}

// readable keeps every battery whose charge and state were read. A battery
// that only failed on secondary fields such as the charge rate is kept.
func readable(bats []*battery.Battery, errs battery.Errors) []reading {
	out := make([]reading, 0, len(bats))
	for i, bat := range bats {
		if bat == nil {
			continue
		}

		var err error
		if i < len(errs) {
			err = errs[i]
		}

		r := reading{bat: bat, rateKnown: true}
		switch e := err.(type) {
		case nil:
		case battery.ErrPartial:
			if !essentialRead(e) {
				continue
			}
			r.rateKnown = e.ChargeRate == nil
		case *battery.ErrPartial:
			if e == nil {
				break
			}
			if !essentialRead(*e) {
				continue
			}
			r.rateKnown = e.ChargeRate == nil
		default:
			continue
		}

		out = append(out, r)
	}

	return out
}

func essentialRead(e battery.ErrPartial) bool {
	return e.State == nil && e.Current == nil && e.Full == nil
}

func combine(readings []reading) PowerState {
	var current, full, rate float64
	discharging, charging, idle, allFull := false, false, false, true
	rateKnown := true

	for _, r := range readings {
		bat := r.bat
		current += bat.Current
		full += bat.Full
		switch bat.State.Raw {
		case battery.Discharging, battery.Empty:
			discharging = true
			rate += bat.ChargeRate
			rateKnown = rateKnown && r.rateKnown
			allFull = false
		case battery.Charging:
			charging = true
			allFull = false
		case battery.Idle:
			idle = true
			allFull = false
		case battery.Full:
		default:
			allFull = false
		}
	}

	state := PowerState{
		PowerPlugged: !discharging,
		Charging:     charging,
		Idle:         idle && !charging && !discharging,
		Full:         allFull,
		SecsLeft:     -1,
	}
	if full > 0 {
		state.Percent = current * 100 / full
	}
	if discharging && rateKnown && rate > 0 {
		state.SecsLeft = current / rate * secondsPerHour
	}

	return state
}
