package engine

import (
	"time"

	"vizkit/internal/domain"
)

// Timing constants for the bar animator.
const (
	// barTravelDuration is how long a bar takes to travel from its
	// current amplitude to a new target.
	barTravelDuration = 100 * time.Millisecond

	// BarTickInterval is the cadence at which Tick is expected to be
	// called, nominally 50 ticks per second.
	BarTickInterval = 20 * time.Millisecond

	// peakHoldDelay is how long a raised peak marker holds before it
	// starts decaying.
	peakHoldDelay = 250 * time.Millisecond

	// peakDecayRate scales the decay distance per millisecond past the
	// hold deadline. Because the deadline does not advance during decay,
	// the fall accelerates the longer it lasts.
	peakDecayRate = 0.025

	// peakLagDivisor positions a new peak between the current amplitude
	// and the target, lagging the jump instead of pinning to the target.
	peakLagDivisor = 2.75
)

// direction tracks which way a bar is traveling.
type direction int

const (
	directionNone direction = iota
	directionUp
	directionDown
)

// BarConfig configures a single bar animator.
type BarConfig struct {
	// Variant selects the drawing style and the amplitude floor: rounded
	// bars never shrink below half their stroke width so the cap stays
	// visible, flat bars floor at zero.
	Variant domain.BarVariant

	// StrokeWidth is the bar thickness in pixels.
	StrokeWidth int

	// ShowPeak enables the peak-hold marker. Flat variant only.
	ShowPeak bool

	// PeakSpace is the minimum gap in pixels kept between the bar top
	// and the peak marker.
	PeakSpace int
}

// Bar animates a single visualizer bucket: the displayed amplitude
// travels toward the most recent target at a velocity derived from the
// travel duration, never overshooting, while an optional peak marker
// rides above recent maxima and decays after a hold delay.
type Bar struct {
	cfg BarConfig

	current  int
	target   int
	velocity int
	dir      direction

	peak         int
	peakDeadline time.Time
}

// NewBar creates a bar animator resting at the variant's amplitude floor.
func NewBar(cfg BarConfig) *Bar {
	b := &Bar{cfg: cfg}
	b.current = b.floor()
	b.target = b.current
	return b
}

// floor is the minimum drawable amplitude for the variant.
func (b *Bar) floor() int {
	if b.cfg.Variant == domain.BarRounded {
		return b.cfg.StrokeWidth / 2
	}
	return 0
}

// Amplitude returns the currently displayed amplitude in pixels.
func (b *Bar) Amplitude() int { return b.current }

// Target returns the amplitude the bar is traveling toward.
func (b *Bar) Target() int { return b.target }

// Peak returns the current peak marker position in pixels.
func (b *Bar) Peak() int { return b.peak }

// SetTarget points the bar at a new amplitude. The amplitude is floored
// to the variant minimum, the travel velocity is recomputed, and the
// peak marker is raised when the new sample demands it. A target equal
// to the current amplitude is ignored and leaves the travel state
// untouched.
func (b *Bar) SetTarget(amplitude int, now time.Time) {
	if amplitude < b.floor() {
		amplitude = b.floor()
	}

	if b.cfg.ShowPeak && b.cfg.Variant == domain.BarFlat {
		b.raisePeak(amplitude, now)
	}

	switch {
	case amplitude == b.current:
		b.dir = directionNone
		return
	case amplitude > b.current:
		b.dir = directionUp
	default:
		b.dir = directionDown
	}

	b.target = amplitude
	b.velocity = int(int64(amplitude-b.current) * int64(BarTickInterval) / int64(barTravelDuration))

	// A velocity of zero would stall the travel; always make at least
	// one pixel of progress per tick.
	if b.velocity == 0 {
		if b.dir == directionUp {
			b.velocity = 1
		} else {
			b.velocity = -1
		}
	}
}

// raisePeak lifts the peak marker toward a new target. The marker lags
// the jump and is only ever raised here; it comes down via decay.
func (b *Bar) raisePeak(target int, now time.Time) {
	next := int(float64(target) - float64(target-b.current)/peakLagDivisor)
	if next > b.peak {
		b.peak = next
		b.peakDeadline = now.Add(peakHoldDelay)
	}
}

// Tick advances the bar by one animation step and returns the sample to
// draw. The amplitude moves by the stored velocity but never crosses
// the target; the peak marker is lifted along with a rising bar and,
// once the hold deadline passes, decays down to the bar top plus the
// configured gap.
func (b *Bar) Tick(now time.Time) domain.BarSample {
	switch b.dir {
	case directionUp:
		b.current += b.velocity
		if b.current >= b.target {
			b.current = b.target
			b.dir = directionNone
			b.velocity = 0
		}
	case directionDown:
		b.current += b.velocity
		if b.current <= b.target {
			b.current = b.target
			b.dir = directionNone
			b.velocity = 0
		}
	}

	if b.cfg.ShowPeak {
		b.decayPeak(now)
	}

	return domain.BarSample{Amplitude: b.current, Peak: b.peak}
}

// decayPeak keeps an established marker at least PeakSpace above the
// current amplitude and lowers it once its hold deadline has passed.
func (b *Bar) decayPeak(now time.Time) {
	peakFloor := b.current + b.cfg.PeakSpace
	if b.peak < peakFloor {
		// A rising bar has overtaken its lagged marker; the marker rides
		// on top of the bar and its hold starts over.
		if b.peak > 0 {
			b.peak = peakFloor
			b.peakDeadline = now.Add(peakHoldDelay)
		}
		return
	}
	if b.peak == peakFloor {
		return
	}
	if now.Before(b.peakDeadline) {
		return
	}
	delta := int(float64(now.Sub(b.peakDeadline).Milliseconds()) * peakDecayRate)
	b.peak -= delta
	if b.peak < peakFloor {
		b.peak = peakFloor
	}
}

// Settled reports whether the bar needs no further ticks: the amplitude
// has reached its target and the peak marker is resting on its floor.
func (b *Bar) Settled() bool {
	if b.dir != directionNone {
		return false
	}
	if b.cfg.ShowPeak && b.peak > b.current+b.cfg.PeakSpace {
		return false
	}
	return true
}

// Reset drops the bar back to its amplitude floor and clears the peak.
func (b *Bar) Reset() {
	b.current = b.floor()
	b.target = b.current
	b.velocity = 0
	b.dir = directionNone
	b.peak = 0
	b.peakDeadline = time.Time{}
}
