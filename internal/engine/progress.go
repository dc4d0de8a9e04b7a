// Package engine implements the animation state machines behind the
// VizKit widgets: the radial progress angle engine, the per-bucket bar
// amplitude animator and the spectrum-to-amplitude mapper. Engines are
// pure state machines driven by explicit clock values; they own no
// goroutines and are not safe for concurrent use. A single service
// goroutine owns each engine and serializes all mutations.
package engine

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vizkit/internal/domain"
)

// Angle and timing constants for the radial indicator.
const (
	// FullSweep is the angle of a complete circle in degrees.
	FullSweep = 360.0

	// DefaultMaxProgress is the upper progress bound when none is configured.
	DefaultMaxProgress = 100

	// DefaultTimeout is the countdown duration when none is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultTickDegrees is how far the smoothed sweep advances per tick.
	DefaultTickDegrees = 1.0

	// TickInterval is the cadence at which Advance is expected to be
	// called, nominally 50 ticks per second.
	TickInterval = 20 * time.Millisecond
)

// ProgressConfig configures a new progress engine. Zero values fall
// back to the documented defaults.
type ProgressConfig struct {
	Mode            domain.IndicatorMode
	MaxProgress     int
	Timeout         time.Duration
	InitialProgress int
	Smooth          bool
	TickDegrees     float64
	ShowText        bool
	Locale          language.Tag
}

// Progress converts a progress value into a sweep angle under one of
// three display modes and optionally interpolates the displayed angle
// toward the target at a fixed per-tick step.
//
// Timer mode counts elapsed time against a timeout: the stored progress
// value holds the remaining time in milliseconds and the sweep fills as
// time runs out. Percentage and Fixed modes map progress onto the sweep
// proportionally; they differ only in the formatted text.
type Progress struct {
	mode        domain.IndicatorMode
	progress    int
	secondary   int
	maxProgress int
	timeout     time.Duration

	smooth      bool
	tickDegrees float64
	showText    bool

	currentAngle          float64
	currentSecondaryAngle float64

	timerStarted     bool
	secondaryStarted bool

	// epoch is when the current run began; elapsed accumulates completed
	// runs so a stopped countdown freezes instead of draining.
	epoch   time.Time
	elapsed time.Duration

	glyph   domain.Glyph
	printer *message.Printer
}

func (c ProgressConfig) normalize() ProgressConfig {
	if c.MaxProgress == 0 {
		c.MaxProgress = DefaultMaxProgress
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.TickDegrees == 0 {
		c.TickDegrees = DefaultTickDegrees
	}
	if c.Locale == (language.Tag{}) {
		c.Locale = language.English
	}
	return c
}

// NewProgress creates a progress engine. Zero-valued config fields take
// the documented defaults; negative max progress, timeout or tick
// degrees are rejected with a validation error, as is an unsupported
// mode.
func NewProgress(cfg ProgressConfig) (*Progress, error) {
	cfg = cfg.normalize()

	if !cfg.Mode.Valid() {
		return nil, domain.NewValidationError("mode", int(cfg.Mode), domain.ErrInvalidIndicatorMode.Error())
	}
	if cfg.MaxProgress < 0 {
		return nil, domain.NewValidationError("max_progress", cfg.MaxProgress, domain.ErrInvalidMaxProgress.Error())
	}
	if cfg.Timeout < 0 {
		return nil, domain.NewValidationError("timeout", cfg.Timeout, domain.ErrInvalidTimeout.Error())
	}
	if cfg.TickDegrees < 0 {
		return nil, domain.NewValidationError("animation_tick_degrees", cfg.TickDegrees, "tick degrees must be positive")
	}

	p := &Progress{
		mode:        cfg.Mode,
		maxProgress: cfg.MaxProgress,
		timeout:     cfg.Timeout,
		smooth:      cfg.Smooth,
		tickDegrees: cfg.TickDegrees,
		showText:    cfg.ShowText,
		printer:     message.NewPrinter(cfg.Locale),
	}

	if cfg.Mode == domain.ModeTimer {
		// A countdown that has not started displays the full remaining time.
		p.progress = int(cfg.Timeout.Milliseconds())
	} else {
		p.progress = clampInt(cfg.InitialProgress, 0, cfg.MaxProgress)
	}
	return p, nil
}

// Mode returns the display mode.
func (p *Progress) Mode() domain.IndicatorMode { return p.mode }

// Progress returns the current progress value. In timer mode this is
// the remaining time in milliseconds.
func (p *Progress) Progress() int { return p.progress }

// MaxProgress returns the upper progress bound.
func (p *Progress) MaxProgress() int { return p.maxProgress }

// SecondaryProgress returns the secondary progress value in [0 .. 100].
func (p *Progress) SecondaryProgress() int { return p.secondary }

// Timeout returns the countdown duration.
func (p *Progress) Timeout() time.Duration { return p.timeout }

// TimerStarted reports whether the countdown is running.
func (p *Progress) TimerStarted() bool { return p.timerStarted }

// SetProgress updates the primary progress, clamped to
// [0 .. MaxProgress]. It is ignored in timer mode, where progress is
// derived from elapsed time. It reports whether the stored value changed.
func (p *Progress) SetProgress(progress int) bool {
	if p.mode == domain.ModeTimer {
		return false
	}
	progress = clampInt(progress, 0, p.maxProgress)
	if progress == p.progress {
		return false
	}
	p.progress = progress
	return true
}

// SetSecondaryProgress updates the secondary progress, clamped to
// [0 .. 100]. It reports whether the stored value changed.
func (p *Progress) SetSecondaryProgress(progress int) bool {
	progress = clampInt(progress, 0, 100)
	if progress == p.secondary {
		return false
	}
	p.secondary = progress
	return true
}

// SetMaxProgress updates the upper progress bound. It returns a
// validation error for non-positive values.
func (p *Progress) SetMaxProgress(maxProgress int) error {
	if maxProgress <= 0 {
		return domain.NewValidationError("max_progress", maxProgress, domain.ErrInvalidMaxProgress.Error())
	}
	p.maxProgress = maxProgress
	p.progress = clampInt(p.progress, 0, maxProgress)
	return nil
}

// SetTimeout updates the countdown duration. It returns a validation
// error for non-positive durations.
func (p *Progress) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return domain.NewValidationError("timeout", timeout, domain.ErrInvalidTimeout.Error())
	}
	p.timeout = timeout
	if p.mode == domain.ModeTimer && !p.timerStarted {
		p.progress = int(timeout.Milliseconds())
	}
	return nil
}

// SetMode switches the display mode. Switching stops any running
// countdown and re-derives the progress value for the new mode: timer
// mode starts from the full remaining time, the other modes clamp the
// current value into range. The drawn angle restarts from zero so a
// smooth indicator animates into the new state.
func (p *Progress) SetMode(mode domain.IndicatorMode) error {
	if !mode.Valid() {
		return domain.NewValidationError("mode", int(mode), domain.ErrInvalidIndicatorMode.Error())
	}
	if mode == p.mode {
		return nil
	}

	p.mode = mode
	p.timerStarted = false
	p.epoch = time.Time{}
	p.elapsed = 0
	p.currentAngle = 0
	if mode == domain.ModeTimer {
		p.progress = int(p.timeout.Milliseconds())
	} else {
		p.progress = clampInt(p.progress, 0, p.maxProgress)
	}
	return nil
}

// SetSmooth toggles smooth animation of the sweep angles.
func (p *Progress) SetSmooth(smooth bool) { p.smooth = smooth }

// SetTickDegrees sets how far the smoothed sweep advances per tick.
func (p *Progress) SetTickDegrees(degrees float64) error {
	if degrees <= 0 {
		return domain.NewValidationError("animation_tick_degrees", degrees, "tick degrees must be positive")
	}
	p.tickDegrees = degrees
	return nil
}

// ShowText enables the formatted progress text.
func (p *Progress) ShowText() { p.showText = true }

// HideText disables the formatted progress text.
func (p *Progress) HideText() { p.showText = false }

// StartTimer begins the countdown. It has no effect outside timer mode
// or when the countdown is already running. Starting clears any status
// glyph. Elapsed time accumulated before a stop is kept, so a restarted
// countdown resumes with the remaining time it froze at.
func (p *Progress) StartTimer(now time.Time) {
	if p.mode != domain.ModeTimer || p.timerStarted {
		return
	}
	p.glyph = domain.GlyphNone
	p.timerStarted = true
	p.epoch = now
}

// StopTimer halts the countdown, freezing the elapsed time. The ring
// and the remaining time hold still until the countdown is restarted
// or reset.
func (p *Progress) StopTimer(now time.Time) {
	if p.mode != domain.ModeTimer || !p.timerStarted {
		return
	}
	p.elapsed += now.Sub(p.epoch)
	p.epoch = time.Time{}
	p.timerStarted = false
}

// ResetTimer stops the countdown, clears any status glyph and restores
// the full remaining time.
func (p *Progress) ResetTimer() {
	if p.mode != domain.ModeTimer {
		return
	}
	p.timerStarted = false
	p.glyph = domain.GlyphNone
	p.progress = int(p.timeout.Milliseconds())
	p.epoch = time.Time{}
	p.elapsed = 0
	p.currentAngle = 0
}

// StartSecondaryProgress marks the secondary progress as active. In
// fixed mode this switches the text to the secondary percentage.
func (p *Progress) StartSecondaryProgress() { p.secondaryStarted = true }

// StopSecondaryProgress marks the secondary progress as inactive.
func (p *Progress) StopSecondaryProgress() { p.secondaryStarted = false }

// ShowSuccess overlays the success glyph and forces a full sweep.
func (p *Progress) ShowSuccess() { p.glyph = domain.GlyphSuccess }

// ShowFailure overlays the failure glyph and forces a full sweep.
func (p *Progress) ShowFailure() { p.glyph = domain.GlyphFailure }

// ClearGlyph removes any status glyph.
func (p *Progress) ClearGlyph() { p.glyph = domain.GlyphNone }

// Advance computes the frame to draw at the given instant and steps the
// interpolated sweep angles by one tick. The returned frame's Expired
// flag is set exactly once, on the tick where a running countdown
// reaches its timeout.
func (p *Progress) Advance(now time.Time) domain.IndicatorFrame {
	target, expired := p.targetAngle(now)
	secondaryTarget := p.secondaryAngle()

	frame := domain.IndicatorFrame{
		Glyph:   p.glyph,
		Expired: expired,
	}

	// Primary sweep. Only percentage mode interpolates: the timer sweep
	// is already time-driven and fixed mode jumps with the raw value.
	if p.smooth && p.mode == domain.ModePercentage {
		if p.currentAngle > target {
			p.currentAngle = target
		}
		frame.Angle = p.currentAngle
		if p.currentAngle < target {
			p.currentAngle = minFloat(p.currentAngle+p.tickDegrees, target)
		}
	} else {
		frame.Angle = target
		p.currentAngle = target
	}

	// Secondary sweep interpolates in every mode when smoothing is on.
	if p.smooth {
		if p.currentSecondaryAngle > secondaryTarget {
			p.currentSecondaryAngle = secondaryTarget
		}
		frame.SecondaryAngle = p.currentSecondaryAngle
		if p.currentSecondaryAngle < secondaryTarget {
			p.currentSecondaryAngle = minFloat(p.currentSecondaryAngle+p.tickDegrees, secondaryTarget)
		}
	} else {
		frame.SecondaryAngle = secondaryTarget
		p.currentSecondaryAngle = secondaryTarget
	}

	if p.showText && p.glyph == domain.GlyphNone {
		frame.Text = p.progressText(frame.Angle)
	}

	frame.Animating = p.timerStarted ||
		p.currentAngle < target ||
		p.currentSecondaryAngle < secondaryTarget
	return frame
}

// targetAngle computes the target sweep for the current state. In timer
// mode it also advances the countdown and performs the one-shot expiry.
func (p *Progress) targetAngle(now time.Time) (angle float64, expired bool) {
	if p.glyph != domain.GlyphNone {
		return FullSweep, false
	}

	switch p.mode {
	case domain.ModePercentage, domain.ModeFixed:
		if p.progress >= p.maxProgress {
			p.progress = p.maxProgress
			return FullSweep, false
		}
		return FullSweep * float64(p.progress) / float64(p.maxProgress), false

	case domain.ModeTimer:
		// Time only accrues while the countdown runs; a stopped or
		// never-started countdown holds its frozen elapsed value.
		elapsed := p.elapsed
		if p.timerStarted {
			elapsed += now.Sub(p.epoch)
		}
		if p.timerStarted && elapsed >= p.timeout {
			p.timerStarted = false
			p.progress = int(p.timeout.Milliseconds())
			p.epoch = time.Time{}
			p.elapsed = 0
			return FullSweep, true
		}
		if p.timerStarted {
			p.progress = int((p.timeout - elapsed).Milliseconds())
		}
		if elapsed >= p.timeout {
			return FullSweep, false
		}
		return FullSweep * float64(elapsed) / float64(p.timeout), false

	default:
		return 0, false
	}
}

func (p *Progress) secondaryAngle() float64 {
	return minFloat(FullSweep, FullSweep*float64(p.secondary)/100.0)
}

// progressText formats the center text for the frame being drawn.
func (p *Progress) progressText(drawnAngle float64) string {
	switch p.mode {
	case domain.ModeTimer:
		// Remaining time rounded up to whole seconds, so "1s" is shown
		// until the countdown actually expires.
		return p.printer.Sprintf("%ds", int(float64(p.progress)/1000.0+0.9))
	case domain.ModePercentage:
		if p.smooth {
			return p.printer.Sprintf("%d%%", int(drawnAngle/FullSweep*100))
		}
		return p.printer.Sprintf("%d%%", int(float64(p.progress)/float64(p.maxProgress)*100))
	case domain.ModeFixed:
		if p.secondaryStarted {
			return p.printer.Sprintf("%d%%", p.secondary)
		}
		return p.printer.Sprintf("%d", p.progress)
	default:
		return ""
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
