package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizkit/internal/domain"
)

func newTestProgress(t *testing.T, cfg ProgressConfig) *Progress {
	t.Helper()
	p, err := NewProgress(cfg)
	require.NoError(t, err)
	return p
}

func TestNewProgressValidation(t *testing.T) {
	_, err := NewProgress(ProgressConfig{Mode: domain.IndicatorMode(9)})
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mode", verr.Field)

	_, err = NewProgress(ProgressConfig{Mode: domain.ModePercentage, MaxProgress: -5})
	require.Error(t, err)

	_, err = NewProgress(ProgressConfig{Mode: domain.ModeTimer, Timeout: -time.Second})
	require.Error(t, err)

	// Zero-valued fields are not rejected; they select the defaults.
	p := newTestProgress(t, ProgressConfig{Mode: domain.ModePercentage})
	assert.Equal(t, DefaultMaxProgress, p.MaxProgress())
	assert.Equal(t, DefaultTimeout, p.Timeout())
}

func TestProgressPercentageAngle(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		max      int
		want     float64
	}{
		{name: "zero", progress: 0, max: 100, want: 0},
		{name: "half", progress: 50, max: 100, want: 180},
		{name: "quarter of large range", progress: 750, max: 3000, want: 90},
		{name: "complete", progress: 100, max: 100, want: 360},
		{name: "over max clamps", progress: 150, max: 100, want: 360},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProgress(t, ProgressConfig{
				Mode:        domain.ModePercentage,
				MaxProgress: tt.max,
			})
			p.SetProgress(tt.progress)

			frame := p.Advance(time.Now())
			assert.InDelta(t, tt.want, frame.Angle, 1e-9)
			assert.LessOrEqual(t, p.Progress(), tt.max)
		})
	}
}

func TestProgressSetProgressIgnoredInTimerMode(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: 5 * time.Second,
	})

	before := p.Progress()
	changed := p.SetProgress(42)
	assert.False(t, changed)
	assert.Equal(t, before, p.Progress())
}

func TestProgressTimerCountdown(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := newTestProgress(t, ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: time.Second,
	})

	p.StartTimer(base)

	frame := p.Advance(base)
	assert.InDelta(t, 0, frame.Angle, 1e-9)
	assert.True(t, frame.Animating)
	assert.False(t, frame.Expired)

	frame = p.Advance(base.Add(500 * time.Millisecond))
	assert.InDelta(t, 180, frame.Angle, 1e-9)
	assert.Equal(t, 500, p.Progress(), "progress holds remaining milliseconds")

	frame = p.Advance(base.Add(time.Second))
	assert.InDelta(t, 360, frame.Angle, 1e-9)
	assert.True(t, frame.Expired, "expiry fires on the tick that reaches the timeout")
	assert.False(t, p.TimerStarted())
	assert.Equal(t, 1000, p.Progress(), "expiry restores the full remaining time")

	// The expiry is one-shot: later ticks must not fire again.
	frame = p.Advance(base.Add(2 * time.Second))
	assert.False(t, frame.Expired)
}

func TestProgressTimerNeverStartedHoldsZeroAngle(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := newTestProgress(t, ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: time.Second,
	})

	// Without a start the ring must not fill, no matter how late the
	// ticks arrive.
	for _, at := range []time.Duration{0, 500 * time.Millisecond, 3 * time.Second} {
		frame := p.Advance(base.Add(at))
		assert.InDelta(t, 0, frame.Angle, 1e-9, "at +%v", at)
		assert.False(t, frame.Animating)
		assert.False(t, frame.Expired)
	}
	assert.Equal(t, 1000, p.Progress())
}

func TestProgressTimerStopFreezesAndResumesRemaining(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := newTestProgress(t, ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: time.Second,
	})

	// Stopping immediately after starting keeps the ring empty.
	p.StartTimer(base)
	p.StopTimer(base)
	frame := p.Advance(base.Add(400 * time.Millisecond))
	assert.InDelta(t, 0, frame.Angle, 1e-9)
	assert.Equal(t, 1000, p.Progress())

	// Run for 250ms, then stop: angle and remaining time hold still,
	// even once wall-clock time passes the timeout, and no expiry fires.
	p.StartTimer(base)
	p.Advance(base.Add(250 * time.Millisecond))
	p.StopTimer(base.Add(250 * time.Millisecond))

	frame = p.Advance(base.Add(1500 * time.Millisecond))
	assert.InDelta(t, 90, frame.Angle, 1e-9, "stopped ring keeps its sweep")
	assert.Equal(t, 750, p.Progress())
	assert.False(t, frame.Animating)
	assert.False(t, frame.Expired)

	// Restarting resumes from the frozen 750ms of remaining time.
	restart := base.Add(2 * time.Second)
	p.StartTimer(restart)
	frame = p.Advance(restart.Add(250 * time.Millisecond))
	assert.InDelta(t, 180, frame.Angle, 1e-9)
	assert.Equal(t, 500, p.Progress())

	frame = p.Advance(restart.Add(750 * time.Millisecond))
	assert.InDelta(t, 360, frame.Angle, 1e-9)
	assert.True(t, frame.Expired)
}

func TestProgressResetTimer(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := newTestProgress(t, ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: 2 * time.Second,
	})

	p.StartTimer(base)
	p.Advance(base.Add(time.Second))
	require.Equal(t, 1000, p.Progress())

	p.ResetTimer()
	assert.False(t, p.TimerStarted())
	assert.Equal(t, 2000, p.Progress())

	// After a reset the countdown starts over from the next epoch.
	restart := base.Add(10 * time.Second)
	p.StartTimer(restart)
	frame := p.Advance(restart)
	assert.InDelta(t, 0, frame.Angle, 1e-9)
}

func TestProgressGlyphForcesFullSweep(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
	})
	p.SetProgress(25)

	p.ShowSuccess()
	frame := p.Advance(time.Now())
	assert.InDelta(t, 360, frame.Angle, 1e-9)
	assert.Equal(t, domain.GlyphSuccess, frame.Glyph)

	p.ShowFailure()
	frame = p.Advance(time.Now())
	assert.Equal(t, domain.GlyphFailure, frame.Glyph)

	p.ClearGlyph()
	frame = p.Advance(time.Now())
	assert.Equal(t, domain.GlyphNone, frame.Glyph)
	assert.InDelta(t, 90, frame.Angle, 1e-9)
}

func TestProgressSmoothAnimationStepsTowardTarget(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
		Smooth:      true,
		TickDegrees: 10,
	})
	p.SetProgress(10) // target 36 degrees

	now := time.Now()
	angles := make([]float64, 0, 6)
	for i := 0; i < 6; i++ {
		frame := p.Advance(now)
		angles = append(angles, frame.Angle)
	}

	// The drawn angle trails the step: the frame shows the pre-step
	// value, then the sweep advances for the next frame.
	assert.Equal(t, []float64{0, 10, 20, 30, 36, 36}, angles)

	frame := p.Advance(now)
	assert.False(t, frame.Animating)
}

func TestProgressSmoothNeverOvershootsLoweredTarget(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
		Smooth:      true,
		TickDegrees: 30,
	})
	p.SetProgress(50) // target 180

	now := time.Now()
	for i := 0; i < 3; i++ {
		p.Advance(now)
	}

	// Lowering the target snaps the sweep straight down.
	p.SetProgress(10) // target 36
	frame := p.Advance(now)
	assert.InDelta(t, 36, frame.Angle, 1e-9)
}

func TestProgressSecondaryAngle(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModeFixed,
		MaxProgress: 100,
	})

	p.SetSecondaryProgress(25)
	frame := p.Advance(time.Now())
	assert.InDelta(t, 90, frame.SecondaryAngle, 1e-9)

	p.SetSecondaryProgress(400)
	assert.Equal(t, 100, p.SecondaryProgress(), "secondary clamps to 100")
	frame = p.Advance(time.Now())
	assert.InDelta(t, 360, frame.SecondaryAngle, 1e-9)
}

func TestProgressText(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		p := newTestProgress(t, ProgressConfig{
			Mode:        domain.ModePercentage,
			MaxProgress: 200,
			ShowText:    true,
		})
		p.SetProgress(50)
		frame := p.Advance(time.Now())
		assert.Equal(t, "25%", frame.Text)
	})

	t.Run("timer rounds remaining up to whole seconds", func(t *testing.T) {
		base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
		p := newTestProgress(t, ProgressConfig{
			Mode:     domain.ModeTimer,
			Timeout:  3 * time.Second,
			ShowText: true,
		})
		p.StartTimer(base)

		frame := p.Advance(base.Add(500 * time.Millisecond))
		assert.Equal(t, "3s", frame.Text)

		frame = p.Advance(base.Add(2500 * time.Millisecond))
		assert.Equal(t, "1s", frame.Text)
	})

	t.Run("fixed shows grouped raw value", func(t *testing.T) {
		p := newTestProgress(t, ProgressConfig{
			Mode:        domain.ModeFixed,
			MaxProgress: 5000,
			ShowText:    true,
		})
		p.SetProgress(1234)
		frame := p.Advance(time.Now())
		assert.Equal(t, "1,234", frame.Text)
	})

	t.Run("fixed shows secondary percent once started", func(t *testing.T) {
		p := newTestProgress(t, ProgressConfig{
			Mode:        domain.ModeFixed,
			MaxProgress: 5000,
			ShowText:    true,
		})
		p.SetProgress(1234)
		p.SetSecondaryProgress(40)
		p.StartSecondaryProgress()
		frame := p.Advance(time.Now())
		assert.Equal(t, "40%", frame.Text)
	})

	t.Run("hidden text yields empty string", func(t *testing.T) {
		p := newTestProgress(t, ProgressConfig{
			Mode:        domain.ModePercentage,
			MaxProgress: 100,
		})
		p.SetProgress(50)
		frame := p.Advance(time.Now())
		assert.Empty(t, frame.Text)
	})
}

func TestProgressSetters(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
	})

	require.Error(t, p.SetMaxProgress(0))
	require.Error(t, p.SetTimeout(0))
	require.Error(t, p.SetTickDegrees(-1))

	p.SetProgress(80)
	require.NoError(t, p.SetMaxProgress(50))
	assert.Equal(t, 50, p.Progress(), "progress re-clamps when max shrinks")
}

func TestProgressSetMode(t *testing.T) {
	p := newTestProgress(t, ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
		Timeout:     2 * time.Second,
	})
	p.SetProgress(60)

	require.Error(t, p.SetMode(domain.IndicatorMode(9)))
	assert.Equal(t, domain.ModePercentage, p.Mode())

	// Switching to timer mode discards the percentage value and primes
	// the full remaining time.
	require.NoError(t, p.SetMode(domain.ModeTimer))
	assert.Equal(t, 2000, p.Progress())
	assert.False(t, p.TimerStarted())

	// A running countdown does not survive a mode switch.
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	p.StartTimer(base)
	require.NoError(t, p.SetMode(domain.ModeFixed))
	assert.False(t, p.TimerStarted())

	// Switching back starts a fresh countdown, not a resumed one.
	require.NoError(t, p.SetMode(domain.ModeTimer))
	p.StartTimer(base.Add(time.Hour))
	frame := p.Advance(base.Add(time.Hour))
	assert.Equal(t, 0.0, frame.Angle)
	assert.False(t, frame.Expired)
}
