package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizkit/internal/adapter/eventbus"
	"vizkit/internal/domain"
	"vizkit/internal/engine"
	"vizkit/internal/logger"
	"vizkit/internal/ports"
	"vizkit/internal/testutil"
)

// Helper to create a test indicator service
func newTestIndicatorService(t *testing.T, cfg engine.ProgressConfig) (*IndicatorService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())

	service, err := NewIndicatorService(logger.NewTestLogger(), bus, ports.SystemClock{}, cfg, nil)
	require.NoError(t, err)

	return service, bus
}

func TestIndicatorService_RejectsInvalidConfig(t *testing.T) {
	bus := eventbus.NewSyncEventBus(nil)
	_, err := NewIndicatorService(logger.NewTestLogger(), bus, ports.SystemClock{}, engine.ProgressConfig{
		Mode: domain.IndicatorMode(42),
	}, nil)
	require.Error(t, err)
}

func TestIndicatorService_SetProgressPublishesEvent(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, bus := newTestIndicatorService(t, engine.ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	events := make(chan domain.ProgressChangedEvent, 4)
	bus.Subscribe(domain.EventProgressChanged, func(e domain.Event) {
		events <- e.(domain.ProgressChangedEvent)
	})

	service.SetProgress(150)

	select {
	case ev := <-events:
		assert.Equal(t, 100, ev.Progress, "progress clamps to max before publishing")
		assert.Equal(t, 100, ev.MaxProgress)
	case <-time.After(time.Second):
		t.Fatal("no progress event published")
	}

	// Re-setting the same value publishes nothing.
	service.SetProgress(100)
	select {
	case <-events:
		t.Fatal("unchanged progress must not publish")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIndicatorService_DeliversFramesOnChange(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestIndicatorService(t, engine.ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	frames := make(chan domain.IndicatorFrame, 64)
	service.OnFrame(func(frame domain.IndicatorFrame) {
		select {
		case frames <- frame:
		default:
		}
	})

	service.SetProgress(50)

	require.Eventually(t, func() bool {
		return service.CurrentFrame().Angle == 180
	}, 2*time.Second, 10*time.Millisecond)

	// The callback saw the same state the service reports.
	var sawTarget bool
	for len(frames) > 0 {
		if (<-frames).Angle == 180 {
			sawTarget = true
		}
	}
	assert.True(t, sawTarget)
}

func TestIndicatorService_TimerExpiresExactlyOnce(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, bus := newTestIndicatorService(t, engine.ProgressConfig{
		Mode:    domain.ModeTimer,
		Timeout: 100 * time.Millisecond,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	var expired int32
	bus.Subscribe(domain.EventTimerExpired, func(e domain.Event) {
		atomic.AddInt32(&expired, 1)
	})

	service.StartTimer()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&expired) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give the ticker room to misbehave; the expiry must stay one-shot.
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&expired))
	assert.InDelta(t, 360, service.CurrentFrame().Angle, 1e-9)
}

func TestIndicatorService_GlyphEvents(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, bus := newTestIndicatorService(t, engine.ProgressConfig{
		Mode:        domain.ModeFixed,
		MaxProgress: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	glyphs := make(chan domain.Glyph, 4)
	bus.Subscribe(domain.EventGlyphShown, func(e domain.Event) {
		glyphs <- e.(domain.GlyphShownEvent).Glyph
	})

	service.ShowSuccess()
	service.ShowFailure()
	service.ClearGlyph()

	assert.Equal(t, domain.GlyphSuccess, <-glyphs)
	assert.Equal(t, domain.GlyphFailure, <-glyphs)
	assert.Equal(t, domain.GlyphNone, <-glyphs)

	require.Eventually(t, func() bool {
		return service.CurrentFrame().Glyph == domain.GlyphNone
	}, time.Second, 10*time.Millisecond)
}

func TestIndicatorService_ShutdownStopsTicking(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestIndicatorService(t, engine.ProgressConfig{
		Mode:        domain.ModePercentage,
		MaxProgress: 100,
	})

	require.NoError(t, service.Shutdown())

	// A second shutdown is harmless.
	require.NoError(t, service.Shutdown())
}
