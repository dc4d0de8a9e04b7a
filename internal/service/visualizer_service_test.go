package service

import (
	"math"
	"sync"
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

// fakeSource is a spectrum source under test control.
type fakeSource struct {
	mu      sync.Mutex
	emit    ports.SpectrumFrameFunc
	started bool
	stopped bool
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Start(emit ports.SpectrumFrameFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return domain.ErrSourceRunning
	}
	f.started = true
	f.emit = emit
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return domain.ErrSourceStopped
	}
	f.started = false
	f.stopped = true
	return nil
}

func (f *fakeSource) Info() domain.TrackInfo {
	return domain.TrackInfo{Title: "Test Tone", Artist: "Generator"}
}

// spectrumFrame builds an FFT buffer with the given real values at the
// default stride.
func spectrumFrame(reals ...int8) []byte {
	buf := make([]byte, 2+2*len(reals))
	for i, r := range reals {
		buf[2+2*i] = byte(r)
	}
	return buf
}

// pixelAmplitude mirrors the mapper's decibel scaling for one bucket.
func pixelAmplitude(re, viewHeight float64) int {
	db := 10 * math.Log10(re*re)
	return int(db * viewHeight / (10 * math.Log10(256*256+256*256)))
}

// Helper to create a test visualizer service
func newTestVisualizerService(t *testing.T, cfg VisualizerConfig) (*VisualizerService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())

	service, err := NewVisualizerService(logger.NewTestLogger(), bus, ports.SystemClock{}, cfg, nil)
	require.NoError(t, err)

	return service, bus
}

func TestVisualizerService_RejectsInvalidConfig(t *testing.T) {
	bus := eventbus.NewSyncEventBus(nil)

	_, err := NewVisualizerService(logger.NewTestLogger(), bus, ports.SystemClock{}, VisualizerConfig{}, nil)
	require.Error(t, err, "zero buckets")

	_, err = NewVisualizerService(logger.NewTestLogger(), bus, ports.SystemClock{}, VisualizerConfig{
		Buckets:      4,
		BucketStride: 3,
	}, nil)
	require.Error(t, err, "odd stride")

	_, err = NewVisualizerService(logger.NewTestLogger(), bus, ports.SystemClock{}, VisualizerConfig{
		Buckets:         4,
		SmoothingFactor: 1.5,
	}, nil)
	require.Error(t, err, "smoothing out of range")
}

func TestVisualizerService_ConsumeAnimatesBarsToTarget(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestVisualizerService(t, VisualizerConfig{
		Buckets:    2,
		Bar:        engine.BarConfig{Variant: domain.BarFlat},
		ViewHeight: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	service.Consume(spectrumFrame(100, 0))

	want := pixelAmplitude(100, 100)
	require.Eventually(t, func() bool {
		frame := service.CurrentFrame()
		return len(frame.Bars) == 2 && frame.Bars[0].Amplitude == want
	}, 2*time.Second, 10*time.Millisecond)

	assert.Zero(t, service.CurrentFrame().Bars[1].Amplitude)
}

func TestVisualizerService_ShortFrameIsDropped(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestVisualizerService(t, VisualizerConfig{
		Buckets:    4,
		Bar:        engine.BarConfig{Variant: domain.BarFlat},
		ViewHeight: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	service.Consume([]byte{0, 0})
	service.Consume(nil)

	time.Sleep(100 * time.Millisecond)
	for _, bar := range service.CurrentFrame().Bars {
		assert.Zero(t, bar.Amplitude)
	}
}

func TestVisualizerService_SourceLifecycle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, bus := newTestVisualizerService(t, VisualizerConfig{
		Buckets:    2,
		Bar:        engine.BarConfig{Variant: domain.BarFlat},
		ViewHeight: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	events := make(chan domain.EventType, 8)
	bus.SubscribeAll(func(e domain.Event) {
		events <- e.Type()
	})

	src := &fakeSource{}
	require.NoError(t, service.UseSource(src))
	assert.True(t, src.started)

	assert.Equal(t, domain.EventSourceStarted, <-events)
	assert.Equal(t, domain.EventTrackInfo, <-events, "sources that know their material publish it")

	// Frames flow from the source callback into the bars.
	src.emit(spectrumFrame(100, 100))
	require.Eventually(t, func() bool {
		return service.CurrentFrame().Bars[0].Amplitude > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, service.StopSource())
	assert.True(t, src.stopped)
	assert.Equal(t, domain.EventSourceStopped, <-events)

	// Without a source the bars fall back to silence.
	require.Eventually(t, func() bool {
		frame := service.CurrentFrame()
		return frame.Bars[0].Amplitude == 0 && !frame.Animating
	}, 2*time.Second, 10*time.Millisecond)

	// Stopping again reports that nothing is running.
	assert.ErrorIs(t, service.StopSource(), domain.ErrSourceStopped)
}

func TestVisualizerService_UseSourceReplacesPrevious(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestVisualizerService(t, VisualizerConfig{
		Buckets:    2,
		Bar:        engine.BarConfig{Variant: domain.BarFlat},
		ViewHeight: 100,
	})
	defer func() { require.NoError(t, service.Shutdown()) }()

	first := &fakeSource{}
	second := &fakeSource{}

	require.NoError(t, service.UseSource(first))
	require.NoError(t, service.UseSource(second))

	assert.True(t, first.stopped, "previous source is stopped on replacement")
	assert.True(t, second.started)
}

func TestVisualizerService_ShutdownStopsSource(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestVisualizerService(t, VisualizerConfig{
		Buckets:    2,
		Bar:        engine.BarConfig{Variant: domain.BarFlat},
		ViewHeight: 100,
	})

	src := &fakeSource{}
	require.NoError(t, service.UseSource(src))

	require.NoError(t, service.Shutdown())
	assert.True(t, src.stopped)
}
