package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"vizkit/internal/domain"
	"vizkit/internal/engine"
	"vizkit/internal/ports"
)

// BarFrameFunc receives each newly computed visualizer frame. It is
// called from the service's tick goroutine; the frame is a copy the
// receiver may keep.
type BarFrameFunc func(frame domain.BarFrame)

// trackInfoSource is implemented by sources that know what material
// they are playing.
type trackInfoSource interface {
	Info() domain.TrackInfo
}

// VisualizerConfig configures a visualizer service.
type VisualizerConfig struct {
	// Buckets is the number of bars.
	Buckets int

	// Bar configures every bar animator.
	Bar engine.BarConfig

	// BucketStride and SmoothingFactor configure the spectrum mapper;
	// zero values keep the mapper defaults.
	BucketStride    int
	SmoothingFactor float64

	// ViewHeight is the initial drawable height in pixels. The widget
	// updates it via SetViewHeight once laid out.
	ViewHeight int
}

// VisualizerService drives one bar-chart visualizer. FFT frames arriving
// from a spectrum source are mapped to per-bucket target amplitudes, and
// a fixed-cadence tick routine animates every bar toward its target and
// pushes the combined frame to the registered callback.
type VisualizerService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus
	clock  ports.Clock

	// State
	mapper       *engine.Mapper
	bars         []*engine.Bar
	viewHeight   int
	source       ports.SpectrumSource
	frameFn      BarFrameFunc
	lastFrame    domain.BarFrame
	wasAnimating bool

	// Concurrency control
	mu          sync.RWMutex
	stopTick    chan struct{}
	tickRunning bool
	tickWg      sync.WaitGroup
}

// NewVisualizerService creates a visualizer service and starts its tick
// routine.
func NewVisualizerService(
	logger *slog.Logger,
	bus ports.EventBus,
	clock ports.Clock,
	cfg VisualizerConfig,
	frameFn BarFrameFunc,
) (*VisualizerService, error) {
	if cfg.Buckets <= 0 {
		return nil, domain.NewValidationError("buckets", cfg.Buckets, "bucket count must be positive")
	}

	mapper := engine.NewMapper()
	if cfg.BucketStride != 0 {
		if err := mapper.SetBucketStride(cfg.BucketStride); err != nil {
			return nil, err
		}
	}
	if cfg.SmoothingFactor != 0 {
		if err := mapper.SetSmoothingFactor(cfg.SmoothingFactor); err != nil {
			return nil, err
		}
	}

	bars := make([]*engine.Bar, cfg.Buckets)
	for i := range bars {
		bars[i] = engine.NewBar(cfg.Bar)
	}

	s := &VisualizerService{
		logger:     logger,
		bus:        bus,
		clock:      clock,
		mapper:     mapper,
		bars:       bars,
		viewHeight: cfg.ViewHeight,
		frameFn:    frameFn,
		stopTick:   make(chan struct{}),
	}

	logger.Debug("visualizer service initialized",
		slog.Int("buckets", cfg.Buckets),
		slog.String("variant", cfg.Bar.Variant.String()))

	s.startTickRoutine()

	return s, nil
}

// OnFrame registers the frame callback, replacing any previous one.
func (s *VisualizerService) OnFrame(fn BarFrameFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameFn = fn
	s.wasAnimating = true // force one delivery
}

// SetViewHeight updates the drawable height used to scale amplitudes.
// The widget calls this whenever its layout changes.
func (s *VisualizerService) SetViewHeight(height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewHeight = height
}

// Buckets returns the number of bars.
func (s *VisualizerService) Buckets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}

// Consume maps one FFT frame onto the bar targets. Glitched frames that
// are too short for the configured buckets are dropped silently.
// Consume is safe to call from a source's capture goroutine.
func (s *VisualizerService) Consume(fft []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amps, ok := s.mapper.MapAmplitudes(fft, len(s.bars), s.viewHeight)
	if !ok {
		return
	}

	now := s.clock.Now()
	for i, bar := range s.bars {
		bar.SetTarget(amps[i], now)
	}
}

// UseSource starts delivering frames from the given spectrum source,
// stopping any previous source first.
func (s *VisualizerService) UseSource(src ports.SpectrumSource) error {
	s.mu.Lock()
	prev := s.source
	s.mu.Unlock()

	if prev != nil {
		if err := s.StopSource(); err != nil {
			s.logger.Warn("failed to stop previous source", slog.Any("error", err))
		}
	}

	if err := src.Start(s.Consume); err != nil {
		return err
	}

	s.mu.Lock()
	s.source = src
	s.mu.Unlock()

	s.logger.Info("spectrum source started", slog.String("source", src.Name()))
	s.bus.Publish(domain.NewSourceStartedEvent(src.Name()))

	if ti, ok := src.(trackInfoSource); ok {
		s.bus.Publish(domain.NewTrackInfoEvent(ti.Info()))
	}
	return nil
}

// StopSource stops the active spectrum source and lets the bars fall
// back to silence. It returns domain.ErrSourceStopped when no source is
// active.
func (s *VisualizerService) StopSource() error {
	s.mu.Lock()
	src := s.source
	s.source = nil
	s.mu.Unlock()

	if src == nil {
		return domain.ErrSourceStopped
	}

	err := src.Stop()

	s.mu.Lock()
	now := s.clock.Now()
	for _, bar := range s.bars {
		bar.SetTarget(0, now)
	}
	s.mapper.Reset()
	s.mu.Unlock()

	s.logger.Info("spectrum source stopped", slog.String("source", src.Name()))
	s.bus.Publish(domain.NewSourceStoppedEvent(src.Name()))
	return err
}

// CurrentFrame returns a copy of the most recently computed frame.
func (s *VisualizerService) CurrentFrame() domain.BarFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFrame.Clone()
}

// Shutdown stops the tick routine and any active source. The service
// must not be used after shutdown.
func (s *VisualizerService) Shutdown() error {
	err := s.StopSource()
	if errors.Is(err, domain.ErrSourceStopped) {
		err = nil
	}

	s.mu.Lock()
	if s.tickRunning {
		close(s.stopTick)
		s.tickRunning = false
	}
	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.tickWg.Wait()

	s.logger.Debug("visualizer service shut down")
	return err
}

// startTickRoutine starts the goroutine that animates the bars.
func (s *VisualizerService) startTickRoutine() {
	s.mu.Lock()
	if s.tickRunning {
		s.mu.Unlock()
		return
	}
	s.tickRunning = true
	s.tickWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.tickWg.Done()
		ticker := time.NewTicker(engine.BarTickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopTick:
				return

			case <-ticker.C:
				s.step()
			}
		}
	}()
}

// step ticks every bar once and delivers the frame while anything moves.
func (s *VisualizerService) step() {
	s.mu.Lock()

	now := s.clock.Now()
	frame := domain.BarFrame{Bars: make([]domain.BarSample, len(s.bars))}
	for i, bar := range s.bars {
		frame.Bars[i] = bar.Tick(now)
		if !bar.Settled() {
			frame.Animating = true
		}
	}

	// Deliver while animating, plus one final settled frame.
	deliver := s.frameFn != nil && (frame.Animating || s.wasAnimating)
	frameFn := s.frameFn
	s.lastFrame = frame
	s.wasAnimating = frame.Animating
	s.mu.Unlock()

	if deliver {
		frameFn(frame.Clone())
	}
}
