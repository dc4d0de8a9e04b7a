// Package service provides the tick-driven orchestration for the VizKit
// widgets. Each service owns its engine exclusively: every state
// mutation is serialized through the service mutex, and the periodic
// tick goroutine is the only producer of frames.
package service

import (
	"log/slog"
	"sync"
	"time"

	"vizkit/internal/domain"
	"vizkit/internal/engine"
	"vizkit/internal/ports"
)

// IndicatorFrameFunc receives each newly computed indicator frame.
// It is called from the service's tick goroutine; implementations that
// touch UI state must hand off to their toolkit's thread.
type IndicatorFrameFunc func(frame domain.IndicatorFrame)

// IndicatorService drives one radial progress indicator. It advances
// the progress engine at a fixed tick cadence, publishes domain events
// for state changes, and pushes frames to the registered frame callback
// whenever the drawn state changes.
type IndicatorService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus
	clock  ports.Clock

	// State
	engine    *engine.Progress
	frameFn   IndicatorFrameFunc
	lastFrame domain.IndicatorFrame
	hasFrame  bool

	// Concurrency control
	mu          sync.RWMutex
	stopTick    chan struct{}
	tickRunning bool
	tickWg      sync.WaitGroup
}

// NewIndicatorService creates an indicator service and starts its tick
// routine. The frame callback may be nil and set later via OnFrame.
func NewIndicatorService(
	logger *slog.Logger,
	bus ports.EventBus,
	clock ports.Clock,
	cfg engine.ProgressConfig,
	frameFn IndicatorFrameFunc,
) (*IndicatorService, error) {
	eng, err := engine.NewProgress(cfg)
	if err != nil {
		return nil, err
	}

	s := &IndicatorService{
		logger:   logger,
		bus:      bus,
		clock:    clock,
		engine:   eng,
		frameFn:  frameFn,
		stopTick: make(chan struct{}),
	}

	logger.Debug("indicator service initialized",
		slog.String("mode", cfg.Mode.String()))

	s.startTickRoutine()

	return s, nil
}

// OnFrame registers the frame callback, replacing any previous one.
func (s *IndicatorService) OnFrame(fn IndicatorFrameFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameFn = fn
	// Force a fresh delivery so a late subscriber gets the current state.
	s.hasFrame = false
}

// SetProgress updates the primary progress value. It is clamped to the
// configured range and ignored in timer mode.
func (s *IndicatorService) SetProgress(progress int) {
	s.mu.Lock()
	changed := s.engine.SetProgress(progress)
	current := s.engine.Progress()
	maxProgress := s.engine.MaxProgress()
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewProgressChangedEvent(current, maxProgress))
	}
}

// SetSecondaryProgress updates the secondary progress value, clamped to
// [0 .. 100].
func (s *IndicatorService) SetSecondaryProgress(progress int) {
	s.mu.Lock()
	changed := s.engine.SetSecondaryProgress(progress)
	current := s.engine.SecondaryProgress()
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewSecondaryProgressChangedEvent(current))
	}
}

// Mode returns the current display mode.
func (s *IndicatorService) Mode() domain.IndicatorMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Mode()
}

// Progress returns the current progress value.
func (s *IndicatorService) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Progress()
}

// SecondaryProgress returns the current secondary progress value.
func (s *IndicatorService) SecondaryProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.SecondaryProgress()
}

// SetMode switches the indicator display mode.
func (s *IndicatorService) SetMode(mode domain.IndicatorMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetMode(mode); err != nil {
		return err
	}
	s.logger.Debug("mode changed", slog.String("mode", mode.String()))
	return nil
}

// SetMaxProgress updates the upper progress bound.
func (s *IndicatorService) SetMaxProgress(maxProgress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetMaxProgress(maxProgress)
}

// SetTimeout updates the countdown duration.
func (s *IndicatorService) SetTimeout(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetTimeout(timeout)
}

// StartTimer begins the countdown in timer mode.
func (s *IndicatorService) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StartTimer(s.clock.Now())
	s.logger.Debug("timer started", slog.Duration("timeout", s.engine.Timeout()))
}

// StopTimer halts the countdown, freezing the remaining time.
func (s *IndicatorService) StopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StopTimer(s.clock.Now())
}

// ResetTimer stops the countdown and restores the full remaining time.
func (s *IndicatorService) ResetTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ResetTimer()
}

// StartSecondaryProgress marks the secondary progress as active.
func (s *IndicatorService) StartSecondaryProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StartSecondaryProgress()
}

// StopSecondaryProgress marks the secondary progress as inactive.
func (s *IndicatorService) StopSecondaryProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StopSecondaryProgress()
}

// ShowSuccess overlays the success glyph.
func (s *IndicatorService) ShowSuccess() {
	s.mu.Lock()
	s.engine.ShowSuccess()
	s.mu.Unlock()

	s.bus.Publish(domain.NewGlyphShownEvent(domain.GlyphSuccess))
}

// ShowFailure overlays the failure glyph.
func (s *IndicatorService) ShowFailure() {
	s.mu.Lock()
	s.engine.ShowFailure()
	s.mu.Unlock()

	s.bus.Publish(domain.NewGlyphShownEvent(domain.GlyphFailure))
}

// ClearGlyph removes any status glyph.
func (s *IndicatorService) ClearGlyph() {
	s.mu.Lock()
	s.engine.ClearGlyph()
	s.mu.Unlock()

	s.bus.Publish(domain.NewGlyphShownEvent(domain.GlyphNone))
}

// ShowProgressText enables the formatted center text.
func (s *IndicatorService) ShowProgressText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ShowText()
}

// HideProgressText disables the formatted center text.
func (s *IndicatorService) HideProgressText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.HideText()
}

// CurrentFrame returns the most recently computed frame.
func (s *IndicatorService) CurrentFrame() domain.IndicatorFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFrame
}

// Shutdown stops the tick routine. The service must not be used after
// shutdown.
func (s *IndicatorService) Shutdown() error {
	s.mu.Lock()
	if s.tickRunning {
		close(s.stopTick)
		s.tickRunning = false
	}
	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.tickWg.Wait()

	s.logger.Debug("indicator service shut down")
	return nil
}

// startTickRoutine starts the goroutine that advances the engine.
func (s *IndicatorService) startTickRoutine() {
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
		ticker := time.NewTicker(engine.TickInterval)
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

// step advances the engine by one tick and fans out its results.
func (s *IndicatorService) step() {
	s.mu.Lock()
	frame := s.engine.Advance(s.clock.Now())
	timeout := s.engine.Timeout()
	deliver := s.frameFn != nil && (!s.hasFrame || frame != s.lastFrame)
	frameFn := s.frameFn
	s.lastFrame = frame
	s.hasFrame = true
	s.mu.Unlock()

	if frame.Expired {
		s.logger.Info("countdown expired", slog.Duration("timeout", timeout))
		s.bus.Publish(domain.NewTimerExpiredEvent(timeout))
	}

	if deliver {
		frameFn(frame)
	}
}
