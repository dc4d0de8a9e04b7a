package spectrum

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"vizkit/internal/domain"
	"vizkit/internal/ports"
)

// syntheticInterval is the cadence of generated frames, roughly 30 per
// second.
const syntheticInterval = 33 * time.Millisecond

// tone is one component of the generated signal.
type tone struct {
	freq  float64 // cycles per frame buffer
	amp   float64
	drift float64 // amplitude modulation speed
}

// Synthetic generates FFT frames from a phase-continuous sum of slowly
// modulated sine tones plus a little noise. It needs no audio hardware
// and is the default demo source.
type Synthetic struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	rng   *rand.Rand
	tones []tone
	phase float64
}

// NewSynthetic creates a synthetic source with a fixed set of bass, mid
// and treble tones.
func NewSynthetic() *Synthetic {
	return &Synthetic{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		tones: []tone{
			{freq: 3, amp: 0.9, drift: 0.7},
			{freq: 11, amp: 0.6, drift: 1.2},
			{freq: 29, amp: 0.45, drift: 2.1},
			{freq: 67, amp: 0.3, drift: 3.4},
			{freq: 131, amp: 0.2, drift: 5.0},
		},
	}
}

// Name identifies the source in logs and events.
func (s *Synthetic) Name() string { return "synthetic" }

// Info describes the generated material.
func (s *Synthetic) Info() domain.TrackInfo {
	return domain.TrackInfo{Title: "Test Tones", Artist: "Synthetic"}
}

// Start begins emitting frames from a background goroutine.
func (s *Synthetic) Start(emit ports.SpectrumFrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return domain.ErrSourceRunning
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(syntheticInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return

			case <-ticker.C:
				emit(packFFT(s.nextBuffer()))
			}
		}
	}()

	return nil
}

// Stop halts frame generation.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return domain.ErrSourceStopped
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// nextBuffer synthesizes one analysis frame of mono samples.
func (s *Synthetic) nextBuffer() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase += float64(syntheticInterval) / float64(time.Second)

	buf := make([]float64, fftSize)
	for _, t := range s.tones {
		// Each tone breathes on its own cycle so the bars keep moving.
		level := t.amp * (0.55 + 0.45*math.Sin(s.phase*t.drift))
		for i := range buf {
			buf[i] += level * math.Sin(2*math.Pi*t.freq*float64(i)/fftSize)
		}
	}
	for i := range buf {
		buf[i] += (s.rng.Float64() - 0.5) * 0.02
	}
	return buf
}
