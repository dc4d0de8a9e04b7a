package spectrum

import (
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"vizkit/internal/domain"
	"vizkit/internal/ports"
)

// captureAnalysisInterval is the cadence at which captured audio is
// re-analyzed.
const captureAnalysisInterval = 33 * time.Millisecond

var (
	paInitOnce sync.Once
	paTermOnce sync.Once
	paInitErr  error
)

// InitializeCapture wraps portaudio.Initialize with sync.Once so
// multiple callers are safe.
func InitializeCapture() error {
	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})
	return paInitErr
}

// TerminateCapture balances InitializeCapture at process shutdown.
func TerminateCapture() {
	if paInitErr != nil {
		return
	}
	paTermOnce.Do(func() {
		_ = portaudio.Terminate()
	})
}

// Capture emits FFT frames computed from the default microphone via
// PortAudio. InitializeCapture must have been called first.
type Capture struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	stream  *portaudio.Stream
	ring    *sampleRing
}

// NewCapture creates a microphone capture source.
func NewCapture() *Capture {
	return &Capture{}
}

// Name identifies the source in logs and events.
func (c *Capture) Name() string { return "capture" }

// Start opens the default input stream and emits FFT frames until
// stopped.
func (c *Capture) Start(emit ports.SpectrumFrameFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return domain.ErrSourceRunning
	}
	if err := InitializeCapture(); err != nil {
		return domain.NewSourceError("capture", "initialize", err.Error(), err)
	}

	c.ring = newSampleRing(fftSize * 4)
	ring := c.ring

	stream, err := portaudio.OpenDefaultStream(1, 0, 44100, fftSize/2, func(in []float32) {
		mono := make([]float64, len(in))
		for i, s := range in {
			mono[i] = float64(s)
		}
		ring.push(mono)
	})
	if err != nil {
		return domain.NewSourceError("capture", "open stream", err.Error(), err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return domain.NewSourceError("capture", "start stream", err.Error(), err)
	}

	c.stream = stream
	c.running = true
	c.stop = make(chan struct{})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(captureAnalysisInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return

			case <-ticker.C:
				emit(packFFT(ring.snapshot(fftSize)))
			}
		}
	}()

	return nil
}

// Stop halts analysis and closes the input stream.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return domain.ErrSourceStopped
	}
	c.running = false
	close(c.stop)
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	c.wg.Wait()

	if err := stream.Stop(); err != nil {
		_ = stream.Close()
		return domain.NewSourceError("capture", "stop stream", err.Error(), err)
	}
	if err := stream.Close(); err != nil {
		return domain.NewSourceError("capture", "close stream", err.Error(), err)
	}
	return nil
}
