package spectrum

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"vizkit/internal/domain"
	"vizkit/internal/ports"
)

// fileAnalysisInterval is the cadence at which the playback tap is
// re-analyzed, roughly 30 frames per second.
const fileAnalysisInterval = 33 * time.Millisecond

// speakerOnce guards speaker initialization, which may happen only once
// per process.
var speakerOnce sync.Once

// playbackTap wraps a beep.Streamer and records played samples into a
// ring buffer so the analysis ticker can compute FFT frames from the
// audio that is actually audible.
type playbackTap struct {
	source beep.Streamer
	ring   *sampleRing
}

func (t *playbackTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.source.Stream(samples)
	if n > 0 {
		mono := make([]float64, n)
		for i := 0; i < n; i++ {
			mono[i] = (samples[i][0] + samples[i][1]) / 2
		}
		t.ring.push(mono)
	}
	return n, ok
}

func (t *playbackTap) Err() error { return t.source.Err() }

// File plays an audio file through the speaker and emits FFT frames
// computed from a tap on the playback stream. MP3, WAV and FLAC are
// supported.
type File struct {
	path string
	info domain.TrackInfo

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	wg       sync.WaitGroup
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	ring     *sampleRing
}

// NewFile creates a file source for the given path. The file's metadata
// tags are read eagerly so callers can display them before playback.
func NewFile(path string) (*File, error) {
	f := &File{
		path: path,
		info: domain.TrackInfo{Title: filepath.Base(path)},
	}

	handle, err := os.Open(path)
	if err != nil {
		return nil, domain.NewSourceError("file", "open", err.Error(), err)
	}
	defer func() { _ = handle.Close() }()

	// Tags are best-effort; an untagged file keeps its base name.
	if meta, err := tag.ReadFrom(handle); err == nil {
		if meta.Title() != "" {
			f.info.Title = meta.Title()
		}
		f.info.Artist = meta.Artist()
	}

	return f, nil
}

// Name identifies the source in logs and events.
func (f *File) Name() string { return "file" }

// Info returns the title and artist from the file's metadata tags.
func (f *File) Info() domain.TrackInfo { return f.info }

// Start decodes the file, begins speaker playback and emits FFT frames
// from the playback tap until stopped or the file ends.
func (f *File) Start(emit ports.SpectrumFrameFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return domain.ErrSourceRunning
	}

	handle, err := os.Open(f.path)
	if err != nil {
		return domain.NewSourceError("file", "open", err.Error(), err)
	}

	streamer, format, err := decode(f.path, handle)
	if err != nil {
		_ = handle.Close()
		return err
	}

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		_ = streamer.Close()
		return domain.NewSourceError("file", "speaker init", initErr.Error(), initErr)
	}

	f.ring = newSampleRing(fftSize * 4)
	tap := &playbackTap{source: streamer, ring: f.ring}
	f.ctrl = &beep.Ctrl{Streamer: tap}
	f.streamer = streamer
	f.running = true
	f.stop = make(chan struct{})

	speaker.Play(f.ctrl)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(fileAnalysisInterval)
		defer ticker.Stop()

		for {
			select {
			case <-f.stop:
				return

			case <-ticker.C:
				emit(packFFT(f.ring.snapshot(fftSize)))
			}
		}
	}()

	return nil
}

// Stop halts analysis and silences playback.
func (f *File) Stop() error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return domain.ErrSourceStopped
	}
	f.running = false
	close(f.stop)
	ctrl := f.ctrl
	streamer := f.streamer
	f.ctrl = nil
	f.streamer = nil
	f.mu.Unlock()

	f.wg.Wait()

	speaker.Lock()
	ctrl.Paused = true
	ctrl.Streamer = nil
	speaker.Unlock()

	if err := streamer.Close(); err != nil {
		return domain.NewSourceError("file", "close", err.Error(), err)
	}
	return nil
}

// decode picks a decoder by file extension.
func decode(path string, handle *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err := mp3.Decode(handle)
		if err != nil {
			return nil, beep.Format{}, domain.NewSourceError("file", "decode", err.Error(), err)
		}
		return s, format, nil
	case ".wav":
		s, format, err := wav.Decode(handle)
		if err != nil {
			return nil, beep.Format{}, domain.NewSourceError("file", "decode", err.Error(), err)
		}
		return s, format, nil
	case ".flac":
		s, format, err := flac.Decode(handle)
		if err != nil {
			return nil, beep.Format{}, domain.NewSourceError("file", "decode", err.Error(), err)
		}
		return s, format, nil
	default:
		err := fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
		return nil, beep.Format{}, domain.NewSourceError("file", "decode", err.Error(), err)
	}
}
