// Package spectrum provides the FFT frame sources feeding the
// visualizer: a synthetic tone generator, file playback and microphone
// capture. Every source produces frames in the same byte layout the
// mapper consumes: two DC/Nyquist bytes, then interleaved real and
// imaginary signed bytes per ascending frequency bin.
package spectrum

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// fftSize is the number of mono samples per analysis frame. The
	// packed byte frame carries fftSize/2 bins.
	fftSize = 1024

	// frameGain lifts the normalized spectrum into the signed byte
	// range so typical program material uses most of the scale.
	frameGain = 4.0
)

// sampleRing is a fixed-size ring buffer of mono samples shared between
// an audio callback and the analysis ticker.
type sampleRing struct {
	mu   sync.Mutex
	buf  []float64
	next int
}

func newSampleRing(size int) *sampleRing {
	return &sampleRing{buf: make([]float64, size)}
}

// push appends samples, overwriting the oldest.
func (r *sampleRing) push(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.buf[r.next] = s
		r.next++
		if r.next >= len(r.buf) {
			r.next = 0
		}
	}
}

// snapshot copies the most recent n samples in chronological order.
func (r *sampleRing) snapshot(n int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.buf) {
		n = len(r.buf)
	}
	out := make([]float64, n)
	idx := r.next - n
	if idx < 0 {
		idx += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[idx]
		idx++
		if idx >= len(r.buf) {
			idx = 0
		}
	}
	return out
}

// packFFT windows the samples, runs a real FFT and packs the spectrum
// into the interleaved byte frame the mapper expects.
func packFFT(samples []float64) []byte {
	n := len(samples)
	if n == 0 {
		return nil
	}

	windowed := make([]float64, n)
	copy(windowed, samples)
	window.Apply(windowed, window.Hann)

	spectrum := fft.FFTReal(windowed)
	bins := n / 2

	frame := make([]byte, 2*bins)
	frame[0] = packComponent(real(spectrum[0]), n)
	frame[1] = packComponent(real(spectrum[bins]), n)
	for k := 1; k < bins; k++ {
		frame[2*k] = packComponent(real(spectrum[k]), n)
		frame[2*k+1] = packComponent(imag(spectrum[k]), n)
	}
	return frame
}

// packComponent scales one FFT component into a signed byte. A
// full-scale sine concentrated in a single bin maps near the limits.
func packComponent(v float64, n int) byte {
	scaled := v / float64(n) * 2 * frameGain * 127
	rounded := math.Round(scaled)
	if rounded > 127 {
		rounded = 127
	}
	if rounded < -128 {
		rounded = -128
	}
	return byte(int8(rounded))
}
