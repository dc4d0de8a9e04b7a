package engine

import (
	"math"

	"vizkit/internal/domain"
)

// Spectrum buffer layout and scaling constants.
const (
	// fftOffset skips the DC and Nyquist terms at the head of the buffer.
	fftOffset = 2

	// DefaultBucketStride is the byte distance between consecutive
	// buckets, one real/imaginary pair per step.
	DefaultBucketStride = 2

	// DefaultSmoothingFactor blends a tenth of the previous frame into
	// each new sample.
	DefaultSmoothingFactor = 0.1

	// MinBucketStride and MaxBucketStride bound SetBucketStride.
	MinBucketStride = 2
	MaxBucketStride = 10
)

// maxDB is the theoretical decibel ceiling for a signed-byte spectrum
// pair, used to scale decibels onto pixel heights.
var maxDB = 10 * math.Log10(256*256+256*256)

// Mapper converts raw FFT byte frames into per-bucket pixel amplitudes.
// The input layout follows the classic visualizer convention: two DC
// bytes, then interleaved real/imaginary signed bytes per frequency
// bin. Each bucket's magnitude becomes a decibel value scaled onto the
// view height.
//
// Consecutive frames are blended: each sample is pulled toward the same
// bucket in the previous frame by the smoothing factor, damping
// frame-to-frame flicker.
type Mapper struct {
	stride    int
	smoothing float64
	prev      []byte
}

// NewMapper creates a mapper with the default stride and smoothing.
func NewMapper() *Mapper {
	return &Mapper{
		stride:    DefaultBucketStride,
		smoothing: DefaultSmoothingFactor,
	}
}

// BucketStride returns the byte distance between consecutive buckets.
func (m *Mapper) BucketStride() int { return m.stride }

// SmoothingFactor returns the previous-frame blend weight.
func (m *Mapper) SmoothingFactor() float64 { return m.smoothing }

// SetBucketStride sets the byte distance between consecutive buckets.
// The stride must be even (one real/imaginary pair) and within
// [MinBucketStride .. MaxBucketStride].
func (m *Mapper) SetBucketStride(stride int) error {
	if stride < MinBucketStride || stride > MaxBucketStride || stride%2 != 0 {
		return domain.NewValidationError("bucket_stride", stride, domain.ErrInvalidBucketStride.Error())
	}
	m.stride = stride
	m.prev = nil
	return nil
}

// SetSmoothingFactor sets the previous-frame blend weight in
// [0.0 .. 1.0]. Zero disables smoothing entirely.
func (m *Mapper) SetSmoothingFactor(factor float64) error {
	if factor < 0 || factor > 1 {
		return domain.NewValidationError("smoothing_factor", factor, domain.ErrInvalidSmoothingFactor.Error())
	}
	m.smoothing = factor
	return nil
}

// MapAmplitudes maps one FFT frame into per-bucket pixel amplitudes for
// the given view height. It returns ok=false without touching stored
// state when the frame is nil, the bucket count is not positive, or the
// buffer is too short for the requested buckets; capture glitches are
// expected and must not disturb the display.
func (m *Mapper) MapAmplitudes(fft []byte, buckets, viewHeight int) ([]int, bool) {
	if fft == nil || buckets <= 0 {
		return nil, false
	}
	need := buckets*m.stride + fftOffset
	if len(fft) < need {
		return nil, false
	}

	blend := m.smoothing > 0 && len(m.prev) >= need

	amps := make([]int, buckets)
	for i := 0; i < buckets; i++ {
		idx := i*m.stride + fftOffset
		re := float64(int8(fft[idx]))
		im := float64(int8(fft[idx+1]))

		if blend {
			re += (float64(int8(m.prev[idx])) - re) * m.smoothing
			im += (float64(int8(m.prev[idx+1])) - im) * m.smoothing
		}

		amps[i] = scaleToHeight(re*re+im*im, viewHeight)
	}

	// Keep a copy of the raw frame for the next blend; the caller may
	// reuse its buffer.
	m.prev = append(m.prev[:0], fft...)

	return amps, true
}

// scaleToHeight converts a squared magnitude into a pixel amplitude in
// [0 .. viewHeight].
func scaleToHeight(power float64, viewHeight int) int {
	if power <= 1 || viewHeight <= 0 {
		return 0
	}
	db := 10 * math.Log10(power)
	amp := int(db * float64(viewHeight) / maxDB)
	if amp < 0 {
		return 0
	}
	if amp > viewHeight {
		return viewHeight
	}
	return amp
}

// Reset clears the stored previous frame.
func (m *Mapper) Reset() {
	m.prev = nil
}
