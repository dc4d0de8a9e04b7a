package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizkit/internal/domain"
)

// expectedAmplitude mirrors the decibel scaling for a single bucket.
func expectedAmplitude(re, im, viewHeight float64) int {
	power := re*re + im*im
	if power <= 1 {
		return 0
	}
	db := 10 * math.Log10(power)
	amp := int(db * viewHeight / (10 * math.Log10(256*256+256*256)))
	if amp > int(viewHeight) {
		return int(viewHeight)
	}
	return amp
}

// frame builds an FFT buffer with the given real values, zero
// imaginaries, for the default stride of two.
func frame(reals ...int8) []byte {
	buf := make([]byte, fftOffset+2*len(reals))
	for i, r := range reals {
		buf[fftOffset+2*i] = byte(r)
	}
	return buf
}

func TestMapperRejectsShortFrames(t *testing.T) {
	m := NewMapper()

	tests := []struct {
		name    string
		fft     []byte
		buckets int
	}{
		{name: "nil buffer", fft: nil, buckets: 4},
		{name: "zero buckets", fft: frame(10, 20), buckets: 0},
		{name: "negative buckets", fft: frame(10, 20), buckets: -1},
		{name: "too short for buckets", fft: frame(10, 20), buckets: 3},
		{name: "header only", fft: []byte{0, 0}, buckets: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amps, ok := m.MapAmplitudes(tt.fft, tt.buckets, 100)
			assert.False(t, ok)
			assert.Nil(t, amps)
		})
	}
}

func TestMapperShortFramePreservesPreviousState(t *testing.T) {
	m := NewMapper()

	_, ok := m.MapAmplitudes(frame(100, 50), 2, 100)
	require.True(t, ok)

	// A glitched frame must not disturb the stored previous frame.
	_, ok = m.MapAmplitudes([]byte{0, 0}, 2, 100)
	require.False(t, ok)

	require.NoError(t, m.SetSmoothingFactor(1))
	amps, ok := m.MapAmplitudes(frame(0, 0), 2, 100)
	require.True(t, ok)

	// Full smoothing reproduces the last good frame exactly.
	assert.Equal(t, expectedAmplitude(100, 0, 100), amps[0])
	assert.Equal(t, expectedAmplitude(50, 0, 100), amps[1])
}

func TestMapperScalesMagnitudeToViewHeight(t *testing.T) {
	m := NewMapper()
	require.NoError(t, m.SetSmoothingFactor(0))

	amps, ok := m.MapAmplitudes(frame(100, 0, -128), 3, 100)
	require.True(t, ok)
	require.Len(t, amps, 3)

	assert.Equal(t, expectedAmplitude(100, 0, 100), amps[0])
	assert.Zero(t, amps[1], "silent bucket maps to zero")
	assert.Equal(t, expectedAmplitude(-128, 0, 100), amps[2], "bytes are signed")

	for _, a := range amps {
		assert.GreaterOrEqual(t, a, 0)
		assert.LessOrEqual(t, a, 100)
	}
}

func TestMapperBlendsAgainstPreviousFrame(t *testing.T) {
	m := NewMapper()
	require.NoError(t, m.SetSmoothingFactor(0.5))

	// First frame has nothing to blend against.
	amps, ok := m.MapAmplitudes(frame(100), 1, 100)
	require.True(t, ok)
	assert.Equal(t, expectedAmplitude(100, 0, 100), amps[0])

	// The second frame is pulled halfway toward the first.
	amps, ok = m.MapAmplitudes(frame(0), 1, 100)
	require.True(t, ok)
	assert.Equal(t, expectedAmplitude(50, 0, 100), amps[0])

	// Blending uses the raw previous frame, not the blended output.
	amps, ok = m.MapAmplitudes(frame(0), 1, 100)
	require.True(t, ok)
	assert.Zero(t, amps[0])
}

func TestMapperValidation(t *testing.T) {
	m := NewMapper()

	var verr *domain.ValidationError

	err := m.SetSmoothingFactor(1.5)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "smoothing_factor", verr.Field)

	require.Error(t, m.SetSmoothingFactor(-0.1))

	require.Error(t, m.SetBucketStride(1), "below minimum")
	require.Error(t, m.SetBucketStride(3), "odd stride splits a pair")
	require.Error(t, m.SetBucketStride(12), "above maximum")

	require.NoError(t, m.SetBucketStride(4))
	assert.Equal(t, 4, m.BucketStride())
}

func TestMapperStrideChangeClearsPreviousFrame(t *testing.T) {
	m := NewMapper()
	require.NoError(t, m.SetSmoothingFactor(1))

	_, ok := m.MapAmplitudes(frame(100, 100), 2, 100)
	require.True(t, ok)

	require.NoError(t, m.SetBucketStride(4))

	// With the previous frame discarded, full smoothing has nothing to
	// blend against and the new frame passes through unchanged.
	amps, ok := m.MapAmplitudes(frame(80, 0), 1, 100)
	require.True(t, ok)
	assert.Equal(t, expectedAmplitude(80, 0, 100), amps[0])
}
