package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

func mono(samples ...float32) audiobuffer.PCM {
	return audiobuffer.PCM{Channels: [][]float32{append([]float32(nil), samples...)}, SampleRate: 48000}
}

func TestApplyGainDoublesAtPlus6dB(t *testing.T) {
	t.Parallel()
	p := mono(0.5)
	ApplyGain(p, 6.0205999)
	assert.InDelta(t, 1.0, float64(p.Channels[0][0]), 0.001)
}

func TestPeakDbSilentIsNegInf(t *testing.T) {
	t.Parallel()
	p := mono(0, 0, 0)
	assert.True(t, math.IsInf(PeakDb(p), -1))
}

func TestNormaliseSilentIsNoOp(t *testing.T) {
	t.Parallel()
	p := mono(0, 0, 0)
	Normalise(p, -6, Peak)
	assert.Equal(t, []float32{0, 0, 0}, p.Channels[0])
}

func TestFadeInLinearStartsAtZero(t *testing.T) {
	t.Parallel()
	p := mono(1, 1, 1, 1)
	Fade(p, FadeIn, Linear, 4)
	assert.InDelta(t, 0, p.Channels[0][0], 1e-6)
	assert.InDelta(t, 1, p.Channels[0][3], 1e-6)
}

func TestFadeOutLinearEndsAtZero(t *testing.T) {
	t.Parallel()
	p := mono(1, 1, 1, 1)
	Fade(p, FadeOut, Linear, 4)
	assert.InDelta(t, 1, p.Channels[0][0], 1e-6)
	assert.InDelta(t, 0, p.Channels[0][3], 1e-6)
}

func TestRemoveDCOffset(t *testing.T) {
	t.Parallel()
	p := mono(1, 3)
	RemoveDCOffset(p)
	assert.InDelta(t, -1, p.Channels[0][0], 1e-6)
	assert.InDelta(t, 1, p.Channels[0][1], 1e-6)
}

func TestClampToValidRangeCountsClipped(t *testing.T) {
	t.Parallel()
	p := mono(2, -2, 0.5)
	n := ClampToValidRange(p)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{1, -1, 0.5}, p.Channels[0])
}
