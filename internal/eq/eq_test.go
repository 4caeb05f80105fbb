package eq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankRejectsTooManyBands(t *testing.T) {
	t.Parallel()
	b := NewBank()
	b.Prepare(48000, 1, 512)
	bands := make([]Band, MaxBands+1)
	for i := range bands {
		bands[i] = Band{Freq: 1000, Q: 1, GainDb: 0, Type: Bell, Enabled: true}
	}
	err := b.SetParameters(bands)
	require.Error(t, err)
}

func TestBankRejectsOutOfRangeFreq(t *testing.T) {
	t.Parallel()
	b := NewBank()
	b.Prepare(48000, 1, 512)
	err := b.SetParameters([]Band{{Freq: 30000, Q: 1, Type: Bell, Enabled: true}})
	require.Error(t, err)
}

func TestBankProcessPicksUpPendingParameters(t *testing.T) {
	t.Parallel()
	b := NewBank()
	b.Prepare(48000, 1, 512)
	require.NoError(t, b.SetParameters([]Band{{Freq: 1000, Q: 1, GainDb: 12, Type: Bell, Enabled: true}}))

	block := make([]float32, 256)
	block[0] = 1
	b.Process(0, block)

	assert.NotEqual(t, float32(0), block[1], "biquad should have produced ringing after an impulse")
}

func TestHighCutAttenuatesAboveCutoff(t *testing.T) {
	t.Parallel()
	f := NewFilter(lowpassCoeffs(48000, 200, 0.707))
	block := make([]float32, 4096)
	for i := range block {
		if i%2 == 0 {
			block[i] = 1
		} else {
			block[i] = -1
		}
	}
	f.ApplyBatch(0, block)
	// Nyquist-ish alternating signal through a 200Hz lowpass should be heavily attenuated.
	var peak float32
	for _, s := range block[2048:] {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	assert.Less(t, peak, float32(0.1))
}

func lowpassCoeffs(sampleRate, freq, q float64) (a0, a1, a2, b0, b1, b2 float64, numChannels int) {
	a0, a1, a2, b0, b1, b2 = newBiquad(HighCut, sampleRate, freq, q, 0)
	return a0, a1, a2, b0, b1, b2, 1
}
