package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/sysinfo"
)

func rampPCM(channels, samples int) audiobuffer.PCM {
	pcm := audiobuffer.PCM{Channels: make([][]float32, channels), SampleRate: 48000}
	for c := range pcm.Channels {
		ch := make([]float32, samples)
		for i := range ch {
			ch[i] = float32(i) / float32(samples)
		}
		pcm.Channels[c] = ch
	}
	return pcm
}

func TestRenderWholeBufferNoOpChain(t *testing.T) {
	t.Parallel()

	src := rampPCM(2, 1000)
	result, err := Render(src, 0, -1, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, Completed, result.Outcome)
	assert.Equal(t, 1000, result.PCM.NumSamples())
	assert.Equal(t, src.Channels[0][500], result.PCM.Channels[0][500])
}

func TestRenderSelection(t *testing.T) {
	t.Parallel()

	src := rampPCM(1, 1000)
	result, err := Render(src, 100, 200, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.PCM.NumSamples())
	assert.Equal(t, src.Channels[0][100], result.PCM.Channels[0][0])
}

func TestRenderOutOfRangeSelection(t *testing.T) {
	t.Parallel()

	src := rampPCM(1, 100)
	_, err := Render(src, 50, 100, Options{}, nil)
	assert.Error(t, err)
}

func TestRenderCancellation(t *testing.T) {
	t.Parallel()

	src := rampPCM(1, 10000)
	calls := 0
	result, err := Render(src, 0, -1, Options{BlockFrames: 64}, func(frac float64, status Status, _ *sysinfo.Snapshot) bool {
		calls++
		return frac < 0.3
	})
	require.NoError(t, err)
	assert.Equal(t, Cancelled, result.Outcome)
	assert.Greater(t, calls, 0)
}

func TestRenderTailAndLatencyBookkeeping(t *testing.T) {
	t.Parallel()

	src := rampPCM(1, 500)
	result, err := Render(src, 0, -1, Options{TailFrames: 50}, nil)
	require.NoError(t, err)
	// No plugin latency configured: tail samples extend the output.
	assert.Equal(t, 550, result.PCM.NumSamples())
}
