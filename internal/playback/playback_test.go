package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func TestRenderBlockDisabledModeCopiesRawPCM(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(10)}, SampleRate: 1000})
	e := New(buf)
	e.Play()

	out := [][]float32{make([]float32, 4)}
	n := e.RenderBlock(4, out)
	require.Equal(t, 4, n)
	assert.Equal(t, []float32{0, 1, 2, 3}, out[0])
	assert.Equal(t, float64(4), e.Cursor())
}

func TestRenderBlockStopsAtEndOfBufferWithoutLooping(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(5)}, SampleRate: 1000})
	e := New(buf)
	e.Play()

	out := [][]float32{make([]float32, 10)}
	n := e.RenderBlock(10, out)
	assert.Equal(t, 5, n)
	assert.Equal(t, Stopped, e.State())
}

func TestLoopingWrapsAtSampleAccurateSeam(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(10)}, SampleRate: 1000})
	e := New(buf)
	e.SetLoopPoints(0, 0.005) // 5 samples at 1000Hz
	e.SetLooping(true)
	e.Play()

	out := [][]float32{make([]float32, 8)}
	n := e.RenderBlock(8, out)
	require.Equal(t, 8, n)
	// First 5 samples are [0..4], then wraps to loop start and renders [0..2].
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 0, 1, 2}, out[0])
}

func TestSetCursorClamps(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(5)}, SampleRate: 1000})
	e := New(buf)
	e.SetCursor(-5)
	assert.Equal(t, float64(0), e.Cursor())
	e.SetCursor(100)
	assert.Equal(t, float64(5), e.Cursor())
}

func TestStoppedEngineRendersNothing(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(5)}, SampleRate: 1000})
	e := New(buf)
	out := [][]float32{make([]float32, 4)}
	n := e.RenderBlock(4, out)
	assert.Equal(t, 0, n)
}

func TestOfflinePreviewSubstitutesMappedRange(t *testing.T) {
	t.Parallel()
	buf := audiobuffer.New(audiobuffer.PCM{Channels: [][]float32{ramp(10)}, SampleRate: 1000})
	e := New(buf)
	e.SetPreviewMode(OfflineBuffer)
	preview := audiobuffer.PCM{Channels: [][]float32{{99, 99, 99}}, SampleRate: 1000}
	e.SetOfflinePreview(preview, 2) // preview covers file-absolute [2,5)
	e.Play()

	out := [][]float32{make([]float32, 6)}
	e.RenderBlock(6, out)
	assert.Equal(t, []float32{0, 1, 99, 99, 99, 5}, out[0])
}
