package stripsilence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

func buildPCM(sampleRate float64, spans ...[2]float32) audiobuffer.PCM {
	// spans are (amplitude, durationSeconds) pairs at a fixed internal rate
	// of 1000 samples/sec for test readability regardless of sampleRate arg.
	const rate = 1000.0
	var samples []float32
	for _, s := range spans {
		n := int(s[1] * rate)
		for i := 0; i < n; i++ {
			samples = append(samples, s[0])
		}
	}
	return audiobuffer.PCM{Channels: [][]float32{samples}, SampleRate: rate}
}

func TestDetectFindsLoudRunWithRoll(t *testing.T) {
	t.Parallel()
	pcm := buildPCM(1000, [2]float32{0, 1}, [2]float32{1, 1}, [2]float32{0, 1})
	result := Detect(pcm, Params{ThresholdDb: -20, MinRegionMs: 10, MinSilenceMs: 10, PreRollMs: 50, PostRollMs: 50})
	require.Len(t, result, 1)
	assert.Equal(t, "Region 1", result[0].Name)
	assert.Less(t, result[0].StartSample, int64(1000))
	assert.Greater(t, result[0].EndSample, int64(1000))
}

func TestDetectDiscardsShortLoudRuns(t *testing.T) {
	t.Parallel()
	pcm := buildPCM(1000, [2]float32{0, 1}, [2]float32{1, 0.005}, [2]float32{0, 1})
	result := Detect(pcm, Params{ThresholdDb: -20, MinRegionMs: 50, MinSilenceMs: 10})
	assert.Empty(t, result)
}

func TestDetectMergesShortSilenceGaps(t *testing.T) {
	t.Parallel()
	pcm := buildPCM(1000, [2]float32{1, 1}, [2]float32{0, 0.01}, [2]float32{1, 1})
	result := Detect(pcm, Params{ThresholdDb: -20, MinRegionMs: 10, MinSilenceMs: 100})
	require.Len(t, result, 1, "short silence gap should merge into one loud region")
}

func TestDetectIsPureFunction(t *testing.T) {
	t.Parallel()
	pcm := buildPCM(1000, [2]float32{0, 1}, [2]float32{1, 1})
	params := Params{ThresholdDb: -20, MinRegionMs: 10, MinSilenceMs: 10}
	first := Detect(pcm, params)
	second := Detect(pcm, params)
	assert.Equal(t, first, second)
}

func TestDetectEmptyBufferReturnsNil(t *testing.T) {
	t.Parallel()
	result := Detect(audiobuffer.PCM{}, Params{})
	assert.Nil(t, result)
}
