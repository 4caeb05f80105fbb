package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

func sinePCM(channels, samples int, sampleRate float64) audiobuffer.PCM {
	pcm := audiobuffer.PCM{Channels: make([][]float32, channels), SampleRate: sampleRate, BitDepth: 16}
	for c := range pcm.Channels {
		ch := make([]float32, samples)
		for i := range ch {
			ch[i] = float32(i%200-100) / 100
		}
		pcm.Channels[c] = ch
	}
	return pcm
}

func TestEncodeDecodeWAVRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	src := sinePCM(2, 4000, 44100)
	require.NoError(t, Encode(src, path, WAV, 16, 0, Metadata{}))

	decoded, _, err := Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.NumChannels())
	assert.Equal(t, 4000, decoded.NumSamples())
	assert.InDelta(t, float64(src.SampleRate), decoded.SampleRate, 0.01)

	for i := 0; i < 4000; i += 500 {
		assert.InDelta(t, src.Channels[0][i], decoded.Channels[0][i], 0.01)
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "track.ogg")
	require.NoError(t, os.WriteFile(path, []byte("not a real ogg"), 0o644))

	_, _, err := Decode(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeWithProgressReachesOne(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")
	require.NoError(t, Encode(sinePCM(1, 2000, 44100), path, WAV, 16, 0, Metadata{}))

	var last float64
	_, _, err := DecodeWithProgress(path, func(f float64) bool {
		last = f
		return true
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, last, 0.0)
}

func TestResampleUpAndDown(t *testing.T) {
	t.Parallel()

	src := sinePCM(1, 1000, 8000)
	up := Resample(src, 16000)
	assert.InDelta(t, 2000, up.NumSamples(), 5)

	down := Resample(src, 4000)
	assert.InDelta(t, 500, down.NumSamples(), 5)

	same := Resample(src, 8000)
	assert.Equal(t, src.NumSamples(), same.NumSamples())
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, WAV, formatOf("/a/b/song.wav"))
	assert.Equal(t, FLAC, formatOf("/a/b/song.flac"))
	assert.Equal(t, OGG, formatOf("/a/b/song.ogg"))
}
