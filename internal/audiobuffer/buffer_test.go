package audiobuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mono(samples ...float32) PCM {
	return PCM{Channels: [][]float32{append([]float32(nil), samples...)}, SampleRate: 48000, BitDepth: 32}
}

func TestDeleteShiftsTail(t *testing.T) {
	t.Parallel()
	b := New(mono(0, 1, 2, 3, 4))
	require.NoError(t, b.Delete(1, 2))
	assert.Equal(t, []float32{0, 3, 4}, b.Snapshot().Channels[0])
}

func TestDeleteOutOfRange(t *testing.T) {
	t.Parallel()
	b := New(mono(0, 1, 2))
	err := b.Delete(2, 5)
	require.Error(t, err)
	assert.True(t, errorsCategoryIs(err, "out-of-range"))
}

func TestInsertChannelMismatch(t *testing.T) {
	t.Parallel()
	b := New(PCM{Channels: [][]float32{{0, 1}, {0, 1}}, SampleRate: 48000})
	err := b.Insert(0, mono(1))
	require.Error(t, err)
	assert.True(t, errorsCategoryIs(err, "channel-mismatch"))
}

func TestReplaceDifferentLength(t *testing.T) {
	t.Parallel()
	b := New(mono(0, 1, 2, 3, 4))
	require.NoError(t, b.Replace(1, 2, mono(9, 9, 9, 9)))
	assert.Equal(t, []float32{0, 9, 9, 9, 9, 3, 4}, b.Snapshot().Channels[0])
}

func TestSilenceRangeRespectsMask(t *testing.T) {
	t.Parallel()
	b := New(PCM{Channels: [][]float32{{1, 1, 1}, {2, 2, 2}}, SampleRate: 48000})
	require.NoError(t, b.SilenceRange(0, 2, ChannelMask(1))) // channel 0 only
	snap := b.Snapshot()
	assert.Equal(t, []float32{0, 0, 1}, snap.Channels[0])
	assert.Equal(t, []float32{2, 2, 2}, snap.Channels[1])
}

func TestTrimToRange(t *testing.T) {
	t.Parallel()
	b := New(mono(0, 1, 2, 3, 4))
	require.NoError(t, b.TrimToRange(1, 3))
	assert.Equal(t, []float32{1, 2, 3}, b.Snapshot().Channels[0])
}

func TestCopyChannelsOrdersByMaskBit(t *testing.T) {
	t.Parallel()
	b := New(PCM{Channels: [][]float32{{1, 1}, {2, 2}, {3, 3}}, SampleRate: 48000})
	out, err := b.CopyChannels(0, 2, ChannelMask(0b101)) // channels 0 and 2
	require.NoError(t, err)
	require.Len(t, out.Channels, 2)
	assert.Equal(t, []float32{1, 1}, out.Channels[0])
	assert.Equal(t, []float32{3, 3}, out.Channels[1])
}

func TestReplaceChannelsClampsToTail(t *testing.T) {
	t.Parallel()
	b := New(mono(0, 0, 0))
	err := b.ReplaceChannels(1, mono(9, 9, 9, 9), AllChannels)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 9, 9}, b.Snapshot().Channels[0])
}

func TestConvertChannelCountMonoToStereoDuplicates(t *testing.T) {
	t.Parallel()
	b := New(mono(1, 2, 3))
	require.NoError(t, b.ConvertChannelCount(2))
	snap := b.Snapshot()
	require.Len(t, snap.Channels, 2)
	assert.Equal(t, snap.Channels[0], snap.Channels[1])
}

func TestConvertChannelCountStereoToMonoAverages(t *testing.T) {
	t.Parallel()
	b := New(PCM{Channels: [][]float32{{1, 1}, {3, 3}}, SampleRate: 48000})
	require.NoError(t, b.ConvertChannelCount(1))
	assert.Equal(t, []float32{2, 2}, b.Snapshot().Channels[0])
}

func TestConvertChannelCountUpmixFillsSilence(t *testing.T) {
	t.Parallel()
	b := New(PCM{Channels: [][]float32{{1, 1}, {1, 1}}, SampleRate: 48000})
	require.NoError(t, b.ConvertChannelCount(4))
	snap := b.Snapshot()
	require.Len(t, snap.Channels, 4)
	assert.Equal(t, []float32{0, 0}, snap.Channels[2])
	assert.Equal(t, []float32{0, 0}, snap.Channels[3])
}

// errorsCategoryIs is a tiny local helper avoiding an import cycle on the
// errors package's test-only helpers.
func errorsCategoryIs(err error, category string) bool {
	type categorized interface{ GetCategory() string }
	if ce, ok := err.(categorized); ok {
		return ce.GetCategory() == category
	}
	return false
}
