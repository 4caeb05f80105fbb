// Package audiobuffer implements the editable, non-interleaved float32 PCM
// buffer at the heart of a Document: sample-accurate cut/insert/replace with
// per-channel variants, guarded so the playback engine can hold a read handle
// without racing a concurrent edit.
package audiobuffer

import (
	"sync"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// PCM is a non-interleaved float32 audio buffer: Channels[c][i] is sample i
// of channel c. Every channel has equal length. Values are not clamped to
// [-1, +1]; out-of-range samples are valid and preserved until an explicit
// clamp operation is applied.
type PCM struct {
	Channels   [][]float32
	SampleRate float64
	BitDepth   int // origin bit depth; runtime representation is always float32
}

// NumSamples returns the per-channel sample count, or 0 for a channel-less PCM.
func (p PCM) NumSamples() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// NumChannels returns the channel count.
func (p PCM) NumChannels() int {
	return len(p.Channels)
}

// Clone returns a deep copy of p.
func (p PCM) Clone() PCM {
	out := PCM{
		Channels:   make([][]float32, len(p.Channels)),
		SampleRate: p.SampleRate,
		BitDepth:   p.BitDepth,
	}
	for c, ch := range p.Channels {
		out.Channels[c] = append([]float32(nil), ch...)
	}
	return out
}

// NewSilence returns a PCM of the given channel count and sample count, all zeros.
func NewSilence(channels, samples int, sampleRate float64) PCM {
	out := PCM{Channels: make([][]float32, channels), SampleRate: sampleRate, BitDepth: 32}
	for c := range out.Channels {
		out.Channels[c] = make([]float32, samples)
	}
	return out
}

// ChannelMask selects which channels participate in a per-channel operation.
// Bit n set means channel n participates; AllChannels (^0) means all.
type ChannelMask uint32

// AllChannels is a mask selecting every channel, regardless of count.
const AllChannels ChannelMask = ^ChannelMask(0)

// Has reports whether channel n is selected by the mask.
func (m ChannelMask) Has(n int) bool {
	if n < 0 || n >= 32 {
		return false
	}
	return m&(1<<uint(n)) != 0
}

// PopCount returns the number of channels selected, capped at numChannels.
func (m ChannelMask) PopCount(numChannels int) int {
	count := 0
	for c := 0; c < numChannels; c++ {
		if m.Has(c) {
			count++
		}
	}
	return count
}

// Buffer is the mutable, owned audio buffer of a Document. All mutating
// operations run on the UI thread; the internal mutex exists to serialise a
// hot swap against concurrent readers such as the playback engine's read
// handle (see ReadHandle).
type Buffer struct {
	mu   sync.RWMutex
	data PCM
}

// New wraps pcm in a Buffer.
func New(pcm PCM) *Buffer {
	return &Buffer{data: pcm}
}

// Load replaces the buffer's content wholesale.
func (b *Buffer) Load(pcm PCM, sampleRate float64, bitDepth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pcm.SampleRate = sampleRate
	pcm.BitDepth = bitDepth
	b.data = pcm
}

// Len returns the current sample count.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.NumSamples()
}

// NumChannels returns the current channel count.
func (b *Buffer) NumChannels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.NumChannels()
}

// SampleRate returns the buffer's sample rate.
func (b *Buffer) SampleRate() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.SampleRate
}

// Snapshot returns a deep copy of the current PCM content, safe to hand to a
// reader that must not observe a subsequent mutation.
func (b *Buffer) Snapshot() PCM {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.Clone()
}

// ReadHandle is a shared-read lock on a Buffer, held by the playback engine
// across a renderBlock call so the UI thread's mutating operations cannot
// interleave mid-block. Callers must Release promptly; mutating operations
// on the same Buffer block until every outstanding ReadHandle is released.
type ReadHandle struct {
	buf *Buffer
}

// AcquireRead takes a shared read lock and returns a handle exposing the
// buffer's current PCM for direct (copy-free) reading. The returned PCM's
// slices are only valid until Release is called.
func (b *Buffer) AcquireRead() *ReadHandle {
	b.mu.RLock()
	return &ReadHandle{buf: b}
}

// PCM returns the live PCM content. Valid only while the handle is held.
func (h *ReadHandle) PCM() PCM {
	return h.buf.data
}

// Release releases the shared read lock.
func (h *ReadHandle) Release() {
	h.buf.mu.RUnlock()
}

func errOutOfRange(op string, start, length, n int) error {
	return errors.Newf("%s out of range: start=%d length=%d bufferLen=%d", op, start, length, n).
		Category(errors.CategoryOutOfRange).
		Context("operation", op).
		Context("start", start).
		Context("length", length).
		Context("bufferLen", n).
		Build()
}

func errChannelMismatch(op string, got, want int) error {
	return errors.Newf("%s: channel count mismatch: got %d want %d", op, got, want).
		Category(errors.CategoryChannelMismatch).
		Context("operation", op).
		Context("gotChannels", got).
		Context("wantChannels", want).
		Build()
}

// Slice returns a copy of samples [start, start+length) across all channels.
func (b *Buffer) Slice(start, length int) (PCM, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		return PCM{}, errOutOfRange("slice", start, length, n)
	}
	out := PCM{SampleRate: b.data.SampleRate, BitDepth: b.data.BitDepth, Channels: make([][]float32, b.data.NumChannels())}
	for c, ch := range b.data.Channels {
		out.Channels[c] = append([]float32(nil), ch[start:start+length]...)
	}
	return out, nil
}

// Delete removes samples [start, start+length), shifting the tail left.
func (b *Buffer) Delete(start, length int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		return errOutOfRange("delete", start, length, n)
	}
	for c, ch := range b.data.Channels {
		b.data.Channels[c] = append(ch[:start], ch[start+length:]...)
	}
	return nil
}

// Insert splices pcm into the buffer at sample index at.
func (b *Buffer) Insert(at int, pcm PCM) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.data.NumSamples()
	if at < 0 || at > n {
		return errOutOfRange("insert", at, 0, n)
	}
	if b.data.NumChannels() != 0 && pcm.NumChannels() != b.data.NumChannels() {
		return errChannelMismatch("insert", pcm.NumChannels(), b.data.NumChannels())
	}
	if b.data.NumChannels() == 0 {
		b.data.Channels = make([][]float32, pcm.NumChannels())
		b.data.SampleRate = pcm.SampleRate
	}
	for c := range b.data.Channels {
		merged := make([]float32, 0, len(b.data.Channels[c])+len(pcm.Channels[c]))
		merged = append(merged, b.data.Channels[c][:at]...)
		merged = append(merged, pcm.Channels[c]...)
		merged = append(merged, b.data.Channels[c][at:]...)
		b.data.Channels[c] = merged
	}
	return nil
}

// Replace atomically deletes [start, start+length) and inserts pcm in its
// place; pcm's length may differ from length.
func (b *Buffer) Replace(start, length int, pcm PCM) error {
	b.mu.Lock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		b.mu.Unlock()
		return errOutOfRange("replace", start, length, n)
	}
	if b.data.NumChannels() != 0 && pcm.NumChannels() != b.data.NumChannels() {
		b.mu.Unlock()
		return errChannelMismatch("replace", pcm.NumChannels(), b.data.NumChannels())
	}
	for c := range b.data.Channels {
		merged := make([]float32, 0, start+len(pcm.Channels[c])+(len(b.data.Channels[c])-start-length))
		merged = append(merged, b.data.Channels[c][:start]...)
		merged = append(merged, pcm.Channels[c]...)
		merged = append(merged, b.data.Channels[c][start+length:]...)
		b.data.Channels[c] = merged
	}
	b.mu.Unlock()
	return nil
}

// SilenceRange zeroes samples [start, start+length) on the channels selected
// by mask; other channels are left untouched.
func (b *Buffer) SilenceRange(start, length int, mask ChannelMask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		return errOutOfRange("silenceRange", start, length, n)
	}
	for c, ch := range b.data.Channels {
		if !mask.Has(c) {
			continue
		}
		for i := start; i < start+length; i++ {
			ch[i] = 0
		}
	}
	return nil
}

// TrimToRange keeps only [start, start+length), discarding everything else.
func (b *Buffer) TrimToRange(start, length int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		return errOutOfRange("trimToRange", start, length, n)
	}
	for c, ch := range b.data.Channels {
		b.data.Channels[c] = append([]float32(nil), ch[start:start+length]...)
	}
	return nil
}

// CopyChannels returns a PCM containing only the channels selected by mask,
// ordered low-to-high bit order, over the range [start, start+length).
func (b *Buffer) CopyChannels(start, length int, mask ChannelMask) (PCM, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := b.data.NumSamples()
	if start < 0 || length < 0 || start+length > n {
		return PCM{}, errOutOfRange("copyChannels", start, length, n)
	}
	out := PCM{SampleRate: b.data.SampleRate, BitDepth: b.data.BitDepth}
	for c, ch := range b.data.Channels {
		if !mask.Has(c) {
			continue
		}
		out.Channels = append(out.Channels, append([]float32(nil), ch[start:start+length]...))
	}
	return out, nil
}

// ReplaceChannels overwrites the channels selected by mask, starting at
// sample index start, with src's samples. Buffer length is never altered;
// src is silently clamped to N - start.
func (b *Buffer) ReplaceChannels(start int, src PCM, mask ChannelMask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.data.NumSamples()
	if start < 0 || start > n {
		return errOutOfRange("replaceChannels", start, 0, n)
	}
	avail := n - start
	srcIdx := 0
	for c := range b.data.Channels {
		if !mask.Has(c) || srcIdx >= src.NumChannels() {
			continue
		}
		length := len(src.Channels[srcIdx])
		if length > avail {
			length = avail
		}
		copy(b.data.Channels[c][start:start+length], src.Channels[srcIdx][:length])
		srcIdx++
	}
	return nil
}

// ConvertChannelCount remixes the buffer to target channels using the
// downmix/upmix matrix: 1->2 duplicate, 2->1 average, N->1 equal-weight sum,
// N->2 (N>2) speaker-position weighted downmix, M->N (M<N) silence-fill.
func (b *Buffer) ConvertChannelCount(target int) error {
	if target < 1 || target > 8 {
		return errors.Newf("convertChannelCount: target %d out of range [1,8]", target).
			Category(errors.CategoryOutOfRange).
			Context("target", target).
			Build()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data.Channels = remixChannels(b.data.Channels, target)
	return nil
}

func remixChannels(src [][]float32, target int) [][]float32 {
	n := len(src)
	if n == 0 {
		samples := 0
		out := make([][]float32, target)
		for c := range out {
			out[c] = make([]float32, samples)
		}
		return out
	}
	samples := len(src[0])

	switch {
	case n == target:
		return src
	case n == 1 && target == 2:
		return [][]float32{append([]float32(nil), src[0]...), append([]float32(nil), src[0]...)}
	case n == 2 && target == 1:
		mono := make([]float32, samples)
		for i := 0; i < samples; i++ {
			mono[i] = (src[0][i] + src[1][i]) / 2
		}
		return [][]float32{mono}
	case target == 1:
		mono := make([]float32, samples)
		for i := 0; i < samples; i++ {
			var sum float32
			for c := 0; c < n; c++ {
				sum += src[c][i]
			}
			mono[i] = sum / float32(n)
		}
		return [][]float32{mono}
	case target == 2 && n > 2:
		return downmixToStereo(src, samples)
	case target > n:
		out := make([][]float32, target)
		copy(out, src)
		for c := n; c < target; c++ {
			out[c] = make([]float32, samples)
		}
		return out
	default:
		// target < n, target not 1: keep the first `target` channels.
		out := make([][]float32, target)
		for c := 0; c < target; c++ {
			out[c] = append([]float32(nil), src[c]...)
		}
		return out
	}
}

// downmixToStereo applies an ITU-R BS.775-style weighted downmix: L/R pass
// through, centre at -3dB (0.707) into both, LFE dropped, surrounds at -3dB
// into the matching side. Channel order follows the common 5.1 layout
// L, R, C, LFE, Ls, Rs; channels beyond that are folded into left (even
// index) or right (odd index) at the same -3dB surround gain.
func downmixToStereo(src [][]float32, samples int) [][]float32 {
	const centreGain = 0.707
	const surroundGain = 0.707
	n := len(src)
	left := append([]float32(nil), src[0]...)
	right := append([]float32(nil), src[1]...)

	addWeighted := func(dst []float32, channel []float32, gain float32) {
		for i := 0; i < samples; i++ {
			dst[i] += channel[i] * gain
		}
	}

	if n > 2 { // centre channel
		addWeighted(left, src[2], centreGain)
		addWeighted(right, src[2], centreGain)
	}
	// index 3 is LFE: dropped entirely.
	if n > 4 { // left surround
		addWeighted(left, src[4], surroundGain)
	}
	if n > 5 { // right surround
		addWeighted(right, src[5], surroundGain)
	}
	for c := 6; c < n; c++ {
		if c%2 == 0 {
			addWeighted(left, src[c], surroundGain)
		} else {
			addWeighted(right, src[c], surroundGain)
		}
	}
	return [][]float32{left, right}
}
