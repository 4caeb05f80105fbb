package playback

import (
	"math"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

// RenderBlock writes nFrames of interleaved-by-channel output (out[c] holds
// channel c's samples) starting at the engine's current cursor, advancing
// the cursor and honouring looping. Returns the number of frames actually
// written, which is less than nFrames only at end-of-buffer with looping
// disabled.
func (e *Engine) RenderBlock(nFrames int, out [][]float32) int {
	if e.State() != Playing {
		return 0
	}

	handle := e.buf.AcquireRead()
	defer handle.Release()
	src := handle.PCM()

	written := 0
	for written < nFrames {
		remaining := nFrames - written
		n := e.renderSegment(src, remaining, out, written)
		if n == 0 {
			break
		}
		written += n
	}
	return written
}

// renderSegment renders as many frames as possible without crossing a loop
// seam or the end of the buffer, splitting the block at the seam rather
// than rounding, per the sample-accurate loop contract.
func (e *Engine) renderSegment(src audiobuffer.PCM, maxFrames int, out [][]float32, outOffset int) int {
	n := int64(src.NumSamples())
	cursor := e.Cursor()
	pos := int64(cursor)

	limit := n
	if e.looping.Load() {
		loopEndSamples := int64(math.Float64frombits(e.loopEnd.Load()) * src.SampleRate)
		if loopEndSamples < limit {
			limit = loopEndSamples
		}
	}

	if pos >= limit {
		if !e.looping.Load() {
			e.state.Store(int32(Stopped))
			return 0
		}
		// Wrap to the loop start and keep filling this block from there.
		loopStartSamples := int64(math.Float64frombits(e.loopStart.Load()) * src.SampleRate)
		e.SetCursor(float64(loopStartSamples))
		cursor = e.Cursor()
		pos = int64(cursor)
		if pos >= limit {
			return 0
		}
	}

	avail := limit - pos
	frames := int64(maxFrames)
	if frames > avail {
		frames = avail
	}

	e.fillFrames(src, pos, int(frames), out, outOffset)
	e.SetCursor(cursor + float64(frames))
	return int(frames)
}

// fillFrames copies [pos, pos+frames) from src into out starting at
// outOffset, applying the active preview mode's transformation.
func (e *Engine) fillFrames(src audiobuffer.PCM, pos int64, frames int, out [][]float32, outOffset int) {
	mode := e.PreviewMode()
	bypassed := e.bypassed.Load()

	for c := 0; c < len(out) && c < src.NumChannels(); c++ {
		dst := out[c][outOffset : outOffset+frames]
		copy(dst, src.Channels[c][pos:pos+int64(frames)])

		if bypassed {
			continue
		}
		switch mode {
		case Disabled:
			// raw PCM, no transform
		case OfflineBuffer:
			e.applyOfflinePreview(c, pos, dst)
		case RealtimeDsp:
			e.applyRealtimeDsp(src, c, dst)
		case PluginChainInsert:
			// handled per-block below via ProcessBlock on the full slice set
		}
	}

	if !bypassed && mode == PluginChainInsert && e.chain != nil {
		block := audiobuffer.PCM{Channels: make([][]float32, len(out)), SampleRate: src.SampleRate}
		for c := range out {
			block.Channels[c] = out[c][outOffset : outOffset+frames]
		}
		e.chain.ProcessBlock(block)
	}
}

// applyOfflinePreview substitutes samples from the preview buffer wherever
// the absolute position falls within its mapped range.
func (e *Engine) applyOfflinePreview(channel int, absolutePos int64, dst []float32) {
	if channel >= e.previewPCM.NumChannels() {
		return
	}
	previewLen := int64(len(e.previewPCM.Channels[channel]))
	for i := range dst {
		previewIdx := absolutePos + int64(i) - e.previewSelectionOffset
		if previewIdx >= 0 && previewIdx < previewLen {
			dst[i] = e.previewPCM.Channels[channel][previewIdx]
		}
	}
}

func (e *Engine) applyRealtimeDsp(src audiobuffer.PCM, channel int, block []float32) {
	for _, prim := range e.primitives {
		prim.run(src, channel, block)
	}
	if e.eqBank != nil {
		e.eqBank.Process(channel, block)
	}
}
