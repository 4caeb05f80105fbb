// Package playback implements the block-based playback engine: a
// {Stopped,Playing,Paused} state machine with a sub-sample-accurate cursor,
// four mutually exclusive preview modes, and sample-accurate looping.
package playback

import (
	"math"
	"sync/atomic"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/eq"
)

// State is the engine's transport state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// PreviewMode selects how renderBlock derives its output from the source
// PCM. Modes are mutually exclusive and selected from the UI thread.
type PreviewMode int

const (
	// Disabled outputs raw PCM at the cursor.
	Disabled PreviewMode = iota
	// OfflineBuffer substitutes a pre-rendered PCM for the selection range.
	OfflineBuffer
	// RealtimeDsp routes raw PCM through a configurable primitive chain.
	RealtimeDsp
	// PluginChainInsert routes raw PCM through a plugin chain's processBlock.
	PluginChainInsert
)

// RealtimePrimitive is one stage of the RealtimeDsp preview path: gain,
// normalise-delta, DC-remove, fade, or EQ. Each has atomic enable/params,
// modelled here as a single Apply closure the UI swaps atomically.
type RealtimePrimitive struct {
	enabled atomic.Bool
	apply   atomic.Pointer[func(pcm audiobuffer.PCM, channel int, block []float32)]
}

// SetEnabled flips whether this primitive participates, effective next block.
func (p *RealtimePrimitive) SetEnabled(v bool) { p.enabled.Store(v) }

// SetApply atomically swaps the processing function.
func (p *RealtimePrimitive) SetApply(fn func(pcm audiobuffer.PCM, channel int, block []float32)) {
	p.apply.Store(&fn)
}

func (p *RealtimePrimitive) run(pcm audiobuffer.PCM, channel int, block []float32) {
	if !p.enabled.Load() {
		return
	}
	if fn := p.apply.Load(); fn != nil {
		(*fn)(pcm, channel, block)
	}
}

// PluginChainProcessor is the minimal surface the engine needs from a
// plugin chain to audition it in PluginChainInsert mode.
type PluginChainProcessor interface {
	ProcessBlock(buf audiobuffer.PCM)
}

// Engine is the playback engine. One Engine serves one Document's preview
// path; the Document revokes/replaces the buffer reference on structural
// edits per the ownership model (the Document, not the Engine, decides when
// a buffer handle is stale).
type Engine struct {
	buf *audiobuffer.Buffer

	state   atomic.Int32 // State
	cursor  atomic.Uint64 // float64 bits; sample position, sub-sample accurate

	mode       atomic.Int32 // PreviewMode
	bypassed   atomic.Bool

	loopStart atomic.Uint64 // float64 bits, seconds
	loopEnd   atomic.Uint64
	looping   atomic.Bool

	previewPCM             audiobuffer.PCM
	previewSelectionOffset int64 // maps preview-local sample to file-absolute sample

	primitives []*RealtimePrimitive
	eqBank     *eq.Bank
	chain      PluginChainProcessor
}

// New returns a Stopped engine bound to buf.
func New(buf *audiobuffer.Buffer) *Engine {
	e := &Engine{buf: buf}
	e.state.Store(int32(Stopped))
	return e
}

// SetBuffer replaces the buffer handle, e.g. after the Document reinstalls a
// new-length buffer post-undo. Safe to call only while Stopped or Paused.
func (e *Engine) SetBuffer(buf *audiobuffer.Buffer) {
	e.buf = buf
}

// State returns the current transport state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Play transitions to Playing.
func (e *Engine) Play() { e.state.Store(int32(Playing)) }

// Pause transitions to Paused.
func (e *Engine) Pause() { e.state.Store(int32(Paused)) }

// Stop transitions to Stopped and resets the cursor to 0.
func (e *Engine) Stop() {
	e.state.Store(int32(Stopped))
	e.SetCursor(0)
}

// Cursor returns the current sample position (sub-sample accurate).
func (e *Engine) Cursor() float64 {
	return math.Float64frombits(e.cursor.Load())
}

// SetCursor sets the sample position, clamped to [0, N].
func (e *Engine) SetCursor(pos float64) {
	n := float64(e.buf.Len())
	if pos < 0 {
		pos = 0
	}
	if pos > n {
		pos = n
	}
	e.cursor.Store(math.Float64bits(pos))
}

// SetPreviewMode switches the active preview mode. Mutually exclusive with
// the others; takes effect on the next renderBlock call.
func (e *Engine) SetPreviewMode(m PreviewMode) {
	e.mode.Store(int32(m))
}

// PreviewMode returns the active preview mode.
func (e *Engine) PreviewMode() PreviewMode { return PreviewMode(e.mode.Load()) }

// SetPreviewBypassed flips the atomic bypass flag read by the preview
// stage; effective next block.
func (e *Engine) SetPreviewBypassed(v bool) { e.bypassed.Store(v) }

// SetOfflinePreview installs a pre-rendered PCM to substitute for the
// selection range in OfflineBuffer mode. offset maps preview-local sample
// index 0 to file-absolute sample index `offset`.
func (e *Engine) SetOfflinePreview(pcm audiobuffer.PCM, offset int64) {
	e.previewPCM = pcm
	e.previewSelectionOffset = offset
}

// SetRealtimePrimitives installs the ordered RealtimeDsp primitive chain.
func (e *Engine) SetRealtimePrimitives(p []*RealtimePrimitive) { e.primitives = p }

// SetEQBank installs the EQ bank used by the RealtimeDsp path's EQ stage.
func (e *Engine) SetEQBank(b *eq.Bank) { e.eqBank = b }

// SetPluginChain installs the chain auditioned in PluginChainInsert mode.
func (e *Engine) SetPluginChain(c PluginChainProcessor) { e.chain = c }

// SetLoopPoints configures loop boundaries in seconds.
func (e *Engine) SetLoopPoints(startSec, endSec float64) {
	e.loopStart.Store(math.Float64bits(startSec))
	e.loopEnd.Store(math.Float64bits(endSec))
}

// SetLooping enables or disables sample-accurate looping.
func (e *Engine) SetLooping(v bool) { e.looping.Store(v) }

// ClearLoopPoints disables looping. Must be called before switching
// coordinate systems (raw-file vs preview-buffer) to avoid the cursor
// wrapping to a stale absolute position inside a preview buffer.
func (e *Engine) ClearLoopPoints() {
	e.looping.Store(false)
	e.loopStart.Store(0)
	e.loopEnd.Store(0)
}

