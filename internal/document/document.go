// Package document implements the Document aggregate (one open audio
// file's buffer, undo stack, region/marker model, playback handle, and
// dirty/selection state) and the Manager that tracks the set of open
// Documents, current-document navigation, and the inter-document
// clipboard.
package document

import (
	"github.com/google/uuid"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/codec"
	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/eq"
	"github.com/wavecraft/wavecraft/internal/playback"
	"github.com/wavecraft/wavecraft/internal/plugins"
	"github.com/wavecraft/wavecraft/internal/regions"
	"github.com/wavecraft/wavecraft/internal/undo"
)

// Selection is a sample-range selection; Start == End is a zero-length
// selection (cursor only, no range).
type Selection struct {
	Start int64
	End   int64
}

// Document aggregates everything owned exclusively by one open audio file:
// its buffer, undo stack, region/marker model, and per-document playback
// and plugin state. Selection and cursor live here, not on any widget, so
// switching documents swaps the view of all of them at once.
type Document struct {
	ID   string
	Path string

	Buffer  *audiobuffer.Buffer
	Undo    *undo.Manager
	Regions *regions.Model
	Engine  *playback.Engine
	EQ      *eq.Bank
	Plugins *plugins.Chain

	Metadata codec.Metadata
	Format   codec.Format
	Selection Selection
	Cursor    int64

	dirty bool
}

// New creates an empty document of the given shape: sr Hz, ch channels,
// bitDepth bits, durationSec seconds of silence.
func New(sr float64, ch int, bitDepth int, durationSec float64) *Document {
	samples := int(durationSec * sr)
	pcm := audiobuffer.NewSilence(ch, samples, sr)
	pcm.BitDepth = bitDepth
	return newFromPCM(pcm, "", codec.WAV, codec.Metadata{})
}

// Load decodes path and returns a Document backed by its content. report,
// if non-nil, receives the 0.0..0.2 "loading" fraction per spec's staged
// progress convention; the remaining 0.2..1.0 stages apply only to renders.
func Load(path string, report func(float64) bool) (*Document, error) {
	var (
		pcm  audiobuffer.PCM
		meta codec.Metadata
		err  error
	)
	if report != nil {
		pcm, meta, err = codec.DecodeWithProgress(path, func(f float64) bool { return report(f * 0.2) })
	} else {
		pcm, meta, err = codec.Decode(path)
	}
	if err != nil {
		return nil, err
	}
	doc := newFromPCM(pcm, path, formatFromPath(path), meta)
	return doc, nil
}

func newFromPCM(pcm audiobuffer.PCM, path string, format codec.Format, meta codec.Metadata) *Document {
	buf := audiobuffer.New(pcm)
	eqBank := eq.NewBank()
	eqBank.Prepare(pcm.SampleRate, pcm.NumChannels(), 0)
	doc := &Document{
		ID:       uuid.NewString(),
		Path:     path,
		Buffer:   buf,
		Undo:     undo.New(),
		Regions:  regions.New(nil),
		Engine:   playback.New(buf),
		EQ:       eqBank,
		Plugins:  plugins.New(),
		Metadata: meta,
		Format:   format,
	}
	doc.Engine.SetEQBank(doc.EQ)
	doc.Engine.SetPluginChain(doc.Plugins)
	if path != "" {
		_ = doc.Regions.LoadRegions(path)
		_ = doc.Regions.LoadMarkers(path)
	}
	return doc
}

func formatFromPath(path string) codec.Format {
	for i := len(path) - 1; i >= 0 && path[i] != '/' && path[i] != '\\'; i-- {
		if path[i] == '.' {
			switch path[i+1:] {
			case "flac":
				return codec.FLAC
			case "ogg", "oga":
				return codec.OGG
			}
			return codec.WAV
		}
	}
	return codec.WAV
}

// Dirty reports whether the document has uncommitted changes since the
// last save.
func (d *Document) Dirty() bool { return d.dirty }

// MarkDirty flags the document as having uncommitted changes. Called by
// every edit method in edit.go after its Undo.Perform (or, for
// non-undoable region-only edits, after the mutation itself) commits.
func (d *Document) MarkDirty() { d.dirty = true }

// Save encodes the document's buffer to path in the given format,
// optionally resampling to targetSr (0 = no conversion), and clears dirty
// on success.
func (d *Document) Save(path string, format codec.Format, bitDepth int, quality int, targetSr float64) error {
	if d.Engine.State() != playback.Stopped {
		d.Engine.Stop()
	}
	pcm := d.Buffer.Snapshot()
	if err := codec.Encode(pcm, path, format, bitDepth, targetSr, d.Metadata); err != nil {
		return err
	}
	if err := d.Regions.SaveRegions(path); err != nil {
		return err
	}
	if err := d.Regions.SaveMarkers(path); err != nil {
		return err
	}
	d.Path = path
	d.Format = format
	d.dirty = false
	return nil
}

// Close stops playback and releases plugin resources. The caller (UI) is
// responsible for prompting the user about unsaved changes before calling
// Close on a dirty document.
func (d *Document) Close() {
	d.Engine.Stop()
	d.Plugins.Clear()
}

// ClampSelectionAndCursor clamps Selection/Cursor to the buffer's current
// length, called after any edit that changes sample count.
func (d *Document) ClampSelectionAndCursor() {
	n := int64(d.Buffer.Len())
	clamp := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		if v > n {
			return n
		}
		return v
	}
	d.Selection.Start = clamp(d.Selection.Start)
	d.Selection.End = clamp(d.Selection.End)
	d.Cursor = clamp(d.Cursor)
	d.Regions.ClampToLength(n)
}

// defaultDocument builds a New-style document using the application's
// configured default shape, for menu actions like File > New.
func defaultDocument() *Document {
	return New(config.DefaultSampleRate, config.DefaultChannels, config.DefaultBitDepth, 0)
}
