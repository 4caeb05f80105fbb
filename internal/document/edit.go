package document

import (
	"fmt"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/dsp"
	"github.com/wavecraft/wavecraft/internal/playback"
	"github.com/wavecraft/wavecraft/internal/regions"
	"github.com/wavecraft/wavecraft/internal/stripsilence"
	"github.com/wavecraft/wavecraft/internal/undo"
)

// coalesceKey builds an undo coalescing key from the edit kind and the
// affected range: only same-kind edits to the identical [start, end) range
// merge, so e.g. two gain nudges to different (even overlapping) selections
// stay separate undo steps.
func coalesceKey(kind string, start, length int64) string {
	return fmt.Sprintf("%s:%d:%d", kind, start, start+length)
}

// Copy returns a deep copy of samples [start, start+length) without
// mutating the buffer, for handing to the clipboard.
func (d *Document) Copy(start, length int64) (audiobuffer.PCM, error) {
	return d.Buffer.Slice(int(start), int(length))
}

// Cut removes [start, start+length), returning the removed samples so the
// caller can hand them to the clipboard, and pushes an undo record that
// restores them on revert.
func (d *Document) Cut(start, length int64) (audiobuffer.PCM, error) {
	removed, err := d.Buffer.Slice(int(start), int(length))
	if err != nil {
		return audiobuffer.PCM{}, err
	}
	if err := d.deleteRange(start, length, removed); err != nil {
		return audiobuffer.PCM{}, err
	}
	return removed, nil
}

// Delete removes [start, start+length) without touching the clipboard.
func (d *Document) Delete(start, length int64) error {
	removed, err := d.Buffer.Slice(int(start), int(length))
	if err != nil {
		return err
	}
	return d.deleteRange(start, length, removed)
}

// deleteRange is the shared Apply/Revert core of Cut and Delete: it stops
// the engine before the length-changing mutation, reinstalls the buffer
// handle, notifies the region model so marker/region positions shift with
// the edit, and clamps selection/cursor afterward.
func (d *Document) deleteRange(start, length int64, preImage audiobuffer.PCM) error {
	s, l := int(start), int(length)

	d.stopEngineForStructuralEdit()
	rec := &undo.Record{
		Describe: func() string { return "Delete" },
		Apply: func() {
			_ = d.Buffer.Delete(s, l)
		},
		Revert: func() {
			_ = d.Buffer.Insert(s, preImage)
		},
	}
	d.Undo.Perform(rec)
	d.Engine.SetBuffer(d.Buffer)
	d.Regions.NotifyEdited(start, -length)
	d.ClampSelectionAndCursor()
	d.MarkDirty()
	return nil
}

// Insert splices pcm into the buffer at sample index at, pushing an undo
// record that removes it again on revert. This is the primitive
// Manager.PasteFromClipboard routes through.
func (d *Document) Insert(at int64, pcm audiobuffer.PCM) error {
	a := int(at)
	length := int64(pcm.NumSamples())

	d.stopEngineForStructuralEdit()
	rec := &undo.Record{
		Describe: func() string { return "Paste" },
		Apply: func() {
			_ = d.Buffer.Insert(a, pcm)
		},
		Revert: func() {
			_ = d.Buffer.Delete(a, pcm.NumSamples())
		},
	}
	d.Undo.Perform(rec)
	d.Engine.SetBuffer(d.Buffer)
	d.Regions.NotifyEdited(at, length)
	d.ClampSelectionAndCursor()
	d.MarkDirty()
	return nil
}

// TrimToRange discards everything outside [start, start+length), pushing an
// undo record that restores the full pre-image on revert.
func (d *Document) TrimToRange(start, length int64) error {
	s, l := int(start), int(length)
	full := d.Buffer.Snapshot()
	sr := d.Buffer.SampleRate()
	bitDepth := full.BitDepth
	oldLen := int64(full.NumSamples())

	d.stopEngineForStructuralEdit()
	rec := &undo.Record{
		Describe: func() string { return "Trim" },
		Apply: func() {
			_ = d.Buffer.TrimToRange(s, l)
		},
		Revert: func() {
			d.Buffer.Load(full, sr, bitDepth)
		},
	}
	d.Undo.Perform(rec)
	d.Engine.SetBuffer(d.Buffer)

	// Trim is equivalent to two deletes against the pre-image's coordinate
	// space: the tail past the kept range, then the head before it. Order
	// matters only in that both must be expressed in pre-image coordinates,
	// which holds here since the two ranges are disjoint.
	d.Regions.NotifyEdited(start+length, -(oldLen - (start + length)))
	d.Regions.NotifyEdited(0, -start)
	d.ClampSelectionAndCursor()
	d.MarkDirty()
	return nil
}

// rangeOp is the shared Apply/Revert core of every length-preserving
// in-place edit (gain, normalise, fade, DC-offset removal, silence):
// capture the pre-image, compute the post-image once up front, and let
// Undo.Perform/Undo/Redo replay between the two via Buffer.Replace.
func (d *Document) rangeOp(label, key string, start, length int64, mutate func(audiobuffer.PCM)) error {
	s, l := int(start), int(length)
	original, err := d.Buffer.Slice(s, l)
	if err != nil {
		return err
	}
	modified := original.Clone()
	mutate(modified)

	rec := &undo.Record{
		Describe: func() string { return label },
		Apply: func() {
			_ = d.Buffer.Replace(s, l, modified)
		},
		Revert: func() {
			_ = d.Buffer.Replace(s, l, original)
		},
		CoalesceKey: key,
	}
	d.Undo.Perform(rec)
	d.MarkDirty()
	return nil
}

// ApplyGain applies a gain of db decibels to [start, start+length). Repeated
// gain edits to the same range within the undo coalesce window merge into a
// single undo step.
func (d *Document) ApplyGain(start, length int64, db float64) error {
	return d.rangeOp("Apply Gain", coalesceKey("gain", start, length), start, length, func(pcm audiobuffer.PCM) {
		dsp.ApplyGain(pcm, db)
	})
}

// Normalise adjusts [start, start+length) to targetDb peak or RMS level.
func (d *Document) Normalise(start, length int64, targetDb float64, mode dsp.NormaliseMode) error {
	return d.rangeOp("Normalise", "", start, length, func(pcm audiobuffer.PCM) {
		dsp.Normalise(pcm, targetDb, mode)
	})
}

// Fade applies a fade-in or fade-out envelope across [start, start+length).
func (d *Document) Fade(start, length int64, dir dsp.FadeDirection, curve dsp.FadeCurve) error {
	return d.rangeOp("Fade", "", start, length, func(pcm audiobuffer.PCM) {
		dsp.Fade(pcm, dir, curve, pcm.NumSamples())
	})
}

// RemoveDCOffset removes each channel's DC bias across [start, start+length).
func (d *Document) RemoveDCOffset(start, length int64) error {
	return d.rangeOp("Remove DC Offset", "", start, length, dsp.RemoveDCOffset)
}

// SilenceSelection zeroes the masked channels across [start, start+length).
func (d *Document) SilenceSelection(start, length int64, mask audiobuffer.ChannelMask) error {
	s, l := int(start), int(length)
	original, err := d.Buffer.Slice(s, l)
	if err != nil {
		return err
	}

	rec := &undo.Record{
		Describe: func() string { return "Silence" },
		Apply: func() {
			_ = d.Buffer.SilenceRange(s, l, mask)
		},
		Revert: func() {
			_ = d.Buffer.Replace(s, l, original)
		},
	}
	d.Undo.Perform(rec)
	d.MarkDirty()
	return nil
}

// DetectSilence runs Strip-Silence detection over the whole buffer and
// returns the surviving loud-run regions without committing them, for a
// preview overlay the UI can show before the user confirms.
func (d *Document) DetectSilence(params stripsilence.Params) []regions.Region {
	return stripsilence.Detect(d.Buffer.Snapshot(), params)
}

// CommitSilenceRegions runs Strip-Silence detection and adds every
// surviving loud-run region to the region model.
func (d *Document) CommitSilenceRegions(params stripsilence.Params) []regions.Region {
	detected := d.DetectSilence(params)
	for _, r := range detected {
		d.Regions.AddRegion(r)
	}
	if len(detected) > 0 {
		d.MarkDirty()
	}
	return detected
}

// stopEngineForStructuralEdit stops playback before a length-changing
// mutation per the Buffer/Engine ownership contract: the engine must not
// hold a stale cursor or loop range across a splice.
func (d *Document) stopEngineForStructuralEdit() {
	if d.Engine.State() != playback.Stopped {
		d.Engine.Stop()
	}
}
