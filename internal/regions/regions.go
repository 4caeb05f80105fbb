// Package regions implements the Region and Marker timeline model: sorted
// collections with binary-search insertion, multi-selection, merge/split,
// boundary nudge, and JSON side-car persistence.
package regions

import (
	"sort"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// RGBA is a packed 32-bit colour.
type RGBA uint32

// Region is a named sample range on the timeline.
type Region struct {
	Name        string
	StartSample int64
	EndSample   int64
	Color       RGBA
}

// Marker is a named point on the timeline.
type Marker struct {
	Name     string
	Position int64
	Color    RGBA
}

// Side selects which boundary of a region a nudge operation affects.
type Side int

const (
	Start Side = iota
	End
)

// Model holds a document's regions and markers, kept sorted ascending by
// start/position respectively, with multi-selection state for regions.
type Model struct {
	regions []Region
	markers []Marker

	selected     map[int]bool
	primaryAnchor int

	snapToZeroCrossing func(sample int64) int64
}

// New returns an empty Model. snapFn, if non-nil, is consulted by
// NudgeBoundary to honour zero-crossing snap; pass nil to disable snapping.
func New(snapFn func(sample int64) int64) *Model {
	return &Model{selected: make(map[int]bool), snapToZeroCrossing: snapFn}
}

// Regions returns the current sorted region list. Callers must not mutate
// the returned slice.
func (m *Model) Regions() []Region { return m.regions }

// Markers returns the current sorted marker list. Callers must not mutate
// the returned slice.
func (m *Model) Markers() []Marker { return m.markers }

// AddRegion inserts r in sorted-by-start position via binary search.
func (m *Model) AddRegion(r Region) int {
	idx := sort.Search(len(m.regions), func(i int) bool { return m.regions[i].StartSample >= r.StartSample })
	m.regions = append(m.regions, Region{})
	copy(m.regions[idx+1:], m.regions[idx:])
	m.regions[idx] = r
	return idx
}

// AddMarker inserts mk in sorted-by-position position via binary search.
func (m *Model) AddMarker(mk Marker) int {
	idx := sort.Search(len(m.markers), func(i int) bool { return m.markers[i].Position >= mk.Position })
	m.markers = append(m.markers, Marker{})
	copy(m.markers[idx+1:], m.markers[idx:])
	m.markers[idx] = mk
	return idx
}

// SelectRegion replaces (or, if addToSelection, extends) the selection with
// idx, and sets it as the primary anchor for a subsequent range-extend.
func (m *Model) SelectRegion(idx int, addToSelection bool) {
	if !addToSelection {
		m.selected = make(map[int]bool)
	}
	m.selected[idx] = true
	m.primaryAnchor = idx
}

// SelectRegionRange extends the selection from the primary anchor to b. The
// a argument is not consulted; the range always starts at the anchor.
func (m *Model) SelectRegionRange(a, b int) {
	a = m.primaryAnchor
	if a > b {
		a, b = b, a
	}
	for i := a; i <= b; i++ {
		m.selected[i] = true
	}
}

// SelectedIndices returns the currently selected region indices in
// ascending order.
func (m *Model) SelectedIndices() []int {
	out := make([]int, 0, len(m.selected))
	for i := range m.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// MergeSelectedRegions replaces every selected region with one spanning
// min(start)..max(end), named by joining the selected names with " + " in
// start-order. Requires at least one selected region.
func (m *Model) MergeSelectedRegions() (Region, error) {
	idxs := m.SelectedIndices()
	if len(idxs) == 0 {
		return Region{}, errors.Newf("mergeSelectedRegions: no regions selected").
			Category(errors.CategoryValidation).Build()
	}

	minStart := m.regions[idxs[0]].StartSample
	maxEnd := m.regions[idxs[0]].EndSample
	names := make([]string, 0, len(idxs))
	color := m.regions[idxs[0]].Color
	for _, i := range idxs {
		r := m.regions[i]
		if r.StartSample < minStart {
			minStart = r.StartSample
		}
		if r.EndSample > maxEnd {
			maxEnd = r.EndSample
		}
		names = append(names, r.Name)
	}

	merged := Region{Name: joinNames(names), StartSample: minStart, EndSample: maxEnd, Color: color}

	kept := make([]Region, 0, len(m.regions)-len(idxs)+1)
	removed := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		removed[i] = true
	}
	for i, r := range m.regions {
		if removed[i] {
			continue
		}
		kept = append(kept, r)
	}
	m.regions = kept
	m.selected = make(map[int]bool)
	m.AddRegion(merged)
	return merged, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " + "
		}
		out += n
	}
	return out
}

// SplitRegion splits the region at idx at sample position `at`, which must
// be strictly inside the region. The two halves are named "<n> (1)" and
// "<n> (2)".
func (m *Model) SplitRegion(idx int, at int64) error {
	if idx < 0 || idx >= len(m.regions) {
		return errors.Newf("splitRegion: index %d out of range", idx).
			Category(errors.CategoryOutOfRange).Build()
	}
	r := m.regions[idx]
	if at <= r.StartSample || at >= r.EndSample {
		return errors.Newf("splitRegion: position %d not strictly inside region [%d,%d]", at, r.StartSample, r.EndSample).
			Category(errors.CategoryOutOfRange).Build()
	}

	first := Region{Name: r.Name + " (1)", StartSample: r.StartSample, EndSample: at, Color: r.Color}
	second := Region{Name: r.Name + " (2)", StartSample: at, EndSample: r.EndSample, Color: r.Color}

	m.regions = append(m.regions[:idx], append([]Region{first, second}, m.regions[idx+1:]...)...)
	return nil
}

// NudgeBoundary moves the start or end boundary of region idx by
// deltaSamples, snapping to the nearest zero crossing if a snap function was
// configured.
func (m *Model) NudgeBoundary(idx int, side Side, deltaSamples int64) error {
	if idx < 0 || idx >= len(m.regions) {
		return errors.Newf("nudgeBoundary: index %d out of range", idx).
			Category(errors.CategoryOutOfRange).Build()
	}
	r := &m.regions[idx]
	switch side {
	case Start:
		newStart := r.StartSample + deltaSamples
		if m.snapToZeroCrossing != nil {
			newStart = m.snapToZeroCrossing(newStart)
		}
		if newStart >= r.EndSample {
			return errors.Newf("nudgeBoundary: start would cross end").
				Category(errors.CategoryInvariantViolated).Build()
		}
		r.StartSample = newStart
	case End:
		newEnd := r.EndSample + deltaSamples
		if m.snapToZeroCrossing != nil {
			newEnd = m.snapToZeroCrossing(newEnd)
		}
		if newEnd <= r.StartSample {
			return errors.Newf("nudgeBoundary: end would cross start").
				Category(errors.CategoryInvariantViolated).Build()
		}
		r.EndSample = newEnd
	}
	return nil
}

// GetInverseRanges returns the complement of the union of regions over
// [0, n), used by "select inverse".
func (m *Model) GetInverseRanges(n int64) []Region {
	var out []Region
	var cursor int64
	for _, r := range m.regions {
		if r.StartSample > cursor {
			out = append(out, Region{StartSample: cursor, EndSample: r.StartSample})
		}
		if r.EndSample > cursor {
			cursor = r.EndSample
		}
	}
	if cursor < n {
		out = append(out, Region{StartSample: cursor, EndSample: n})
	}
	return out
}

// NotifyEdited shifts and prunes positions after a buffer edit at [start,
// start+length) that changed the timeline length by delta. Positions right
// of the edit translate by delta; regions/markers strictly inside a deleted
// range (delta < 0, position within [start, start-delta)) are removed and
// returned for the caller's undo record.
func (m *Model) NotifyEdited(start int64, delta int64) (removedRegions []Region, removedMarkers []Marker) {
	if delta < 0 {
		deletedEnd := start - delta
		var kept []Region
		for _, r := range m.regions {
			if r.StartSample >= start && r.EndSample <= deletedEnd {
				removedRegions = append(removedRegions, r)
				continue
			}
			kept = append(kept, r)
		}
		m.regions = kept

		var keptM []Marker
		for _, mk := range m.markers {
			if mk.Position >= start && mk.Position < deletedEnd {
				removedMarkers = append(removedMarkers, mk)
				continue
			}
			keptM = append(keptM, mk)
		}
		m.markers = keptM
	}

	for i := range m.regions {
		if m.regions[i].StartSample >= start {
			m.regions[i].StartSample += delta
		}
		if m.regions[i].EndSample >= start {
			m.regions[i].EndSample += delta
		}
	}
	for i := range m.markers {
		if m.markers[i].Position >= start {
			m.markers[i].Position += delta
		}
	}
	return removedRegions, removedMarkers
}

// ClampToLength clamps every region/marker boundary to [0, n].
func (m *Model) ClampToLength(n int64) {
	for i := range m.regions {
		if m.regions[i].StartSample > n {
			m.regions[i].StartSample = n
		}
		if m.regions[i].EndSample > n {
			m.regions[i].EndSample = n
		}
	}
	for i := range m.markers {
		if m.markers[i].Position > n {
			m.markers[i].Position = n
		}
	}
}
