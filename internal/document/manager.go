package document

import (
	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/codec"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// Listener receives notifications of Manager state changes. All three
// methods are called synchronously on the UI thread from within the
// Manager method that triggered them; implementations must not block.
type Listener interface {
	CurrentDocumentChanged(doc *Document)
	DocumentAdded(idx int)
	DocumentRemoved(idx int)
}

// clipboardEntry stores exactly one PCM buffer, per spec.
type clipboardEntry struct {
	pcm audiobuffer.PCM
}

// Manager owns the set of open Documents, a current-document index for
// single-focus UI navigation, and an inter-document clipboard.
type Manager struct {
	docs      []*Document
	current   int
	clipboard *clipboardEntry
	listeners []Listener
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{current: -1}
}

// AddListener registers l for future notifications.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Documents returns the current open-document list. Callers must not
// mutate the returned slice.
func (m *Manager) Documents() []*Document { return m.docs }

// Current returns the currently focused document, or nil if none are open.
func (m *Manager) Current() *Document {
	if m.current < 0 || m.current >= len(m.docs) {
		return nil
	}
	return m.docs[m.current]
}

// CurrentIndex returns the focused document's index, or -1 if none.
func (m *Manager) CurrentIndex() int { return m.current }

// Add appends doc and makes it current, notifying listeners of both
// DocumentAdded and CurrentDocumentChanged.
func (m *Manager) Add(doc *Document) int {
	m.docs = append(m.docs, doc)
	idx := len(m.docs) - 1
	m.current = idx
	m.notifyAdded(idx)
	m.notifyCurrentChanged()
	return idx
}

// Remove closes and removes the document at idx, adjusting current to stay
// in range and notifying listeners.
func (m *Manager) Remove(idx int) error {
	if idx < 0 || idx >= len(m.docs) {
		return errors.Newf("document: index %d out of range", idx).
			Category(errors.CategoryOutOfRange).Build()
	}
	m.docs[idx].Close()
	m.docs = append(m.docs[:idx], m.docs[idx+1:]...)

	switch {
	case len(m.docs) == 0:
		m.current = -1
	case m.current >= len(m.docs):
		m.current = len(m.docs) - 1
	case m.current > idx:
		m.current--
	}

	m.notifyRemoved(idx)
	m.notifyCurrentChanged()
	return nil
}

// Next focuses the next document, wrapping to the first after the last.
func (m *Manager) Next() {
	if len(m.docs) == 0 {
		return
	}
	m.current = (m.current + 1) % len(m.docs)
	m.notifyCurrentChanged()
}

// Previous focuses the previous document, wrapping to the last before the
// first.
func (m *Manager) Previous() {
	if len(m.docs) == 0 {
		return
	}
	m.current = (m.current - 1 + len(m.docs)) % len(m.docs)
	m.notifyCurrentChanged()
}

// SelectByNumber focuses the nth document (1-based, matching a typical
// Ctrl+1..9 shortcut bank). Out-of-range numbers are ignored.
func (m *Manager) SelectByNumber(n int) {
	idx := n - 1
	if idx < 0 || idx >= len(m.docs) {
		return
	}
	m.current = idx
	m.notifyCurrentChanged()
}

// CopyToClipboard stores pcm as the clipboard's sole contents, replacing
// any prior clipboard entry.
func (m *Manager) CopyToClipboard(pcm audiobuffer.PCM) {
	clone := pcm.Clone()
	m.clipboard = &clipboardEntry{pcm: clone}
}

// HasClipboard reports whether a clipboard entry is present.
func (m *Manager) HasClipboard() bool { return m.clipboard != nil }

// PasteFromClipboard inserts the clipboard's buffer into targetDoc at
// positionSec, resampling first (linear interpolation) if the clipboard's
// sample rate differs from the target document's.
func (m *Manager) PasteFromClipboard(targetDoc *Document, positionSec float64) error {
	if m.clipboard == nil {
		return errors.Newf("document: clipboard is empty").
			Category(errors.CategoryState).Build()
	}

	pcm := m.clipboard.pcm
	targetRate := targetDoc.Buffer.SampleRate()
	if pcm.SampleRate != targetRate {
		pcm = codec.Resample(pcm, targetRate)
	}
	if pcm.NumChannels() != targetDoc.Buffer.NumChannels() {
		tmp := audiobuffer.New(pcm)
		if err := tmp.ConvertChannelCount(targetDoc.Buffer.NumChannels()); err != nil {
			return err
		}
		pcm = tmp.Snapshot()
	}

	at := int64(positionSec * targetRate)
	return targetDoc.Insert(at, pcm)
}

func (m *Manager) notifyAdded(idx int) {
	for _, l := range m.listeners {
		l.DocumentAdded(idx)
	}
}

func (m *Manager) notifyRemoved(idx int) {
	for _, l := range m.listeners {
		l.DocumentRemoved(idx)
	}
}

func (m *Manager) notifyCurrentChanged() {
	cur := m.Current()
	for _, l := range m.listeners {
		l.CurrentDocumentChanged(cur)
	}
}
