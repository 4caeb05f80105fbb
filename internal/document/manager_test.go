package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	added, removed []int
	changed        []*Document
}

func (r *recordingListener) DocumentAdded(idx int)   { r.added = append(r.added, idx) }
func (r *recordingListener) DocumentRemoved(idx int) { r.removed = append(r.removed, idx) }
func (r *recordingListener) CurrentDocumentChanged(doc *Document) {
	r.changed = append(r.changed, doc)
}

func TestManagerAddAndNavigate(t *testing.T) {
	t.Parallel()

	m := NewManager()
	rec := &recordingListener{}
	m.AddListener(rec)

	a := New(44100, 1, 16, 0.01)
	b := New(44100, 1, 16, 0.01)
	m.Add(a)
	m.Add(b)

	assert.Equal(t, b, m.Current())
	m.Previous()
	assert.Equal(t, a, m.Current())
	m.Next()
	assert.Equal(t, b, m.Current())
	m.Next()
	assert.Equal(t, a, m.Current(), "Next wraps to the first document")

	m.SelectByNumber(2)
	assert.Equal(t, b, m.Current())

	assert.Equal(t, []int{0, 1}, rec.added)
	assert.NotEmpty(t, rec.changed)
}

func TestManagerRemoveAdjustsCurrent(t *testing.T) {
	t.Parallel()

	m := NewManager()
	a, b, c := New(44100, 1, 16, 0), New(44100, 1, 16, 0), New(44100, 1, 16, 0)
	m.Add(a)
	m.Add(b)
	m.Add(c)
	m.SelectByNumber(3)

	require.NoError(t, m.Remove(2))
	assert.Equal(t, b, m.Current())
	assert.Len(t, m.Documents(), 2)
}

func TestManagerClipboardResamplesOnPaste(t *testing.T) {
	t.Parallel()

	m := NewManager()
	src := New(22050, 1, 16, 0.05)
	for i := range src.Buffer.Snapshot().Channels[0] {
		_ = i
	}
	m.CopyToClipboard(src.Buffer.Snapshot())
	assert.True(t, m.HasClipboard())

	target := New(44100, 1, 16, 0.1)
	beforeLen := target.Buffer.Len()
	require.NoError(t, m.PasteFromClipboard(target, 0.02))
	assert.Greater(t, target.Buffer.Len(), beforeLen)
	assert.True(t, target.Dirty())
}

func TestPasteWithoutClipboardErrors(t *testing.T) {
	t.Parallel()

	m := NewManager()
	target := New(44100, 1, 16, 0.1)
	assert.Error(t, m.PasteFromClipboard(target, 0))
}
