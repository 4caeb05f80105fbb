package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecraft/wavecraft/internal/codec"
)

func TestNewDocumentIsSilentAndClean(t *testing.T) {
	t.Parallel()

	doc := New(44100, 2, 16, 1.0)
	assert.Equal(t, 2, doc.Buffer.NumChannels())
	assert.Equal(t, 44100, doc.Buffer.Len())
	assert.False(t, doc.Dirty())
	assert.NotEmpty(t, doc.ID)
}

func TestDocumentSaveClearsDirty(t *testing.T) {
	t.Parallel()

	doc := New(44100, 1, 16, 0.1)
	doc.MarkDirty()
	require.True(t, doc.Dirty())

	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, doc.Save(path, codec.WAV, 16, 5, 0))
	assert.False(t, doc.Dirty())
	assert.Equal(t, path, doc.Path)

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.wav")
	original := New(22050, 1, 16, 0.05)
	require.NoError(t, original.Save(path, codec.WAV, 16, 5, 0))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, original.Buffer.Len(), loaded.Buffer.Len())
	assert.Equal(t, path, loaded.Path)
}

func TestClampSelectionAndCursor(t *testing.T) {
	t.Parallel()

	doc := New(1000, 1, 16, 1.0)
	doc.Selection = Selection{Start: 500, End: 5000}
	doc.Cursor = 5000
	doc.ClampSelectionAndCursor()

	n := int64(doc.Buffer.Len())
	assert.Equal(t, n, doc.Selection.End)
	assert.Equal(t, n, doc.Cursor)
}
