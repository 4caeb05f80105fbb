package keymap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCoversEveryCommand(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.Len(t, d, len(AllCommands))
	for _, c := range AllCommands {
		_, ok := d[c]
		assert.True(t, ok, "missing default binding for %s", c)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	t.Parallel()

	t1, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), t1)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keymap.json")
	t1 := Default()
	t1[CmdUndo] = "Ctrl+Z"
	t1[CmdRedo] = "Ctrl+Shift+Z"

	require.NoError(t, Save(path, t1))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Z", loaded[CmdUndo])
	assert.Equal(t, "Ctrl+Shift+Z", loaded[CmdRedo])
}
