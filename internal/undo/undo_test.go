package undo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordOf(value *int, delta int, key string) *Record {
	var prev int
	return &Record{
		Describe:    func() string { return "adjust" },
		CoalesceKey: key,
		Apply: func() {
			prev = *value
			*value += delta
		},
		Revert: func() { *value = prev },
	}
}

func TestPerformUndoRedo(t *testing.T) {
	t.Parallel()
	m := NewWithLimits(100, 0)
	v := 0
	m.Perform(recordOf(&v, 5, ""))
	assert.Equal(t, 5, v)
	require.True(t, m.Undo())
	assert.Equal(t, 0, v)
	require.True(t, m.Redo())
	assert.Equal(t, 5, v)
}

func TestCoalescingMergesWithinWindow(t *testing.T) {
	t.Parallel()
	m := NewWithLimits(100, 250*time.Millisecond)
	v := 0
	m.Perform(recordOf(&v, 1, "nudge"))
	m.Perform(recordOf(&v, 1, "nudge"))
	m.Perform(recordOf(&v, 1, "nudge"))
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, m.Depth(), "consecutive same-key edits within the window should coalesce into one record")
}

func TestCoalescingDoesNotMergeAcrossDifferentKeys(t *testing.T) {
	t.Parallel()
	m := NewWithLimits(100, time.Second)
	v := 0
	m.Perform(recordOf(&v, 1, "a"))
	m.Perform(recordOf(&v, 1, "b"))
	assert.Equal(t, 2, m.Depth())
}

func TestMaxDepthEvictsOldest(t *testing.T) {
	t.Parallel()
	m := NewWithLimits(2, 0)
	v := 0
	m.Perform(recordOf(&v, 1, ""))
	m.Perform(recordOf(&v, 1, ""))
	m.Perform(recordOf(&v, 1, ""))
	assert.Equal(t, 2, m.Depth())
}

func TestPerformClearsRedoStack(t *testing.T) {
	t.Parallel()
	m := NewWithLimits(100, 0)
	v := 0
	m.Perform(recordOf(&v, 1, ""))
	m.Undo()
	require.True(t, m.CanRedo())
	m.Perform(recordOf(&v, 2, ""))
	assert.False(t, m.CanRedo())
}
