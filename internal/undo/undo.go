// Package undo implements the per-document undo/redo stack: coalescing
// consecutive same-key edits within a short window, capped at a fixed
// record depth, and each record self-describing for UI display.
package undo

import (
	"time"

	"github.com/wavecraft/wavecraft/internal/config"
)

// Record is an opaque apply/revert pair carrying exactly the state needed to
// restore the pre-image of the affected region.
type Record struct {
	// Describe returns a short, human-facing label such as "Apply Gain +3 dB".
	Describe func() string
	// Apply performs (or re-performs) the operation.
	Apply func()
	// Revert undoes the operation, restoring the prior state.
	Revert func()
	// CoalesceKey groups records eligible to merge into one; the empty key
	// never coalesces.
	CoalesceKey string
	createdAt   time.Time
}

// Manager is a single document's undo/redo stack.
//
// Interaction with playback: callers (the Document) are responsible for
// stopping the playback engine before Perform/Undo/Redo mutate buffer
// length, and for reinstalling the buffer handle afterward; the Manager
// itself has no playback dependency.
type Manager struct {
	maxDepth      int
	coalesceWindow time.Duration

	undoStack []*Record
	redoStack []*Record
}

// New returns a Manager using the configured max depth and coalesce window.
func New() *Manager {
	settings := config.Setting()
	return &Manager{
		maxDepth:       settings.Undo.MaxDepth,
		coalesceWindow: time.Duration(settings.Undo.CoalesceWindowMs) * time.Millisecond,
	}
}

// NewWithLimits builds a Manager with explicit limits, bypassing config —
// useful for tests and for embedding in a non-default document.
func NewWithLimits(maxDepth int, coalesceWindow time.Duration) *Manager {
	return &Manager{maxDepth: maxDepth, coalesceWindow: coalesceWindow}
}

// Perform applies rec and pushes it onto the undo stack, coalescing with the
// top-of-stack record if both carry the same non-empty CoalesceKey and rec
// arrives within the coalesce window of the prior record. Performing any new
// operation clears the redo stack.
func (m *Manager) Perform(rec *Record) {
	rec.createdAt = time.Now()
	rec.Apply()

	if top := m.top(); top != nil && rec.CoalesceKey != "" && top.CoalesceKey == rec.CoalesceKey &&
		rec.createdAt.Sub(top.createdAt) <= m.coalesceWindow {
		// Replace the top record's revert target with the pre-coalescing
		// state is the caller's responsibility (Revert must still restore
		// the pre-image of the *original* record in the group); we simply
		// keep the original entry's Revert and Describe, but refresh the
		// timestamp so the window keeps extending while edits continue.
		top.createdAt = rec.createdAt
		m.redoStack = nil
		return
	}

	m.undoStack = append(m.undoStack, rec)
	if len(m.undoStack) > m.maxDepth {
		m.undoStack = m.undoStack[len(m.undoStack)-m.maxDepth:]
	}
	m.redoStack = nil
}

func (m *Manager) top() *Record {
	if len(m.undoStack) == 0 {
		return nil
	}
	return m.undoStack[len(m.undoStack)-1]
}

// CanUndo reports whether Undo would have any effect.
func (m *Manager) CanUndo() bool { return len(m.undoStack) > 0 }

// CanRedo reports whether Redo would have any effect.
func (m *Manager) CanRedo() bool { return len(m.redoStack) > 0 }

// Undo pops the top record, reverts it, and pushes it to the redo stack.
// Returns false if the undo stack is empty.
func (m *Manager) Undo() bool {
	if len(m.undoStack) == 0 {
		return false
	}
	rec := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	rec.Revert()
	m.redoStack = append(m.redoStack, rec)
	return true
}

// Redo pops the top of the redo stack, re-applies it, and pushes it back
// onto the undo stack. Returns false if the redo stack is empty.
func (m *Manager) Redo() bool {
	if len(m.redoStack) == 0 {
		return false
	}
	rec := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	rec.Apply()
	m.undoStack = append(m.undoStack, rec)
	return true
}

// Descriptions returns the undo stack's labels, oldest first, for UI history
// display.
func (m *Manager) Descriptions() []string {
	out := make([]string, len(m.undoStack))
	for i, rec := range m.undoStack {
		out[i] = rec.Describe()
	}
	return out
}

// BreakCoalescing terminates any in-flight coalescing group, so the next
// Perform call will never merge into the current top record regardless of
// key or timing. Achieved by clearing the top record's CoalesceKey copy
// used for comparison.
func (m *Manager) BreakCoalescing() {
	if top := m.top(); top != nil {
		top.CoalesceKey = ""
	}
}

// Depth returns the current undo stack depth.
func (m *Manager) Depth() int { return len(m.undoStack) }
