// Package plugins implements the plugin chain: lock-free real-time
// processing, message-thread mutation, and JSON chain persistence. Instance
// creation and crash-isolated scanning live in the sibling pluginscan
// package; this package only hosts already-instantiated plugins.
package plugins

import (
	"sync"
	"sync/atomic"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// Descriptor identifies a plugin instance's type for persistence and
// re-instantiation.
type Descriptor struct {
	Identifier string
	Name       string
	Format     string
}

// Instance is the minimal surface a hosted plugin must implement.
type Instance interface {
	Descriptor() Descriptor
	PrepareToPlay(sampleRate float64, blockSize int) error
	ReleaseResources()
	ProcessBlock(buf audiobuffer.PCM)
	LoadState(state []byte) error
	SaveState() []byte
	LatencySamples() int32
}

// Node wraps one hosted plugin instance with its real-time-safe state.
type Node struct {
	instance Instance
	bypassed atomic.Bool

	// pendingMu guards pendingState; acquired only from the UI thread via
	// Lock (never from the audio thread, which only TryLocks it once to
	// hand off state — see applyPendingState).
	pendingMu    sync.Mutex
	pendingState []byte
	pendingFlag  atomic.Bool
	activeState  []byte
}

// NewNode wraps an already-instantiated plugin.
func NewNode(instance Instance) *Node {
	return &Node{instance: instance}
}

// Descriptor returns the node's plugin descriptor.
func (n *Node) Descriptor() Descriptor { return n.instance.Descriptor() }

// Bypassed reports whether the node is currently bypassed.
func (n *Node) Bypassed() bool { return n.bypassed.Load() }

// SetBypassed flips the node's bypass flag; effective next block.
func (n *Node) SetBypassed(v bool) { n.bypassed.Store(v) }

// LatencySamples returns the node's reported latency.
func (n *Node) LatencySamples() int32 { return n.instance.LatencySamples() }

// SetPendingState queues state bytes to be applied by the audio thread at
// the start of its next processBlock. UI-thread only; takes a real lock
// since contention here is only ever against itself.
func (n *Node) SetPendingState(state []byte) {
	n.pendingMu.Lock()
	n.pendingState = state
	n.pendingMu.Unlock()
	n.pendingFlag.Store(true)
}

// applyPendingState test-and-clears the pending flag and, if set, takes the
// state under a non-blocking TryLock; on contention (UI mid-write) it defers
// to the next block rather than waiting.
func (n *Node) applyPendingState() {
	if !n.pendingFlag.Load() {
		return
	}
	if !n.pendingMu.TryLock() {
		return // deferred to next block
	}
	state := n.pendingState
	n.pendingMu.Unlock()
	n.pendingFlag.Store(false)
	if err := n.instance.LoadState(state); err == nil {
		n.activeState = state
	}
}

// Chain is an ordered list of plugin nodes processed on the audio thread.
// Mutations happen on the UI thread under mu and publish a new node slice
// via an atomic pointer swap so the audio thread never blocks; the prior
// slice is simply left for the garbage collector once no longer referenced.
type Chain struct {
	mu sync.Mutex // serialises UI-thread mutations against each other

	nodes      atomic.Pointer[[]*Node]
	sampleRate float64
	blockSize  int
	prepared   atomic.Bool
}

// New returns an empty, unprepared chain.
func New() *Chain {
	c := &Chain{}
	empty := []*Node{}
	c.nodes.Store(&empty)
	return c
}

// snapshot returns the currently published node list (read-only to callers).
func (c *Chain) snapshot() []*Node {
	return *c.nodes.Load()
}

// PrepareToPlay calls PrepareToPlay on every current instance.
func (c *Chain) PrepareToPlay(sampleRate float64, blockSize int) error {
	c.sampleRate = sampleRate
	c.blockSize = blockSize
	for _, n := range c.snapshot() {
		if err := n.instance.PrepareToPlay(sampleRate, blockSize); err != nil {
			return errors.New(err).
				Category(errors.CategoryPluginInstantiate).
				Context("identifier", n.Descriptor().Identifier).
				Build()
		}
	}
	c.prepared.Store(true)
	return nil
}

// ReleaseResources mirrors PrepareToPlay, calling ReleaseResources on every
// current instance.
func (c *Chain) ReleaseResources() {
	for _, n := range c.snapshot() {
		n.instance.ReleaseResources()
	}
	c.prepared.Store(false)
}

// ProcessBlock walks nodes in order; skips bypassed nodes; applies any
// pending state hand-off; then calls the instance's ProcessBlock. Never
// takes a blocking lock.
func (c *Chain) ProcessBlock(buf audiobuffer.PCM) {
	for _, n := range c.snapshot() {
		if n.bypassed.Load() {
			continue
		}
		n.applyPendingState()
		n.instance.ProcessBlock(buf)
	}
}

// Latency returns sum(node.latencySamples) over non-bypassed nodes.
func (c *Chain) Latency() int32 {
	var total int32
	for _, n := range c.snapshot() {
		if !n.bypassed.Load() {
			total += n.LatencySamples()
		}
	}
	return total
}

// Len returns the current node count.
func (c *Chain) Len() int { return len(c.snapshot()) }

// Nodes returns the currently published node list. Callers must treat it as
// read-only; mutate via Add/Insert/Remove/Move/Clear.
func (c *Chain) Nodes() []*Node { return c.snapshot() }

func (c *Chain) publish(next []*Node) {
	c.nodes.Store(&next)
}

// Add appends a node to the end of the chain.
func (c *Chain) Add(n *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	next := make([]*Node, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = n
	if c.prepared.Load() {
		_ = n.instance.PrepareToPlay(c.sampleRate, c.blockSize)
	}
	c.publish(next)
}

// Insert places a node at index idx, shifting subsequent nodes right.
func (c *Chain) Insert(idx int, n *Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if idx < 0 || idx > len(cur) {
		return errors.Newf("plugins: insert index %d out of range", idx).
			Category(errors.CategoryOutOfRange).Build()
	}
	next := make([]*Node, 0, len(cur)+1)
	next = append(next, cur[:idx]...)
	next = append(next, n)
	next = append(next, cur[idx:]...)
	if c.prepared.Load() {
		_ = n.instance.PrepareToPlay(c.sampleRate, c.blockSize)
	}
	c.publish(next)
	return nil
}

// Remove deletes the node at idx.
func (c *Chain) Remove(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if idx < 0 || idx >= len(cur) {
		return errors.Newf("plugins: remove index %d out of range", idx).
			Category(errors.CategoryOutOfRange).Build()
	}
	removed := cur[idx]
	next := make([]*Node, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	c.publish(next)
	removed.instance.ReleaseResources()
	return nil
}

// Move relocates the node at from to index to.
func (c *Chain) Move(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	if from < 0 || from >= len(cur) || to < 0 || to >= len(cur) {
		return errors.Newf("plugins: move indices (%d,%d) out of range", from, to).
			Category(errors.CategoryOutOfRange).Build()
	}
	next := make([]*Node, len(cur))
	copy(next, cur)
	n := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]*Node{n}, next[to:]...)...)
	c.publish(next)
	return nil
}

// Clear removes every node, releasing their resources.
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.snapshot() {
		n.instance.ReleaseResources()
	}
	empty := []*Node{}
	c.publish(empty)
}
