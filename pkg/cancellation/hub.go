// Package cancellation provides the host-wide shutdown signal.
//
// A Hub owns a root context that is cancelled exactly once when the host is
// asked to stop. Components that need their own cancellation scope create a
// linked Source: cancelling the Source only affects its holder, cancelling
// the Hub reaches every Source.
package cancellation

import (
	"context"
	"sync"

	"keel/pkg/result"
)

// ErrClosed is returned when a closed Hub is used.
var ErrClosed = result.NewError(result.CodeInvalidState, "cancellation hub is closed")

// Hub is the root of the host's cancellation tree.
type Hub struct {
	root   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	sources map[*Source]struct{}
	closed  bool
}

// NewHub creates a Hub with a fresh, uncancelled root.
func NewHub() *Hub {
	root, cancel := context.WithCancel(context.Background())
	return &Hub{
		root:    root,
		cancel:  cancel,
		sources: make(map[*Source]struct{}),
	}
}

// Root returns the root shutdown context.
func (h *Hub) Root() context.Context {
	return h.root
}

// Done is closed once the root has been cancelled.
func (h *Hub) Done() <-chan struct{} {
	return h.root.Done()
}

// Cancelled reports whether the root has been cancelled.
func (h *Hub) Cancelled() bool {
	return h.root.Err() != nil
}

// NewLinkedSource creates a Source whose context is a child of the root.
func (h *Hub) NewLinkedSource() (*Source, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(h.root)
	s := &Source{ctx: ctx, cancel: cancel, hub: h}
	h.sources[s] = struct{}{}
	return s, nil
}

// Cancel cancels the root and, through it, every linked Source. Repeated
// calls are no-ops.
func (h *Hub) Cancel() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return ErrClosed
	}
	h.cancel()
	return nil
}

// Close cancels the root and every tracked Source and releases them. The Hub
// is unusable afterwards. Repeated calls are no-ops.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	sources := make([]*Source, 0, len(h.sources))
	for s := range h.sources {
		sources = append(sources, s)
	}
	h.sources = make(map[*Source]struct{})
	h.mu.Unlock()

	h.cancel()
	for _, s := range sources {
		cancelQuietly(s.cancel)
	}
	return nil
}

// Tracked returns the number of linked sources still tracked by the Hub.
func (h *Hub) Tracked() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sources)
}

func (h *Hub) untrack(s *Source) {
	h.mu.Lock()
	delete(h.sources, s)
	h.mu.Unlock()
}

// cancelQuietly runs cancel, ignoring a panic so that every source gets its turn.
func cancelQuietly(cancel context.CancelFunc) {
	defer func() { _ = recover() }()
	cancel()
}

// Source is a cancellation scope linked to a Hub's root.
type Source struct {
	ctx    context.Context
	cancel context.CancelFunc
	hub    *Hub
}

// Context returns the Source's context. It is done when either the Source
// or the Hub root is cancelled.
func (s *Source) Context() context.Context {
	return s.ctx
}

// Cancel cancels this Source only.
func (s *Source) Cancel() {
	s.cancel()
}

// Release cancels the Source and stops tracking it.
func (s *Source) Release() {
	s.cancel()
	s.hub.untrack(s)
}
