// Package features holds the host's per-application capability registry.
//
// Each capability is addressed by a typed Key. The key's name is the only
// identity, so two keys with the same name address the same slot; Get on a
// key whose type does not match the stored value reports the slot as empty.
//
//	var ClockKey = features.NewKey[Clock]("clock")
//
//	features.Set(c, ClockKey, systemClock{})
//	clock, ok := features.Get(c, ClockKey)
package features

import (
	"fmt"
	"sort"
	"sync"
)

// Key addresses a capability of type T.
type Key[T any] struct {
	name string
}

// NewKey creates a Key. Names should be unique per capability.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key's tag.
func (k Key[T]) Name() string {
	return k.name
}

func (k Key[T]) String() string {
	return fmt.Sprintf("%s(%T)", k.name, *new(T))
}

// Collection is a concurrency-safe map from capability keys to values.
type Collection struct {
	mu    sync.Mutex
	items map[string]any
}

// NewCollection creates an empty Collection.
func NewCollection() *Collection {
	return &Collection{items: make(map[string]any)}
}

// Set stores v under key, replacing any previous value. A nil interface value is rejected.
func Set[T any](c *Collection, key Key[T], v T) error {
	if any(v) == nil {
		return fmt.Errorf("feature %s: value must not be nil", key.name)
	}
	c.mu.Lock()
	c.items[key.name] = v
	c.mu.Unlock()
	return nil
}

// Get returns the value stored under key.
func Get[T any](c *Collection, key Key[T]) (T, bool) {
	c.mu.Lock()
	raw, ok := c.items[key.name]
	c.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Has reports whether a value of type T is stored under key.
func Has[T any](c *Collection, key Key[T]) bool {
	_, ok := Get(c, key)
	return ok
}

// Remove deletes the value stored under key and reports whether one was present.
func Remove[T any](c *Collection, key Key[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key.name]; !ok {
		return false
	}
	delete(c.items, key.name)
	return true
}

// Names returns the tags of every stored capability, sorted.
func (c *Collection) Names() []string {
	c.mu.Lock()
	names := make([]string, 0, len(c.items))
	for name := range c.items {
		names = append(names, name)
	}
	c.mu.Unlock()

	sort.Strings(names)
	return names
}

// Len returns the number of stored capabilities.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
