// Package console implements the building blocks of the gateway
// administration console: keyed collections with stable row identity,
// the edit dialog state machine, the single-slot feedback channel, the
// page router, and the management pages themselves.
package console

import "reflect"

// Collection is an ordered set of rows keyed by a stable identifier.
// Insert, remove, and reorder never renumber the remaining rows, so a
// lookup by identifier keeps resolving to the same record. The
// collection tracks divergence from the last fetched or saved
// snapshot.
type Collection[T any] struct {
	key   func(T) string
	items []T
	saved []T
}

// NewCollection constructs an empty collection keyed by the given
// identifier function.
func NewCollection[T any](key func(T) string) *Collection[T] {
	return &Collection[T]{key: key}
}

// Reset replaces the rows with a fresh server snapshot and clears the
// dirty state.
func (c *Collection[T]) Reset(items []T) {
	c.items = append([]T(nil), items...)
	c.saved = append([]T(nil), items...)
}

// Items returns the rows in order.
func (c *Collection[T]) Items() []T {
	return append([]T(nil), c.items...)
}

// Len returns the number of rows.
func (c *Collection[T]) Len() int { return len(c.items) }

// Lookup returns the row with the given identifier.
func (c *Collection[T]) Lookup(id string) (T, bool) {
	for _, item := range c.items {
		if c.key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// IDs returns the row identifiers in order.
func (c *Collection[T]) IDs() []string {
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = c.key(item)
	}
	return ids
}

// Upsert replaces the row with the same identifier in place, or
// appends when no such row exists.
func (c *Collection[T]) Upsert(item T) {
	id := c.key(item)
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

// Remove drops the row with the given identifier.
func (c *Collection[T]) Remove(id string) bool {
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// MoveUp swaps the row with its predecessor. The first row stays put.
func (c *Collection[T]) MoveUp(id string) bool {
	for i := range c.items {
		if c.key(c.items[i]) == id {
			if i == 0 {
				return false
			}
			c.items[i-1], c.items[i] = c.items[i], c.items[i-1]
			return true
		}
	}
	return false
}

// MoveDown swaps the row with its successor. The last row stays put.
func (c *Collection[T]) MoveDown(id string) bool {
	for i := range c.items {
		if c.key(c.items[i]) == id {
			if i == len(c.items)-1 {
				return false
			}
			c.items[i], c.items[i+1] = c.items[i+1], c.items[i]
			return true
		}
	}
	return false
}

// Dirty reports whether the rows have diverged from the last snapshot.
// Edits that cancel out, like a reorder moved back, leave the
// collection clean.
func (c *Collection[T]) Dirty() bool {
	return !reflect.DeepEqual(c.items, c.saved)
}

// MarkSaved accepts the current rows as the new saved snapshot.
func (c *Collection[T]) MarkSaved() {
	c.saved = append([]T(nil), c.items...)
}
