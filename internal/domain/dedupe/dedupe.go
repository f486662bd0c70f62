// Package dedupe removes repeated product names within a category match set.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// Deduper records normalised product names so each appears once per match set.
type Deduper interface {
	// SeenAndRecord reports whether name was already recorded and records it
	// if not. Safe for concurrent use.
	SeenAndRecord(ctx context.Context, name string) bool

	// Reset forgets every recorded name so the deduper can serve the next set.
	Reset()
}

// KeyFunc turns a product name into its dedupe key.
type KeyFunc func(string) string

// NormalizeName lower-cases name, trims it and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	key      KeyFunc
	capacity int
}

// NewInMemoryDeduper creates a map-backed deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		key:      NormalizeName,
		capacity: 64,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, name string) bool {
	k := d.key(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.seen)
}
