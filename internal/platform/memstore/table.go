// Package memstore provides the in-memory tables the sandbox repositories
// are built on when no database is configured.
package memstore

import (
	"sort"
	"sync"
)

// Table is a concurrency-safe map of records keyed by id. Records are
// stored by value; reference fields inside them are shared.
type Table[K comparable, T any] struct {
	mu    sync.RWMutex
	rows  map[K]T
	order []K
}

func NewTable[K comparable, T any]() *Table[K, T] {
	return &Table[K, T]{rows: make(map[K]T)}
}

// Put inserts or replaces the record with id.
func (t *Table[K, T]) Put(id K, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

// Get returns the record with id.
func (t *Table[K, T]) Get(id K) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

// Update applies fn to the stored record under the write lock. It
// returns false when id is unknown and propagates fn's error unchanged,
// leaving the record as it was.
func (t *Table[K, T]) Update(id K, fn func(*T) error) (T, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	if err := fn(&v); err != nil {
		return t.rows[id], true, err
	}
	t.rows[id] = v
	return v, true, nil
}

// Find returns the first record, in insertion order, matching keep.
func (t *Table[K, T]) Find(keep func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if v := t.rows[id]; keep(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Select returns matching records in insertion order, or sorted by less
// when it is non-nil. A nil keep matches everything.
func (t *Table[K, T]) Select(keep func(T) bool, less func(a, b T) bool) []T {
	t.mu.RLock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	t.mu.RUnlock()
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// Len returns the number of records.
func (t *Table[K, T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Window slices items for limit/offset paging and returns the page with
// the unpaged total.
func Window[T any](items []T, limit, offset int) ([]T, int) {
	total := len(items)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return items[offset:end], total
}
