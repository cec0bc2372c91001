// Package viewmodel derives display data from loaded page state. Every
// function is pure: inputs are never modified and results are recomputed on
// each call.
package viewmodel

import (
	"sort"
	"strings"
)

// All is the filter value that disables a filter.
const All = "all"

// Filter returns the items whose key equals value. An empty value or All
// returns items itself, unfiltered.
func Filter[T any](items []T, value string, key func(T) string) []T {
	if value == "" || value == All {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if key(it) == value {
			out = append(out, it)
		}
	}
	return out
}

// Search returns the items where any field contains query, ignoring case.
// A blank query returns items.
func Search[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// CountBy counts items per key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// Count is one row of a grouped count.
type Count struct {
	Key   string
	Count int
}

// GroupCounts orders counts by count descending, then key ascending.
func GroupCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CountsIn returns counts for keys in the given order, including zeros.
func CountsIn(counts map[string]int, keys []string) []Count {
	out := make([]Count, len(keys))
	for i, k := range keys {
		out[i] = Count{Key: k, Count: counts[k]}
	}
	return out
}

// SortBy returns a sorted copy of items. The sort is stable.
func SortBy[T any](items []T, less func(a, b T) bool) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TopN returns at most n items of the sorted copy.
func TopN[T any](items []T, n int, less func(a, b T) bool) []T {
	out := SortBy(items, less)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
