package sources

import (
	"math/rand"
	"sort"
)

// Sample keeps a random subset of n items in their original order. n <= 0 or
// n >= len(items) keeps everything.
func Sample[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	idx := rand.Perm(len(items))[:n]
	sort.Ints(idx)
	out := make([]T, 0, n)
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}
