// Package collections holds small generic helpers for building scenario
// data: cartesian expansion of parameter tables, map extension and merging,
// powersets and partitions.
package collections

import (
	"maps"
	"slices"
)

// Evert expands a list of parameter tables into every combination.
//
// Each map pairs a key with its candidate values. The result holds one
// entry per combination, in odometer order with the last key varying
// fastest; each entry has one single-key map per input key. Keys within one
// map are taken in sorted order.
//
//	Evert([]map[string][]any{{"a": {1, 2}}, {"b": {3}}})
//	// [[{a:1} {b:3}] [{a:2} {b:3}]]
//
// An empty input yields a single empty combination; a key with no values
// yields none.
func Evert(tables []map[string][]any) [][]map[string]any {
	type dimension struct {
		key    string
		values []any
	}

	var dims []dimension
	for _, table := range tables {
		for _, key := range slices.Sorted(maps.Keys(table)) {
			dims = append(dims, dimension{key: key, values: table[key]})
		}
	}

	result := [][]map[string]any{{}}
	for _, dim := range dims {
		next := make([][]map[string]any, 0, len(result)*len(dim.values))
		for _, prefix := range result {
			for _, value := range dim.values {
				combination := make([]map[string]any, len(prefix), len(prefix)+1)
				copy(combination, prefix)
				combination = append(combination, map[string]any{dim.key: value})
				next = append(next, combination)
			}
		}
		result = next
	}
	return result
}

// Extend returns a copy of base with the entries of extension added,
// replacing any existing values. Nested maps in base are deep-copied.
func Extend(base, extension map[string]any) map[string]any {
	out := deepCopy(base)
	for key, value := range extension {
		out[key] = value
	}
	return out
}

// Merge is Extend, except that where both sides hold a map for the same key
// the maps are merged recursively.
func Merge(base, extension map[string]any) map[string]any {
	out := deepCopy(base)
	for key, value := range extension {
		nested, isMap := value.(map[string]any)
		existing, hasMap := out[key].(map[string]any)
		if isMap && hasMap {
			out[key] = Merge(existing, nested)
			continue
		}
		out[key] = value
	}
	return out
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopyValue(elem)
		}
		return out
	default:
		return v
	}
}

// Powerset returns every subset of items, ordered by size and then by
// position: [], [a], [b], [a b] for items [a b].
func Powerset[T any](items []T) [][]T {
	out := make([][]T, 0, 1<<len(items))
	for size := 0; size <= len(items); size++ {
		out = appendCombinations(out, items, size)
	}
	return out
}

func appendCombinations[T any](out [][]T, items []T, size int) [][]T {
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}

	for {
		combination := make([]T, size)
		for i, index := range indices {
			combination[i] = items[index]
		}
		out = append(out, combination)

		// Advance the rightmost index that still has room.
		i := size - 1
		for i >= 0 && indices[i] == len(items)-size+i {
			i--
		}
		if i < 0 {
			return out
		}
		indices[i]++
		for j := i + 1; j < size; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// BinaryPartition splits items by pred, keeping their order. The first
// result holds items for which pred is false.
func BinaryPartition[T any](items []T, pred func(T) bool) (falses, trues []T) {
	falses, trues = []T{}, []T{}
	for _, item := range items {
		if pred(item) {
			trues = append(trues, item)
		} else {
			falses = append(falses, item)
		}
	}
	return falses, trues
}
