// Package sliceutil provides generic slice helpers used when loading datasets.
package sliceutil

// Deduplicate keeps the first item for each key, in input order.
//
//	aliases := sliceutil.Deduplicate(normalized, func(s string) string { return s })
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, item)
		}
	}
	return result
}

// DeduplicateLast keeps the last item for each key, placed where the key
// first appeared. A later dataset entry overrides an earlier one without
// reordering the rest.
func DeduplicateLast[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	index := make(map[K]int, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if i, ok := index[key]; ok {
			result[i] = item
			continue
		}
		index[key] = len(result)
		result = append(result, item)
	}
	return result
}
