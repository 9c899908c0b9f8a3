package store

// IndexBy builds a lookup map keyed by key(item). When two items share a
// key the later one wins.
func IndexBy[K comparable, V any](items []V, key func(V) K) map[K]V {
	m := make(map[K]V, len(items))
	for _, item := range items {
		m[key(item)] = item
	}
	return m
}

// GroupBy buckets items by key(item), preserving input order within each
// bucket.
func GroupBy[K comparable, V any](items []V, key func(V) K) map[K][]V {
	m := make(map[K][]V)
	for _, item := range items {
		k := key(item)
		m[k] = append(m[k], item)
	}
	return m
}

// CollectIDs returns the distinct keys reported by key, in first-seen
// order. Items for which key returns ok=false are skipped, which lets
// callers collect nullable foreign keys.
func CollectIDs[K comparable, V any](items []V, key func(V) (K, bool)) []K {
	seen := make(map[K]struct{}, len(items))
	out := make([]K, 0, len(items))
	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
