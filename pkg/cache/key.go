package cache

import (
	"strconv"
	"strings"
)

// Key namespaces.
const (
	NamespaceCatalog = "catalog"
	NamespaceCart    = "cart"
)

// localSuffix marks keys that belong to the local tier. Local and shared
// keys never collide, so a tier can be swapped without key clashes.
const localSuffix = "local"

// CacheKey represents a unique identifier for a cached value.
type CacheKey struct {
	// Namespace groups keys by owner (e.g., "catalog", "cart")
	Namespace string

	// Parts are joined after the namespace (e.g., ["item", "42"])
	Parts []string

	// Local marks the key as belonging to the local (L1) tier
	Local bool
}

// String generates a deterministic cache key string.
// Format: namespace:part1:part2[:local]
//
// Example:
//
//	catalog:item:42:local
func (k CacheKey) String() string {
	parts := make([]string, 0, len(k.Parts)+2)
	parts = append(parts, k.Namespace)

	for _, p := range k.Parts {
		p = strings.Trim(p, ":")
		if p != "" {
			parts = append(parts, p)
		}
	}

	if k.Local {
		parts = append(parts, localSuffix)
	}

	return strings.Join(parts, ":")
}

// ListingKey returns the key of the full catalog listing snapshot.
func ListingKey(local bool) string {
	return CacheKey{Namespace: NamespaceCatalog, Parts: []string{"all"}, Local: local}.String()
}

// ItemKey returns the key of a single catalog item snapshot.
func ItemKey(id int64, local bool) string {
	return CacheKey{
		Namespace: NamespaceCatalog,
		Parts:     []string{"item", strconv.FormatInt(id, 10)},
		Local:     local,
	}.String()
}

// CartKey returns the key of the cart owned by identity ("user:17", "guest:<session>").
func CartKey(identity string) string {
	// identity already contains ":" between kind and id; keep it verbatim.
	return NamespaceCart + ":" + identity
}
