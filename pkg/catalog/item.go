// Package catalog serves product catalog reads through a local tier, a shared
// tier and the source store, and owns invalidation of the cached snapshots.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Item is a product as read from the source store. The cache never mutates
// items; it only mirrors snapshots of them.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description,omitempty"`
	Stock       int64           `json:"stock"`
}

// InStock reports whether at least one unit is available.
func (i Item) InStock() bool {
	return i.Stock > 0
}

// SortKey selects the ordering applied by the source store for filtered reads.
type SortKey string

const (
	SortDefault   SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortName      SortKey = "name"
	SortNewest    SortKey = "newest"
)

// ParseSortKey maps a request value onto a SortKey. Unknown values fall back
// to SortDefault.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceAsc, SortPriceDesc, SortName, SortNewest:
		return SortKey(s)
	default:
		return SortDefault
	}
}

// Filter is a predicate evaluated by the source store. Nil bounds are unset.
type Filter struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortKey
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f.Query == "" && f.MinPrice == nil && f.MaxPrice == nil && f.Sort == SortDefault
}
