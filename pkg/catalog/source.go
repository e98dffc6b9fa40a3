package catalog

import (
	"context"
)

// Source is the system of record for catalog items.
type Source interface {
	// ReadAll returns every item.
	ReadAll(ctx context.Context) ([]Item, error)

	// ReadFiltered returns the items matching f, ordered by f.Sort.
	ReadFiltered(ctx context.Context, f Filter) ([]Item, error)

	// ReadByID returns the item, or found=false when it does not exist.
	ReadByID(ctx context.Context, id int64) (item Item, found bool, err error)
}

// SourceWriter mutates the system of record. Writes made through the
// Orchestrator invalidate the affected snapshots.
type SourceWriter interface {
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id int64) error
}
