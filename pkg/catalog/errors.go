package catalog

import "errors"

var (
	// ErrInvalidID is returned when a caller passes a non-positive item id.
	ErrInvalidID = errors.New("catalog: item id must be positive")

	// ErrInvalidItem is returned when an item fails validation before a write.
	ErrInvalidItem = errors.New("catalog: invalid item")

	// ErrNotFound is returned by writers when the item to change does not exist.
	ErrNotFound = errors.New("catalog: item not found")

	// ErrReadOnly is returned by write operations when no SourceWriter is configured.
	ErrReadOnly = errors.New("catalog: source is read-only")
)
