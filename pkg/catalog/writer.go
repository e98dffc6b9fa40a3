package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Validate checks the invariants of an item before it is written.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if i.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidItem)
	}
	return nil
}

// Create adds an item to the source store and invalidates the listing.
func (o *Orchestrator) Create(ctx context.Context, item Item) (Item, error) {
	if o.cfg.Writer == nil {
		return Item{}, ErrReadOnly
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}

	created, err := o.cfg.Writer.Create(ctx, item)
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}

	if err := o.InvalidateAll(ctx); err != nil {
		o.logger.Error().Err(err).Int64("id", created.ID).Msg("Listing stays cached until TTL after create")
	}
	return created, nil
}

// Update replaces an item in the source store and invalidates its snapshots.
func (o *Orchestrator) Update(ctx context.Context, item Item) error {
	if o.cfg.Writer == nil {
		return ErrReadOnly
	}
	if item.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, item.ID)
	}
	if err := item.Validate(); err != nil {
		return err
	}

	if err := o.cfg.Writer.Update(ctx, item); err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}

	if err := o.InvalidateByID(ctx, item.ID); err != nil {
		o.logger.Error().Err(err).Int64("id", item.ID).Msg("Item stays cached until TTL after update")
	}
	return nil
}

// Delete removes an item from the source store and invalidates its snapshots.
func (o *Orchestrator) Delete(ctx context.Context, id int64) error {
	if o.cfg.Writer == nil {
		return ErrReadOnly
	}
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	if err := o.cfg.Writer.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}

	if err := o.InvalidateByID(ctx, id); err != nil {
		o.logger.Error().Err(err).Int64("id", id).Msg("Item stays cached until TTL after delete")
	}
	return nil
}
