package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type productRecord struct {
	ID          int64           `gorm:"primaryKey"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;index"`
	ImageURL    string          `gorm:"size:1024"`
	Stock       int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time
}

func (productRecord) TableName() string {
	return "products"
}

func (r productRecord) item() catalog.Item {
	return catalog.Item{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Description: r.Description,
		Stock:       r.Stock,
	}
}

func recordFrom(item catalog.Item) productRecord {
	return productRecord{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		Stock:       item.Stock,
	}
}

// ProductStore implements catalog.Source and catalog.SourceWriter.
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore creates a store. Panics if db is nil.
func NewProductStore(db *gorm.DB) *ProductStore {
	if db == nil {
		panic("gorm db cannot be nil")
	}
	return &ProductStore{db: db}
}

// ReadAll returns every product, newest first.
func (s *ProductStore) ReadAll(ctx context.Context) ([]catalog.Item, error) {
	var records []productRecord
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return items(records), nil
}

// ReadFiltered returns the products matching f. Query matches name or
// description case-insensitively.
func (s *ProductStore) ReadFiltered(ctx context.Context, f catalog.Filter) ([]catalog.Item, error) {
	tx := s.db.WithContext(ctx).Model(&productRecord{})

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}

	switch f.Sort {
	case catalog.SortPriceAsc:
		tx = tx.Order("price asc").Order("id asc")
	case catalog.SortPriceDesc:
		tx = tx.Order("price desc").Order("id desc")
	case catalog.SortName:
		tx = tx.Order("name asc").Order("id asc")
	default:
		// SortNewest and SortDefault
		tx = tx.Order("created_at desc").Order("id desc")
	}

	var records []productRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read filtered products: %w", err)
	}
	return items(records), nil
}

// ReadByID returns the product with id, or found=false.
func (s *ProductStore) ReadByID(ctx context.Context, id int64) (catalog.Item, bool, error) {
	var r productRecord
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Item{}, false, nil
	}
	if err != nil {
		return catalog.Item{}, false, fmt.Errorf("read product %d: %w", id, err)
	}
	return r.item(), true, nil
}

// Create inserts item. A zero ID is assigned by the database.
func (s *ProductStore) Create(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	r := recordFrom(item)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return catalog.Item{}, fmt.Errorf("insert product: %w", err)
	}
	return r.item(), nil
}

// Update replaces the mutable fields of item. Returns catalog.ErrNotFound
// when no row has item.ID.
func (s *ProductStore) Update(ctx context.Context, item catalog.Item) error {
	res := s.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
		"image_url":   item.ImageURL,
		"stock":       item.Stock,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes the product. Returns catalog.ErrNotFound when it does not
// exist.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&productRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func items(records []productRecord) []catalog.Item {
	out := make([]catalog.Item, len(records))
	for i, r := range records {
		out[i] = r.item()
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var (
	_ catalog.Source       = (*ProductStore)(nil)
	_ catalog.SourceWriter = (*ProductStore)(nil)
)
