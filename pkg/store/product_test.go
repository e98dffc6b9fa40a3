package store

import (
	"testing"

	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/shopspring/decimal"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"shoes", "shoes"},
		{"100%", `100\%`},
		{"red_shoe", `red\_shoe`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	item := catalog.Item{
		ID:          7,
		Name:        "Desk Lamp",
		Price:       decimal.RequireFromString("24.50"),
		ImageURL:    "https://img.example.com/lamp.png",
		Description: "Warm light",
		Stock:       4,
	}

	got := recordFrom(item).item()
	if got.ID != item.ID || got.Name != item.Name || got.ImageURL != item.ImageURL ||
		got.Description != item.Description || got.Stock != item.Stock || !got.Price.Equal(item.Price) {
		t.Errorf("Record round trip mismatch: got %+v, want %+v", got, item)
	}
}

func TestProductRecordTableName(t *testing.T) {
	if got := (productRecord{}).TableName(); got != "products" {
		t.Errorf("Expected table products, got %s", got)
	}
}

func TestNewProductStore_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil db")
		}
	}()
	NewProductStore(nil)
}
