// Package cart keeps one shopping cart per identity in the shared cache tier.
//
// Carts are a convenience store, not a system of record: every write resets
// a sliding expiration and a cart left untouched for the whole window is lost.
package cart

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoIdentity is returned when a call carries no usable identity.
	ErrNoIdentity = errors.New("cart: identity required")

	// ErrNegativePrice is returned by Add when the line price is below zero.
	ErrNegativePrice = errors.New("cart: price must not be negative")

	// ErrInvalidProductID is returned when a product id is not positive.
	ErrInvalidProductID = errors.New("cart: product id must be positive")
)

// Kind distinguishes authenticated users from guest sessions.
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// Identity partitions cart state. It is resolved once per request at the
// boundary and passed explicitly into every Store call.
type Identity struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// User returns the identity of an authenticated user.
func User(userID string) Identity {
	return Identity{Kind: KindUser, ID: strings.TrimSpace(userID)}
}

// Guest returns the identity of a guest session.
func Guest(sessionID string) Identity {
	return Identity{Kind: KindGuest, ID: strings.TrimSpace(sessionID)}
}

// Valid reports whether the identity can own a cart.
func (i Identity) Valid() bool {
	return (i.Kind == KindUser || i.Kind == KindGuest) && i.ID != ""
}

// String renders the identity as "user:<id>" or "guest:<id>".
func (i Identity) String() string {
	return string(i.Kind) + ":" + i.ID
}

// Line is one product in a cart. Name, price and image are copied when the
// product is added and never re-read from the catalog.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered list of lines owned by one identity.
type Cart struct {
	Owner     Identity  `json:"owner"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`

	// Merged holds marks of the guest carts already folded into this cart,
	// newest last, so a repeated merge of the same guest cart is skipped.
	Merged []string `json:"merged,omitempty"`
}

// maxMergeMarks bounds Cart.Merged.
const maxMergeMarks = 8

// mergeMark identifies one state of a guest cart. A guest cart changed after
// a merge gets a new mark and is merged again.
func mergeMark(guest *Cart) string {
	return fmt.Sprintf("%s@%d", guest.Owner, guest.UpdatedAt.UnixNano())
}

// hasMerged reports whether mark was already folded into c.
func (c *Cart) hasMerged(mark string) bool {
	return slices.Contains(c.Merged, mark)
}

// markMerged records mark, dropping the oldest marks beyond maxMergeMarks.
func (c *Cart) markMerged(mark string) {
	c.Merged = append(c.Merged, mark)
	if n := len(c.Merged); n > maxMergeMarks {
		c.Merged = c.Merged[n-maxMergeMarks:]
	}
}

// NewCart returns an empty cart owned by id.
func NewCart(id Identity) *Cart {
	return &Cart{Owner: id, Lines: []Line{}, UpdatedAt: time.Now()}
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Count returns the sum of quantities across lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Total returns the sum of line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID int64) (Line, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// add increments the line for l.ProductID by qty or appends l with qty.
func (c *Cart) add(l Line, qty int) {
	if i := c.indexOf(l.ProductID); i >= 0 {
		c.Lines[i].Quantity += qty
		return
	}
	l.Quantity = qty
	c.Lines = append(c.Lines, l)
}

// adjust changes the quantity of productID by delta and drops the line when
// it reaches zero. It reports false when no such line exists.
func (c *Cart) adjust(productID int64, delta int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity += delta
	if c.Lines[i].Quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
	return true
}

// validate checks the line invariants of a decoded cart.
func (c *Cart) validate() error {
	seen := make(map[int64]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.Quantity < 1 {
			return fmt.Errorf("line %d has quantity %d", l.ProductID, l.Quantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("duplicate line for product %d", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}
