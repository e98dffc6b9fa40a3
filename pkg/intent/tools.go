package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/Sternrassler/storefront/pkg/catalog"
)

var (
	// ErrUnknownTool is returned by Execute for a tool name outside the schema.
	ErrUnknownTool = errors.New("intent: unknown tool")

	// ErrInvalidArguments is returned by Execute when tool arguments do not
	// match the schema.
	ErrInvalidArguments = errors.New("intent: invalid tool arguments")
)

// maxSearchResults caps the number of products listed in a search answer.
const maxSearchResults = 5

// Catalog is the part of catalog.Orchestrator the tools use.
type Catalog interface {
	GetFiltered(ctx context.Context, f catalog.Filter) []catalog.Item
	GetByID(ctx context.Context, id int64) (catalog.Item, bool, error)
}

// Carts is the part of cart.Store the tools use.
type Carts interface {
	Get(ctx context.Context, id cart.Identity) (*cart.Cart, error)
	Add(ctx context.Context, id cart.Identity, l cart.NewLine) error
	Increase(ctx context.Context, id cart.Identity, productID int64) error
	Decrease(ctx context.Context, id cart.Identity, productID int64) error
	Clear(ctx context.Context, id cart.Identity) error
}

// Tools executes the fixed action set and renders a text result for each.
// Errors are returned only when an action could not be carried out; a
// missing product or cart line is answered in text.
type Tools struct {
	catalog Catalog
	carts   Carts
}

// NewTools creates the tool set. It panics if either dependency is nil.
func NewTools(c Catalog, carts Carts) *Tools {
	if c == nil || carts == nil {
		panic("intent: catalog and cart store are required")
	}
	return &Tools{catalog: c, carts: carts}
}

// ViewCart describes the cart of id.
func (t *Tools) ViewCart(ctx context.Context, id cart.Identity) (string, error) {
	c, err := t.carts.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if c.IsEmpty() {
		return "Your cart is empty.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your cart has %d item(s):\n", c.Count())
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "- %s x%d at %s = %s\n", l.Name, l.Quantity, l.Price.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s", c.Total().StringFixed(2))
	return b.String(), nil
}

// Search lists products whose name or description matches query.
func (t *Tools) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "What would you like me to search for?", nil
	}

	items := t.catalog.GetFiltered(ctx, catalog.Filter{Query: query})
	if len(items) == 0 {
		return fmt.Sprintf("I couldn't find any products matching %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d product(s) matching %q:", len(items), query)
	for i, item := range items {
		if i == maxSearchResults {
			fmt.Fprintf(&b, "\n...and %d more.", len(items)-maxSearchResults)
			break
		}
		fmt.Fprintf(&b, "\n- #%d %s (%s)", item.ID, item.Name, item.Price.StringFixed(2))
	}
	return b.String(), nil
}

// Details describes one product.
func (t *Tools) Details(ctx context.Context, productID int64) (string, error) {
	item, found, err := t.catalog.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if !found {
		return notFound(productID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d) costs %s.", item.Name, item.ID, item.Price.StringFixed(2))
	if item.Description != "" {
		fmt.Fprintf(&b, " %s", item.Description)
	}
	if item.InStock() {
		fmt.Fprintf(&b, " %d in stock.", item.Stock)
	} else {
		b.WriteString(" Currently out of stock.")
	}
	return b.String(), nil
}

// Result is the answer of one tool call. Applied is false when a cart tool
// answered without changing the cart, for example when the product is
// unknown or the cart has no such line.
type Result struct {
	Text    string
	Applied bool
}

func applied(text string) Result { return Result{Text: text, Applied: true} }
func declined(text string) Result { return Result{Text: text} }

// AddToCart puts one unit of productID into the cart of id. Name, price and
// image are taken from the catalog at this moment.
func (t *Tools) AddToCart(ctx context.Context, id cart.Identity, productID int64) (string, error) {
	r, err := t.addToCart(ctx, id, productID)
	return r.Text, err
}

func (t *Tools) addToCart(ctx context.Context, id cart.Identity, productID int64) (Result, error) {
	item, found, err := t.catalog.GetByID(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return declined(notFound(productID)), nil
	}
	if !item.InStock() {
		return declined(fmt.Sprintf("Sorry, %s is out of stock.", item.Name)), nil
	}

	err = t.carts.Add(ctx, id, cart.NewLine{
		ProductID: item.ID,
		Name:      item.Name,
		Price:     item.Price,
		ImageURL:  item.ImageURL,
	})
	if err != nil {
		return Result{}, err
	}
	return applied(fmt.Sprintf("Added %s to your cart.", item.Name)), nil
}

// IncreaseQuantity adds one unit to an existing cart line.
func (t *Tools) IncreaseQuantity(ctx context.Context, id cart.Identity, productID int64) (string, error) {
	r, err := t.increaseQuantity(ctx, id, productID)
	return r.Text, err
}

func (t *Tools) increaseQuantity(ctx context.Context, id cart.Identity, productID int64) (Result, error) {
	line, ok, err := t.line(ctx, id, productID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return declined(notInCart(productID)), nil
	}
	if err := t.carts.Increase(ctx, id, productID); err != nil {
		return Result{}, err
	}
	return applied(fmt.Sprintf("You now have %d x %s in your cart.", line.Quantity+1, line.Name)), nil
}

// DecreaseQuantity removes one unit from an existing cart line.
func (t *Tools) DecreaseQuantity(ctx context.Context, id cart.Identity, productID int64) (string, error) {
	r, err := t.decreaseQuantity(ctx, id, productID)
	return r.Text, err
}

func (t *Tools) decreaseQuantity(ctx context.Context, id cart.Identity, productID int64) (Result, error) {
	line, ok, err := t.line(ctx, id, productID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return declined(notInCart(productID)), nil
	}
	if err := t.carts.Decrease(ctx, id, productID); err != nil {
		return Result{}, err
	}
	if line.Quantity <= 1 {
		return applied(fmt.Sprintf("Removed %s from your cart.", line.Name)), nil
	}
	return applied(fmt.Sprintf("You now have %d x %s in your cart.", line.Quantity-1, line.Name)), nil
}

// ClearCart empties the cart of id.
func (t *Tools) ClearCart(ctx context.Context, id cart.Identity) (string, error) {
	if err := t.carts.Clear(ctx, id); err != nil {
		return "", err
	}
	return "Your cart has been cleared.", nil
}

func (t *Tools) line(ctx context.Context, id cart.Identity, productID int64) (cart.Line, bool, error) {
	c, err := t.carts.Get(ctx, id)
	if err != nil {
		return cart.Line{}, false, err
	}
	l, ok := c.Line(productID)
	return l, ok, nil
}

func notFound(productID int64) string {
	return fmt.Sprintf("I couldn't find product #%d.", productID)
}

func notInCart(productID int64) string {
	return fmt.Sprintf("Product #%d is not in your cart.", productID)
}

// ToolCall is one tool invocation selected by an engine.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolArgs struct {
	Query     string `json:"query"`
	ProductID int64  `json:"product_id"`
}

// Execute runs call for identity id through the same methods the Router uses.
func (t *Tools) Execute(ctx context.Context, id cart.Identity, call ToolCall) (Result, error) {
	var args toolArgs
	if len(call.Arguments) > 0 && string(call.Arguments) != "null" {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, call.Name, err)
		}
	}

	switch call.Name {
	case ActionViewCart:
		return always(t.ViewCart(ctx, id))
	case ActionSearchProducts:
		return always(t.Search(ctx, args.Query))
	case ActionClearCart:
		return always(t.ClearCart(ctx, id))
	case ActionProductDetails, ActionAddToCart, ActionIncreaseQuantity, ActionDecreaseQuantity:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	if args.ProductID <= 0 {
		return Result{}, fmt.Errorf("%w: %s requires a positive product_id", ErrInvalidArguments, call.Name)
	}
	switch call.Name {
	case ActionProductDetails:
		return always(t.Details(ctx, args.ProductID))
	case ActionAddToCart:
		return t.addToCart(ctx, id, args.ProductID)
	case ActionIncreaseQuantity:
		return t.increaseQuantity(ctx, id, args.ProductID)
	default:
		return t.decreaseQuantity(ctx, id, args.ProductID)
	}
}

// always marks the answer of a read-only or unconditional tool as applied.
func always(text string, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return applied(text), nil
}
