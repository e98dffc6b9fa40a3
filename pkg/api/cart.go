package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/shopspring/decimal"
)

type lineView struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Owner     cart.Identity   `json:"owner"`
	Lines     []lineView      `json:"lines"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newCartView(c *cart.Cart) cartView {
	lines := make([]lineView, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = lineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			ImageURL:  l.ImageURL,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	return cartView{
		Owner:     c.Owner,
		Lines:     lines,
		Count:     c.Count(),
		Total:     c.Total(),
		UpdatedAt: c.UpdatedAt,
	}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// identify resolves the cart identity or writes the failure.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (cart.Identity, bool) {
	id, err := s.sessions.Identify(w, r)
	if err != nil {
		s.fail(w, r, err)
		return cart.Identity{}, false
	}
	return id, true
}

// writeCart responds with the current cart of id.
func (s *Server) writeCart(w http.ResponseWriter, r *http.Request, id cart.Identity, status int) {
	c, err := s.carts.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, newCartView(c))
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}
	s.writeCart(w, r, id, http.StatusOK)
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": s.carts.Count(r.Context(), id)})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	item, found, err := s.catalog.GetByID(r.Context(), req.ProductID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", req.ProductID))
		return
	}
	if !item.InStock() {
		writeError(w, http.StatusConflict, fmt.Sprintf("product %d is out of stock", req.ProductID))
		return
	}

	err = s.carts.Add(r.Context(), id, cart.NewLine{
		ProductID: item.ID,
		Name:      item.Name,
		Price:     item.Price,
		ImageURL:  item.ImageURL,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeCart(w, r, id, http.StatusOK)
}

func (s *Server) increaseQuantity(w http.ResponseWriter, r *http.Request) {
	s.adjustQuantity(w, r, s.carts.Increase)
}

func (s *Server) decreaseQuantity(w http.ResponseWriter, r *http.Request) {
	s.adjustQuantity(w, r, s.carts.Decrease)
}

func (s *Server) adjustQuantity(w http.ResponseWriter, r *http.Request, adjust func(ctx context.Context, id cart.Identity, productID int64) error) {
	productID, err := idParam(r, "productID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	if err := adjust(r.Context(), id, productID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeCart(w, r, id, http.StatusOK)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	if err := s.carts.Clear(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mergeCart folds the guest cart of the request's session cookie into the
// authenticated user's cart. Without a guest cookie it is a no-op.
func (s *Server) mergeCart(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessions.RequireUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user := cart.User(claims.Subject)

	if guestID, ok := s.sessions.ExistingGuestSessionID(r); ok {
		s.carts.MergeGuestInto(r.Context(), guestID, user)
	}
	s.writeCart(w, r, user, http.StatusOK)
}
