package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/shopspring/decimal"
)

type productList struct {
	Items []catalog.Item `json:"items"`
	Count int            `json:"count"`
}

func newProductList(items []catalog.Item) productList {
	if items == nil {
		items = []catalog.Item{}
	}
	return productList{Items: items, Count: len(items)}
}

// productRequest is the body of admin create and update calls.
type productRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url,max=1024"`
	Description string          `json:"description" validate:"max=4000"`
	Stock       int64           `json:"stock" validate:"gte=0"`
}

func (p productRequest) item(id int64) catalog.Item {
	return catalog.Item{
		ID:          id,
		Name:        strings.TrimSpace(p.Name),
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Stock:       p.Stock,
	}
}

// filterFromQuery builds a filter from q, min_price, max_price and sort. The
// second result is false when none of them is present.
func filterFromQuery(r *http.Request) (catalog.Filter, bool, error) {
	values := r.URL.Query()
	var f catalog.Filter
	present := false

	if values.Has("q") {
		present = true
		f.Query = strings.TrimSpace(values.Get("q"))
	}

	parsePrice := func(name string) (*decimal.Decimal, error) {
		if !values.Has(name) {
			return nil, nil
		}
		present = true
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a decimal (got %q)", errBadRequest, name, raw)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: %s must not be negative", errBadRequest, name)
		}
		return &d, nil
	}

	var err error
	if f.MinPrice, err = parsePrice("min_price"); err != nil {
		return catalog.Filter{}, false, err
	}
	if f.MaxPrice, err = parsePrice("max_price"); err != nil {
		return catalog.Filter{}, false, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return catalog.Filter{}, false, fmt.Errorf("%w: min_price exceeds max_price", errBadRequest)
	}

	if values.Has("sort") {
		present = true
		f.Sort = catalog.ParseSortKey(values.Get("sort"))
	}

	return f, present, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	f, filtered, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var items []catalog.Item
	if filtered {
		items = s.catalog.GetFiltered(r.Context(), f)
	} else {
		items = s.catalog.GetAll(r.Context())
	}
	writeJSON(w, http.StatusOK, newProductList(items))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	item, found, err := s.catalog.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !s.decode(w, r, &req) {
		return
	}

	created, err := s.catalog.Create(r.Context(), req.item(0))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req productRequest
	if !s.decode(w, r, &req) {
		return
	}

	item := req.item(id)
	if err := s.catalog.Update(r.Context(), item); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) invalidateAll(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.InvalidateAll(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) invalidateByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.catalog.InvalidateByID(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
