// Package api exposes the catalog, cart and chat operations over HTTP.
//
// Identity is resolved once per request by the session resolver and passed
// explicitly into every cart call. Admin routes require the admin role.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/Sternrassler/storefront/pkg/intent"
	"github.com/Sternrassler/storefront/pkg/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Catalog is the catalog surface served by the API.
type Catalog interface {
	GetAll(ctx context.Context) []catalog.Item
	GetFiltered(ctx context.Context, f catalog.Filter) []catalog.Item
	GetByID(ctx context.Context, id int64) (catalog.Item, bool, error)

	Create(ctx context.Context, item catalog.Item) (catalog.Item, error)
	Update(ctx context.Context, item catalog.Item) error
	Delete(ctx context.Context, id int64) error

	InvalidateAll(ctx context.Context) error
	InvalidateByID(ctx context.Context, id int64) error
}

// Carts is the cart surface served by the API.
type Carts interface {
	Get(ctx context.Context, id cart.Identity) (*cart.Cart, error)
	Add(ctx context.Context, id cart.Identity, l cart.NewLine) error
	Increase(ctx context.Context, id cart.Identity, productID int64) error
	Decrease(ctx context.Context, id cart.Identity, productID int64) error
	Clear(ctx context.Context, id cart.Identity) error
	Count(ctx context.Context, id cart.Identity) int
	MergeGuestInto(ctx context.Context, guestSessionID string, user cart.Identity)
}

// Assistant answers chat messages.
type Assistant interface {
	Handle(ctx context.Context, id cart.Identity, message string) (intent.Reply, error)
}

// ReadyFunc reports whether the shared dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

// Config holds the API dependencies.
type Config struct {
	Catalog   Catalog
	Carts     Carts
	Sessions  *session.Resolver
	Assistant Assistant

	// Ready backs GET /ready. Nil means always ready.
	Ready ReadyFunc

	// RequestTimeout bounds each request. Zero disables the limit.
	RequestTimeout time.Duration

	Logger *zerolog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	catalog   Catalog
	carts     Carts
	sessions  *session.Resolver
	assistant Assistant
	ready     ReadyFunc
	timeout   time.Duration
	validate  *validator.Validate
	logger    zerolog.Logger
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil || cfg.Carts == nil {
		return nil, fmt.Errorf("catalog and cart store are required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session resolver is required")
	}
	if cfg.Assistant == nil {
		return nil, fmt.Errorf("assistant is required")
	}

	logger := log.With().Str("component", "api").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Server{
		catalog:   cfg.Catalog,
		carts:     cfg.Carts,
		sessions:  cfg.Sessions,
		assistant: cfg.Assistant,
		ready:     cfg.Ready,
		timeout:   cfg.RequestTimeout,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	if s.timeout > 0 {
		r.Use(chimiddleware.Timeout(s.timeout))
	}

	r.Get("/health", s.health)
	r.Get("/ready", s.readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{id}", s.getProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.getCart)
			r.Delete("/", s.clearCart)
			r.Get("/count", s.cartCount)
			r.Post("/items", s.addToCart)
			r.Post("/items/{productID}/increase", s.increaseQuantity)
			r.Post("/items/{productID}/decrease", s.decreaseQuantity)
			r.Post("/merge", s.mergeCart)
		})

		r.Post("/chat", s.chat)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireRole(session.RoleAdmin))
			r.Post("/products", s.createProduct)
			r.Put("/products/{id}", s.updateProduct)
			r.Delete("/products/{id}", s.deleteProduct)
			r.Post("/cache/invalidate", s.invalidateAll)
			r.Post("/cache/invalidate/{id}", s.invalidateByID)
		})
	})

	return r
}
