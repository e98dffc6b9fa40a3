// Package session resolves the cart identity of an HTTP request.
//
// An authenticated user presents an HS256 bearer token whose subject is the
// user id. Everyone else is a guest identified by a random session id kept
// in a cookie, which is created on first contact. Resolution happens once
// per request at the handler boundary; the resulting cart.Identity is then
// passed explicitly to the cart store.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned when a request carries an invalid token or
	// no identity where one is required.
	ErrUnauthorized = errors.New("session: unauthorized")

	// ErrForbidden is returned when a valid user lacks a required role.
	ErrForbidden = errors.New("session: forbidden")
)

// RoleAdmin grants access to catalog writes and cache invalidation.
const RoleAdmin = "admin"

// DefaultCookieName is the guest session cookie name.
const DefaultCookieName = "storefront_session"

// Claims are the bearer token claims. The subject is the user id.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the session configuration.
type Config struct {
	// Secret signs and verifies bearer tokens (HS256)
	Secret string

	// Issuer, when set, must match the token issuer.
	Issuer string

	CookieName   string
	CookieMaxAge time.Duration
	SecureCookie bool
}

// Resolver turns requests into identities.
type Resolver struct {
	secret []byte
	cfg    Config
}

// NewResolver creates a resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 30 * 24 * time.Hour
	}
	return &Resolver{secret: []byte(cfg.Secret), cfg: cfg}, nil
}

// User returns the claims of the bearer token, or nil when the request has
// no Authorization header. A present but invalid token is ErrUnauthorized.
func (r *Resolver) User(req *http.Request) (*Claims, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrUnauthorized)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if r.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.cfg.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return &claims, nil
}

// GuestSessionID returns the guest session id of the request, creating and
// setting a new cookie when the request has none or an invalid one.
func (r *Resolver) GuestSessionID(w http.ResponseWriter, req *http.Request) string {
	if id, ok := r.ExistingGuestSessionID(req); ok {
		return id
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     r.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(r.cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// ExistingGuestSessionID returns the guest session id without creating one.
func (r *Resolver) ExistingGuestSessionID(req *http.Request) (string, bool) {
	c, err := req.Cookie(r.cfg.CookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// Identify resolves the cart identity: the bearer user if present, otherwise
// the guest session. An invalid token is not downgraded to a guest.
func (r *Resolver) Identify(w http.ResponseWriter, req *http.Request) (cart.Identity, error) {
	claims, err := r.User(req)
	if err != nil {
		return cart.Identity{}, err
	}
	if claims != nil {
		return cart.User(claims.Subject), nil
	}
	return cart.Guest(r.GuestSessionID(w, req)), nil
}

// RequireUser returns the authenticated user's claims or ErrUnauthorized.
func (r *Resolver) RequireUser(req *http.Request) (*Claims, error) {
	claims, err := r.User(req)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: authentication required", ErrUnauthorized)
	}
	return claims, nil
}

// RequireRole returns ErrUnauthorized without a user and ErrForbidden when
// the user lacks role.
func (r *Resolver) RequireRole(req *http.Request, role string) (*Claims, error) {
	claims, err := r.RequireUser(req)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(claims.Roles, role) {
		return nil, ErrForbidden
	}
	return claims, nil
}

// IssueToken signs a bearer token for userID valid for ttl.
func (r *Resolver) IssueToken(userID string, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    r.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
