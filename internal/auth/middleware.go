package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	errMissingHeader   = errors.New("missing authorization header")
	errMalformedHeader = errors.New("invalid authorization header format")
)

// devToken is the bearer value that stands in for a real token in dev mode.
const devToken = "dev"

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// GetIdentity retrieves the authenticated identity from the request context.
func GetIdentity(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}

type middlewareConfig struct {
	devIdentity *Identity
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithDevIdentity makes "Bearer dev" authenticate as identity. A nil
// identity leaves dev tokens rejected.
func WithDevIdentity(identity *Identity) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.devIdentity = identity
	}
}

// Middleware returns HTTP middleware that validates access tokens and puts
// the resulting Identity, with its backend user record, on the context.
func Middleware(tokenSvc *TokenService, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	var cfg middlewareConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, tokenSvc, cfg.devIdentity)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func authenticate(r *http.Request, tokenSvc *TokenService, devIdentity *Identity) (*Identity, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	if token == devToken && devIdentity != nil {
		return devIdentity, nil
	}

	identity, err := tokenSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.New("invalid token")
	}
	// Refresh tokens never grant access.
	if identity.TokenType != TokenTypeAccess {
		return nil, errors.New("access token required")
	}
	return identity, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedHeader
	}
	return strings.TrimSpace(token), nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="navgate"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
