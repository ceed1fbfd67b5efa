package auth

import (
	"net/http"
	"strings"
)

// Skipper exempts a request from bearer-token checks. The API server uses it
// for /healthz and /metrics; everything under /v1 authenticates.
type Skipper func(r *http.Request) bool

// Middleware validates bearer tokens and stages the tenant and scope claims
// on the request context for the handlers' scope checks.
type Middleware struct {
	Config  Config
	Skipper Skipper
}

// NewMiddleware constructs a Middleware with an optional skipper.
func NewMiddleware(cfg Config, skipper Skipper) Middleware {
	return Middleware{Config: cfg, Skipper: skipper}
}

// Wrap returns next guarded by token validation. Requests without a valid
// token get 401; scope enforcement stays with the individual handlers.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return Parse(token, m.Config)
}
