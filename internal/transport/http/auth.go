package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type callerKey struct{}

type callerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies the auth collaborator's bearer tokens and attaches
// the resulting caller to the request context. Token issuance lives
// elsewhere; this only consumes the verified {caller_id, role} pair.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.callerFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// Optional attaches the caller when a valid token is present and otherwise
// lets the request through as a guest. Used on the public gate endpoint.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.callerFromRequest(r)
		if err != nil {
			caller = domain.Caller{Role: domain.RoleGuest}
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func (a *Authenticator) callerFromRequest(r *http.Request) (domain.Caller, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return domain.Caller{}, fmt.Errorf("missing bearer token")
	}

	claims := &callerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Caller{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("token has no subject")
	}

	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleSeller, domain.RoleAdmin, domain.RoleSuper, domain.RoleGuest:
	default:
		role = domain.RoleGuest
	}

	return domain.Caller{ID: claims.Subject, Role: role}, nil
}

func withCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller attached by the auth middleware.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}
