package auth

import (
	"context"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
)

type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims placed by the middleware, if any.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}
