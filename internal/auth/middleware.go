package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// TokenValidator verifies access tokens. *jwt.Manager implements it.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates JWT tokens and injects user claims into request context.
// Requests without a token pass through unauthenticated.
func AuthMiddleware(validator TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromRequest(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if token == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid authorization header")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAuth ensures the request is authenticated.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for WebSocket upgrades where browsers cannot
// set headers. ok is false when neither is present; a malformed header yields
// ok with an empty token.
func TokenFromRequest(r *http.Request) (token string, ok bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", true
		}
		return parts[1], true
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return q, true
	}
	return "", false
}
