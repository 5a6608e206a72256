package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/jwt"
	"github.com/avolkov/folio/internal/server/storage"
	"github.com/avolkov/folio/pkg/api"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	authErrorKey
)

// Principal returns the authenticated user stored by Authenticate,
// or nil when the request is unauthenticated.
func Principal(ctx context.Context) *models.User {
	user, _ := ctx.Value(principalKey).(*models.User)
	return user
}

// AuthError returns the diagnostic reason recorded when a presented
// credential was rejected. Empty when no credential was presented or
// authentication succeeded.
func AuthError(ctx context.Context) string {
	reason, _ := ctx.Value(authErrorKey).(string)
	return reason
}

// Authenticate resolves an optional Bearer access token into a request
// principal. It never rejects a request: a missing, malformed, expired
// or otherwise invalid token leaves the request unauthenticated and
// records a diagnostic reason in the context. Enforcement is a separate
// concern, see RequireAuth.
func Authenticate(signer *jwt.Service, users storage.UserStorage, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Principal(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := signer.Verify(token)
			if err != nil {
				logger.Debug("access token rejected", "reason", err)
				next.ServeHTTP(w, r.WithContext(
					context.WithValue(r.Context(), authErrorKey, tokenFailureReason(err))))
				return
			}

			user, err := users.GetUserByEmail(r.Context(), claims.Subject)
			if err != nil {
				if !errors.Is(err, storage.ErrUserNotFound) {
					logger.Error("failed to resolve token subject", "error", err)
				}
				next.ServeHTTP(w, r.WithContext(
					context.WithValue(r.Context(), authErrorKey, "unknown subject")))
				return
			}

			if !signer.IsValid(token, user) {
				next.ServeHTTP(w, r.WithContext(
					context.WithValue(r.Context(), authErrorKey, "subject mismatch")))
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no principal with 401.
// Must run after Authenticate in the chain.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Principal(r.Context()) == nil {
				if reason := AuthError(r.Context()); reason != "" {
					logger.Warn("unauthorized request",
						"path", r.URL.Path, "reason", reason)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   "unauthorized",
					Message: "authentication required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns false when the header is absent or not a Bearer scheme.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// tokenFailureReason maps verification errors to short diagnostic labels
// safe to keep in the request context and logs.
func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrBadSignature):
		return "bad signature"
	case errors.Is(err, jwt.ErrMalformed):
		return "malformed token"
	default:
		return "unsupported token"
	}
}
