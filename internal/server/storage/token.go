package storage

import (
	"context"
	"time"

	"github.com/avolkov/folio/internal/models"
)

// TokenStats holds aggregate refresh token counts for health reporting.
type TokenStats struct {
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
	Revoked int64 `json:"revoked"`
}

// TokenStorage defines interface for refresh token persistence.
// Records are keyed by the token digest; raw tokens never reach storage.
type TokenStorage interface {
	// SaveRefreshToken stores a new refresh token record
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshTokenByHash retrieves a refresh token by its digest
	// Returns ErrTokenNotFound if no such token exists
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// ListActiveUserTokens returns the user's non-revoked, non-expired tokens
	// ordered by creation time descending (newest first)
	ListActiveUserTokens(ctx context.Context, userID string, now time.Time) ([]*models.RefreshToken, error)

	// RevokeRefreshToken marks a token revoked by its digest.
	// Returns ErrTokenRevoked if it was already revoked and
	// ErrTokenNotFound if no such token exists. The check-and-set is
	// atomic so a rotated token can never be rotated twice.
	RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error

	// RotateRefreshToken atomically revokes the old token and stores its
	// replacement; either both changes persist or neither does.
	// Returns ErrTokenRevoked if the old token was already revoked and
	// ErrTokenNotFound if no such token exists. The check-and-set on the
	// old row makes a concurrent or repeated rotation fail.
	RotateRefreshToken(ctx context.Context, oldHash string, replacement *models.RefreshToken) error

	// RevokeUserTokens marks all of the user's tokens revoked
	// Returns the number of tokens newly revoked
	RevokeUserTokens(ctx context.Context, userID string, now time.Time) (int, error)

	// DeleteExpiredTokens permanently removes tokens past their expiry
	// Returns the number of deleted tokens
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)

	// DeleteRevokedTokensBefore permanently removes tokens revoked before cutoff
	// Returns the number of deleted tokens
	DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int, error)

	// CountTokens returns aggregate active/expired/revoked counts
	CountTokens(ctx context.Context, now time.Time) (*TokenStats, error)
}
