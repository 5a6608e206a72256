// Package refresh manages the lifecycle of opaque refresh tokens:
// issuance, validation, one-time-use rotation, revocation and the
// periodic sweep of dead records.
//
// Raw tokens are returned to the caller exactly once; storage holds only
// their SHA-256 digest, so a database compromise yields no usable tokens.
// The sweep assumes a single-process deployment: it only deletes rows
// already expired or revoked, so it is safe to run concurrently with
// live rotations, but running it from several processes would need an
// advisory lock.
package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/metrics"
	"github.com/avolkov/folio/internal/server/storage"
)

// tokenLen is the raw token entropy in bytes (256 bits).
const tokenLen = 32

// Defaults for the manager configuration.
const (
	DefaultTTL        = 7 * 24 * time.Hour
	DefaultMaxPerUser = 5
	DefaultRetention  = 30 * 24 * time.Hour
)

// Validation failure kinds. The orchestrator collapses all of them to a
// single unauthorized signal so callers cannot probe which one occurred.
var (
	// ErrTokenNotFound indicates no record matches the presented token
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenExpired indicates the token is past its expiry
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrTokenRevoked indicates the token was rotated or revoked earlier
	ErrTokenRevoked = errors.New("refresh token revoked")
)

// Config holds the tunables of the refresh token lifecycle.
type Config struct {
	// TTL is the refresh token lifetime
	TTL time.Duration
	// MaxPerUser caps the number of active tokens per user
	MaxPerUser int
	// Retention is how long revoked tokens are kept before the sweep deletes them
	Retention time.Duration
}

// Manager issues, validates, rotates, revokes and sweeps refresh tokens.
// Safe for concurrent use.
type Manager struct {
	tokens  storage.TokenStorage
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewManager creates a refresh token manager. Zero config fields take defaults.
func NewManager(tokens storage.TokenStorage, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = DefaultMaxPerUser
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	return &Manager{
		tokens:  tokens,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Issue generates a new refresh token for the user and returns the raw value.
// The raw token is never retrievable again; only its digest is persisted.
// Before persisting, older active tokens are revoked so the per-user cap
// holds after issuance.
func (m *Manager) Issue(ctx context.Context, user *models.User) (string, error) {
	raw, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()

	if err := m.enforceUserCap(ctx, user.ID, now); err != nil {
		return "", err
	}

	token := &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: hashToken(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.config.TTL),
		IsRevoked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.tokens.SaveRefreshToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	m.metrics.TokensIssuedTotal.Inc()
	m.logger.Debug("refresh token issued", "user_id", user.ID, "expires_at", token.ExpiresAt)

	return raw, nil
}

// Validate looks up the presented raw token and checks its state.
// Returns the stored record on success, or one of ErrTokenNotFound,
// ErrTokenExpired, ErrTokenRevoked.
func (m *Manager) Validate(ctx context.Context, raw string) (*models.RefreshToken, error) {
	token, err := m.tokens.GetRefreshTokenByHash(ctx, hashToken(raw))
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if token.IsRevoked {
		return nil, ErrTokenRevoked
	}
	if !time.Now().Before(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return token, nil
}

// Rotate revokes the presented token and issues a replacement for the same
// user. Both changes persist in one storage transaction, so a failed
// rotation leaves the old token usable. Rotation is one-time-use: the
// revocation is a compare-and-set, so a concurrent or repeated rotation of
// the same token fails with ErrTokenRevoked, which is how token replay is
// detected. The per-user cap needs no re-check here; a rotation swaps one
// active token for another.
func (m *Manager) Rotate(ctx context.Context, token *models.RefreshToken, user *models.User) (string, error) {
	raw, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	replacement := &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: hashToken(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.config.TTL),
		IsRevoked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.tokens.RotateRefreshToken(ctx, token.TokenHash, replacement); err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenRevoked):
			m.logger.Warn("refresh token replay detected", "user_id", token.UserID)
			return "", ErrTokenRevoked
		case errors.Is(err, storage.ErrTokenNotFound):
			return "", ErrTokenNotFound
		default:
			return "", fmt.Errorf("failed to rotate refresh token: %w", err)
		}
	}

	m.metrics.TokensRotatedTotal.Inc()
	m.metrics.TokensRevokedTotal.Inc()
	m.metrics.TokensIssuedTotal.Inc()
	m.logger.Debug("refresh token rotated", "user_id", user.ID, "expires_at", replacement.ExpiresAt)

	return raw, nil
}

// RevokeAll revokes every active token of the user (logout, account deletion).
// Returns the number of tokens revoked.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int, error) {
	count, err := m.tokens.RevokeUserTokens(ctx, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	m.metrics.TokensRevokedTotal.Add(float64(count))
	m.logger.Info("revoked all refresh tokens", "user_id", userID, "count", count)

	return count, nil
}

// Sweep permanently deletes tokens past their expiry and revoked tokens
// older than the retention window. Recent revocations stay behind as an
// audit trail.
func (m *Manager) Sweep(ctx context.Context) error {
	now := time.Now()

	expired, err := m.tokens.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	revoked, err := m.tokens.DeleteRevokedTokensBefore(ctx, now.Add(-m.config.Retention))
	if err != nil {
		return fmt.Errorf("failed to delete revoked tokens: %w", err)
	}

	m.metrics.SweepDeletedTotal.WithLabelValues("expired").Add(float64(expired))
	m.metrics.SweepDeletedTotal.WithLabelValues("revoked").Add(float64(revoked))
	m.logger.Info("refresh token sweep completed", "expired_deleted", expired, "revoked_deleted", revoked)

	return nil
}

// Stats returns aggregate token counts for health reporting
func (m *Manager) Stats(ctx context.Context) (*storage.TokenStats, error) {
	return m.tokens.CountTokens(ctx, time.Now())
}

// enforceUserCap revokes the oldest active tokens so that after one more
// issuance the user holds at most MaxPerUser active tokens.
func (m *Manager) enforceUserCap(ctx context.Context, userID string, now time.Time) error {
	active, err := m.tokens.ListActiveUserTokens(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("failed to list active tokens: %w", err)
	}

	if len(active) < m.config.MaxPerUser {
		return nil
	}

	// Tokens are ordered newest first; everything beyond the newest
	// MaxPerUser-1 gets revoked to make room.
	excess := active[m.config.MaxPerUser-1:]
	for _, token := range excess {
		if err := m.tokens.RevokeRefreshToken(ctx, token.TokenHash, now); err != nil {
			// A concurrent rotation may have revoked it already; the cap still holds
			if errors.Is(err, storage.ErrTokenRevoked) || errors.Is(err, storage.ErrTokenNotFound) {
				continue
			}
			return fmt.Errorf("failed to revoke excess token: %w", err)
		}
		m.metrics.TokensRevokedTotal.Inc()
	}

	m.logger.Debug("revoked excess refresh tokens", "user_id", userID, "count", len(excess))

	return nil
}

// generateToken produces a cryptographically random raw token
func generateToken() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashToken computes the storage digest of a raw token
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
