package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/storage"
)

func createTestToken(t *testing.T, ctx context.Context, s *Storage, userID string, expiresAt time.Time) *models.RefreshToken {
	now := time.Now()
	token := &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: "hash-" + uuid.New().String(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		IsRevoked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.SaveRefreshToken(ctx, token)
	require.NoError(t, err)

	return token
}

func TestTokenStorage_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	token := createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))

	retrieved, err := s.GetRefreshTokenByHash(ctx, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, token.ID, retrieved.ID)
	assert.Equal(t, user.ID, retrieved.UserID)
	assert.False(t, retrieved.IsRevoked)
}

func TestTokenStorage_GetByHash_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetRefreshTokenByHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_ListActiveUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	now := time.Now()

	// One active, one expired, one revoked
	active := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	createTestToken(t, ctx, s, user.ID, now.Add(-time.Hour))
	revoked := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	require.NoError(t, s.RevokeRefreshToken(ctx, revoked.TokenHash, now))

	tokens, err := s.ListActiveUserTokens(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, active.ID, tokens[0].ID)
}

func TestTokenStorage_ListActiveUserTokens_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	now := time.Now()

	older := &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: "hash-older",
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now.Add(-time.Minute),
	}
	newer := &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: "hash-newer",
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SaveRefreshToken(ctx, older))
	require.NoError(t, s.SaveRefreshToken(ctx, newer))

	tokens, err := s.ListActiveUserTokens(ctx, user.ID, now.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, newer.ID, tokens[0].ID)
	assert.Equal(t, older.ID, tokens[1].ID)
}

func TestTokenStorage_RevokeRefreshToken_OneTimeUse(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	token := createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))

	require.NoError(t, s.RevokeRefreshToken(ctx, token.TokenHash, time.Now()))

	// Second revocation of the same token must fail: replay detection
	err := s.RevokeRefreshToken(ctx, token.TokenHash, time.Now())
	assert.ErrorIs(t, err, storage.ErrTokenRevoked)

	err = s.RevokeRefreshToken(ctx, "no-such-hash", time.Now())
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func newReplacement(userID string) *models.RefreshToken {
	now := time.Now()
	return &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: "hash-" + uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Hour),
		IsRevoked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTokenStorage_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	old := createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))
	replacement := newReplacement(user.ID)

	require.NoError(t, s.RotateRefreshToken(ctx, old.TokenHash, replacement))

	revoked, err := s.GetRefreshTokenByHash(ctx, old.TokenHash)
	require.NoError(t, err)
	assert.True(t, revoked.IsRevoked)

	stored, err := s.GetRefreshTokenByHash(ctx, replacement.TokenHash)
	require.NoError(t, err)
	assert.False(t, stored.IsRevoked)
	assert.Equal(t, user.ID, stored.UserID)

	// Rotating the same token again observes the revoked row
	err = s.RotateRefreshToken(ctx, old.TokenHash, newReplacement(user.ID))
	assert.ErrorIs(t, err, storage.ErrTokenRevoked)

	err = s.RotateRefreshToken(ctx, "no-such-hash", newReplacement(user.ID))
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_RotateRefreshToken_FailedInsertRollsBack(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	old := createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))
	existing := createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))

	// The replacement collides with an existing digest, so the insert
	// fails and the whole rotation must roll back.
	replacement := newReplacement(user.ID)
	replacement.TokenHash = existing.TokenHash

	err := s.RotateRefreshToken(ctx, old.TokenHash, replacement)
	require.Error(t, err)

	kept, err := s.GetRefreshTokenByHash(ctx, old.TokenHash)
	require.NoError(t, err)
	assert.False(t, kept.IsRevoked, "old token must survive a failed rotation")
}

func TestTokenStorage_RevokeUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	other := createTestUser(t, ctx, s, "bob@example.com")

	createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))
	createTestToken(t, ctx, s, user.ID, time.Now().Add(time.Hour))
	otherToken := createTestToken(t, ctx, s, other.ID, time.Now().Add(time.Hour))

	count, err := s.RevokeUserTokens(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Other user's token is untouched
	retrieved, err := s.GetRefreshTokenByHash(ctx, otherToken.TokenHash)
	require.NoError(t, err)
	assert.False(t, retrieved.IsRevoked)

	// Revoking again is a no-op
	count, err = s.RevokeUserTokens(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTokenStorage_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	now := time.Now()

	createTestToken(t, ctx, s, user.ID, now.Add(-time.Hour))
	createTestToken(t, ctx, s, user.ID, now.Add(-time.Minute))
	kept := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))

	count, err := s.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.GetRefreshTokenByHash(ctx, kept.TokenHash)
	assert.NoError(t, err)
}

func TestTokenStorage_DeleteRevokedTokensBefore(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	now := time.Now()

	// Token revoked 40 days ago is past the retention window
	old := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	require.NoError(t, s.RevokeRefreshToken(ctx, old.TokenHash, now.Add(-40*24*time.Hour)))

	// Recently revoked token stays for the audit trail
	recent := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	require.NoError(t, s.RevokeRefreshToken(ctx, recent.TokenHash, now))

	count, err := s.DeleteRevokedTokensBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.GetRefreshTokenByHash(ctx, old.TokenHash)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	_, err = s.GetRefreshTokenByHash(ctx, recent.TokenHash)
	assert.NoError(t, err)
}

func TestTokenStorage_CountTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	now := time.Now()

	createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	createTestToken(t, ctx, s, user.ID, now.Add(-time.Hour))
	revoked := createTestToken(t, ctx, s, user.ID, now.Add(time.Hour))
	require.NoError(t, s.RevokeRefreshToken(ctx, revoked.TokenHash, now))

	stats, err := s.CountTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Active)
	assert.Equal(t, int64(1), stats.Expired)
	assert.Equal(t, int64(1), stats.Revoked)
}
