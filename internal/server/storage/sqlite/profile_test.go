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

func createTestProfile(t *testing.T, ctx context.Context, s *Storage, userID, slug string) *models.Profile {
	now := time.Now()
	profile := &models.Profile{
		ID:          uuid.New().String(),
		UserID:      userID,
		Slug:        slug,
		DisplayName: "Test User",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.CreateProfile(ctx, profile)
	require.NoError(t, err)

	return profile
}

func TestProfileStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	profile := createTestProfile(t, ctx, s, user.ID, "alice")

	byUser, err := s.GetProfileByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byUser.ID)
	assert.Equal(t, "alice", byUser.Slug)

	bySlug, err := s.GetProfileBySlug(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, bySlug.ID)
}

func TestProfileStorage_CreateProfile_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	alice := createTestUser(t, ctx, s, "alice@example.com")
	bob := createTestUser(t, ctx, s, "bob@example.com")

	createTestProfile(t, ctx, s, alice.ID, "shared-slug")

	now := time.Now()
	dup := &models.Profile{
		ID:          uuid.New().String(),
		UserID:      bob.ID,
		Slug:        "shared-slug",
		DisplayName: "Bob",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.CreateProfile(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrSlugTaken)
}

func TestProfileStorage_GetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetProfileByUserID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	_, err = s.GetProfileBySlug(ctx, "no-such-slug")
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)
}

func TestProfileStorage_DeleteProfileByUserID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "alice@example.com")
	createTestProfile(t, ctx, s, user.ID, "alice")

	require.NoError(t, s.DeleteProfileByUserID(ctx, user.ID))

	_, err := s.GetProfileByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	// Deleting a user without a profile is not an error
	assert.NoError(t, s.DeleteProfileByUserID(ctx, user.ID))
}
