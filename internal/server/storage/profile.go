package storage

import (
	"context"

	"github.com/avolkov/folio/internal/models"
)

// ProfileStorage defines interface for profile persistence.
// Only the operations the auth flows need are exposed here; the wider
// profile CRUD surface lives outside this core.
type ProfileStorage interface {
	// CreateProfile creates a new profile linked to a user account
	// Returns ErrSlugTaken if the slug is already in use
	CreateProfile(ctx context.Context, profile *models.Profile) error

	// GetProfileByUserID retrieves the profile owned by a user
	// Returns ErrProfileNotFound if the user has no profile
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)

	// GetProfileBySlug retrieves a profile by its slug
	// Returns ErrProfileNotFound if no such profile exists
	GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error)

	// DeleteProfileByUserID deletes the profile owned by a user.
	// Deleting a user without a profile is not an error.
	DeleteProfileByUserID(ctx context.Context, userID string) error
}
