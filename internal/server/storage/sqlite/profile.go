package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/storage"
)

// CreateProfile creates a new profile linked to a user account
func (s *Storage) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, slug, display_name, headline, bio, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Slug,
		profile.DisplayName,
		profile.Headline,
		profile.Bio,
		profile.Location,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrSlugTaken
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfileByUserID retrieves the profile owned by a user
func (s *Storage) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT id, user_id, slug, display_name, headline, bio, location, created_at, updated_at
		FROM profiles
		WHERE user_id = ?
	`

	return s.scanProfile(s.db.QueryRowContext(ctx, query, userID))
}

// GetProfileBySlug retrieves a profile by its slug
func (s *Storage) GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	query := `
		SELECT id, user_id, slug, display_name, headline, bio, location, created_at, updated_at
		FROM profiles
		WHERE slug = ?
	`

	return s.scanProfile(s.db.QueryRowContext(ctx, query, slug))
}

// DeleteProfileByUserID deletes the profile owned by a user
func (s *Storage) DeleteProfileByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM profiles WHERE user_id = ?`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return nil
}

// scanProfile reads a single profile row
func (s *Storage) scanProfile(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}

	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Slug,
		&profile.DisplayName,
		&profile.Headline,
		&profile.Bio,
		&profile.Location,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	return profile, nil
}
