package storage

import (
	"context"

	"github.com/avolkov/folio/internal/models"
)

// UserStorage defines interface for user account persistence.
// Email keys are normalized (lowercased) before every call.
type UserStorage interface {
	// CreateUser creates a new user account
	// Returns ErrUserAlreadyExists if the email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by normalized email
	// Returns ErrUserNotFound if no such user exists
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID
	// Returns ErrUserNotFound if no such user exists
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser updates an existing user account
	// Returns ErrUserNotFound if no such user exists
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes a user account by ID
	// Returns ErrUserNotFound if no such user exists
	DeleteUser(ctx context.Context, userID string) error
}
