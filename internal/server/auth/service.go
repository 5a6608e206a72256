package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/folio/internal/crypto"
	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/jwt"
	"github.com/avolkov/folio/internal/server/refresh"
	"github.com/avolkov/folio/internal/server/storage"
	"github.com/avolkov/folio/internal/validation"
	"github.com/avolkov/folio/pkg/api"
)

// Result carries a fresh token pair and the owner's profile summary.
type Result struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Profile      *models.Profile
}

// Service orchestrates registration, login, token refresh, logout and
// account deletion by composing the signer, the refresh token manager
// and the (cached) stores.
type Service struct {
	users    storage.UserStorage
	profiles storage.ProfileStorage
	signer   *jwt.Service
	tokens   *refresh.Manager
	logger   *slog.Logger
}

// NewService creates the auth orchestrator.
// The users store is expected to be the caching decorator so that
// account writes evict lookup cache entries.
func NewService(
	users storage.UserStorage,
	profiles storage.ProfileStorage,
	signer *jwt.Service,
	tokens *refresh.Manager,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		signer:   signer,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a user account with a linked profile and issues the
// first token pair. Fails with ErrValidation on bad input and
// ErrEmailTaken / ErrSlugTaken on conflicts.
func (s *Service) Register(ctx context.Context, req api.RegisterRequest) (*Result, error) {
	email := validation.NormalizeEmail(req.Email)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = email
	}

	slug, err := s.resolveSlug(ctx, req.Slug, displayName)
	if err != nil {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &models.Profile{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Slug:        slug,
		DisplayName: displayName,
		Headline:    strings.TrimSpace(req.Headline),
		Bio:         strings.TrimSpace(req.Bio),
		Location:    strings.TrimSpace(req.Location),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "slug", profile.Slug)

	return s.issueTokens(ctx, user, profile)
}

// Login authenticates email/password credentials and issues a fresh
// token pair. Every failure collapses to ErrInvalidCredentials so the
// caller cannot distinguish an unknown user from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Warn("login failed: unknown user", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := crypto.VerifyPassword(password, user.PasswordHash); err != nil {
		s.logger.Warn("login failed: bad password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return s.issueTokens(ctx, user, nil)
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// token is rotated out (one-time use). Every token failure collapses to
// ErrInvalidRefreshToken; the specific kind is only logged.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*Result, error) {
	token, err := s.tokens.Validate(ctx, rawToken)
	if err != nil {
		if isTokenStateError(err) {
			s.logger.Warn("refresh rejected", "reason", err)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to validate refresh token: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Account deleted since issuance
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up token owner: %w", err)
	}

	newRaw, err := s.tokens.Rotate(ctx, token, user)
	if err != nil {
		if isTokenStateError(err) {
			s.logger.Warn("rotation rejected", "reason", err, "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	accessToken, expiresAt, err := s.signer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &Result{
		AccessToken:  accessToken,
		RefreshToken: newRaw,
		ExpiresAt:    expiresAt,
		Profile:      s.lookupProfile(ctx, user.ID),
	}, nil
}

// Logout revokes all of the user's refresh tokens. Access tokens already
// issued stay valid until their own expiry.
func (s *Service) Logout(ctx context.Context, user *models.User) error {
	if _, err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke tokens on logout: %w", err)
	}

	return nil
}

// DeleteAccount revokes all tokens, deletes the profile and finally the
// account, in that order to satisfy referential constraints.
func (s *Service) DeleteAccount(ctx context.Context, user *models.User) error {
	if _, err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke tokens on account deletion: %w", err)
	}

	if err := s.profiles.DeleteProfileByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("account deleted", "user_id", user.ID)

	return nil
}

// issueTokens mints an access/refresh pair for the user
func (s *Service) issueTokens(ctx context.Context, user *models.User, profile *models.Profile) (*Result, error) {
	accessToken, expiresAt, err := s.signer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	rawRefresh, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if profile == nil {
		profile = s.lookupProfile(ctx, user.ID)
	}

	return &Result{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresAt:    expiresAt,
		Profile:      profile,
	}, nil
}

// resolveSlug normalizes a requested slug (conflict when taken) or
// generates a unique one from the display name.
func (s *Service) resolveSlug(ctx context.Context, requested, displayName string) (string, error) {
	if strings.TrimSpace(requested) != "" {
		slug := slugify(requested)

		_, err := s.profiles.GetProfileBySlug(ctx, slug)
		if err == nil {
			return "", ErrSlugTaken
		}
		if !errors.Is(err, storage.ErrProfileNotFound) {
			return "", fmt.Errorf("failed to check slug availability: %w", err)
		}

		return slug, nil
	}

	return s.ensureUniqueSlug(ctx, displayName)
}

// lookupProfile fetches the user's profile, tolerating absence
func (s *Service) lookupProfile(ctx context.Context, userID string) *models.Profile {
	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrProfileNotFound) {
			s.logger.Warn("failed to load profile", "user_id", userID, "error", err)
		}
		return nil
	}

	return profile
}

// isTokenStateError reports whether err is one of the refresh token
// state failures that must collapse to a generic unauthorized signal.
func isTokenStateError(err error) bool {
	return errors.Is(err, refresh.ErrTokenNotFound) ||
		errors.Is(err, refresh.ErrTokenExpired) ||
		errors.Is(err, refresh.ErrTokenRevoked)
}
