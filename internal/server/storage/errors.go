package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that a user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenRevoked indicates that the refresh token is already revoked
	ErrTokenRevoked = errors.New("refresh token revoked")

	// ErrProfileNotFound indicates that profile was not found
	ErrProfileNotFound = errors.New("profile not found")

	// ErrSlugTaken indicates that the requested profile slug is already in use
	ErrSlugTaken = errors.New("slug already taken")
)
