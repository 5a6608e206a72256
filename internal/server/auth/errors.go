package auth

import "errors"

// Orchestrator errors. Handlers map these to HTTP status codes; the
// credential and token errors deliberately carry no detail about which
// check failed.
var (
	// ErrValidation indicates a malformed or policy-violating request body
	ErrValidation = errors.New("validation failed")

	// ErrEmailTaken indicates the email is already registered
	ErrEmailTaken = errors.New("user already exists")

	// ErrSlugTaken indicates the requested profile slug is already in use
	ErrSlugTaken = errors.New("slug already taken")

	// ErrInvalidCredentials covers unknown user and wrong password alike
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers missing, expired and revoked refresh tokens alike
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
