package api

// RegisterRequest is the body of POST /api/v1/auth/register
type RegisterRequest struct {
	Email       string `json:"email"`                  // login email, normalized server-side
	Password    string `json:"password"`               // plaintext password, validated against policy
	Slug        string `json:"slug,omitempty"`         // requested profile slug (optional)
	DisplayName string `json:"display_name,omitempty"` // display name (optional, defaults to email)
	Headline    string `json:"headline,omitempty"`     // profile headline (optional)
	Bio         string `json:"bio,omitempty"`          // profile bio (optional)
	Location    string `json:"location,omitempty"`     // profile location (optional)
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/v1/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileSummary is the public profile projection returned with tokens
type ProfileSummary struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Headline    string `json:"headline,omitempty"`
}

// AuthResponse carries a fresh token pair.
// RefreshToken is the only place the raw refresh token ever appears.
type AuthResponse struct {
	AccessToken  string          `json:"access_token"`      // signed JWT
	RefreshToken string          `json:"refresh_token"`     // opaque raw refresh token
	ExpiresAt    int64           `json:"expires_at"`        // access token expiry, unix milliseconds
	Profile      *ProfileSummary `json:"profile,omitempty"` // profile summary when one exists
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // additional detail
}
