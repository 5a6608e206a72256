package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avolkov/folio/internal/models"
)

// MinSecretLen is the minimum signing secret length in bytes.
// A shorter secret is a fatal configuration error, not a runtime condition.
const MinSecretLen = 32

// Verification failure kinds. Handlers collapse all of them to a single
// unauthorized response; the specific kind is only logged.
var (
	// ErrExpired indicates the token is past its expiry
	ErrExpired = errors.New("token expired")

	// ErrMalformed indicates the token is not a parseable JWT
	ErrMalformed = errors.New("token malformed")

	// ErrBadSignature indicates the signature does not verify
	ErrBadSignature = errors.New("token signature invalid")

	// ErrUnsupported indicates an unexpected algorithm or otherwise unverifiable token
	ErrUnsupported = errors.New("token unsupported")
)

// Claims carries the signed claim set of an access token.
// Subject is the user's normalized email.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies signed access tokens.
// It is immutable after construction and safe for concurrent use.
type Service struct {
	secret    []byte
	accessTTL time.Duration
}

// New creates an access token service.
// Returns an error when the secret is absent or shorter than MinSecretLen bytes;
// callers treat that as fatal at startup.
func New(secret string, accessTTL time.Duration) (*Service, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf("access token TTL must be positive")
	}

	return &Service{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}, nil
}

// Issue creates a signed access token for the user.
// Subject is the user's email; the role travels as a custom claim.
func (s *Service) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses and verifies a token string and returns its claims.
// On failure the returned error wraps exactly one of ErrExpired, ErrMalformed,
// ErrBadSignature or ErrUnsupported.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyError(err)
	}

	if !token.Valid {
		return nil, ErrUnsupported
	}

	return claims, nil
}

// IsValid reports whether the token belongs to the given user and is unexpired.
// Signature validity is implied by successful claim extraction.
func (s *Service) IsValid(tokenString string, user *models.User) bool {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return false
	}

	return strings.EqualFold(claims.Subject, user.Email)
}

// classifyError maps jwt/v5 parse errors to the package's error kinds.
func classifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
}
