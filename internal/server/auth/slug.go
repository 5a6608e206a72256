package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/avolkov/folio/internal/server/storage"
)

// fallbackSlug is used when the input reduces to an empty slug.
const fallbackSlug = "profile"

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	edgeHyphens  = regexp.MustCompile(`(^-|-$)`)
)

// slugify reduces an arbitrary string to a URL-safe slug:
// lowercase ASCII letters and digits separated by single hyphens.
func slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = edgeHyphens.ReplaceAllString(slug, "")

	if slug == "" {
		return fallbackSlug
	}

	return slug
}

// ensureUniqueSlug appends -1, -2, ... until the slug is free.
func (s *Service) ensureUniqueSlug(ctx context.Context, desired string) (string, error) {
	base := slugify(desired)
	candidate := base

	for suffix := 1; ; suffix++ {
		_, err := s.profiles.GetProfileBySlug(ctx, candidate)
		if errors.Is(err, storage.ErrProfileNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug availability: %w", err)
		}

		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
