package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/metrics"
	"github.com/avolkov/folio/internal/server/storage"
)

// DefaultSize bounds the number of cached user snapshots.
const DefaultSize = 1024

// UserStorage is a read-through cache decorator around another
// storage.UserStorage. Call sites see the same interface and stay
// unaware that caching is present.
//
// Entries are keyed by lowercased email and have no TTL: eviction is
// write-triggered only, so any save or delete of a user removes that
// user's entry in the same operation. Absence is never cached: a miss
// that finds nothing stays a miss, so a just-registered user cannot be
// masked by a stale negative entry.
type UserStorage struct {
	inner   storage.UserStorage
	entries *lru.Cache[string, *models.User]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewUserStorage creates a caching decorator over inner with the given capacity
func NewUserStorage(inner storage.UserStorage, size int, logger *slog.Logger, m *metrics.Metrics) (*UserStorage, error) {
	if size <= 0 {
		size = DefaultSize
	}

	entries, err := lru.New[string, *models.User](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}

	return &UserStorage{
		inner:   inner,
		entries: entries,
		logger:  logger,
		metrics: m,
	}, nil
}

// GetUserByEmail returns the cached snapshot when present, otherwise loads
// from the inner store and populates the cache only on a successful find.
func (c *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	key := cacheKey(email)

	if user, ok := c.entries.Get(key); ok {
		c.metrics.CacheHitsTotal.Inc()
		copied := *user
		return &copied, nil
	}

	c.metrics.CacheMissesTotal.Inc()

	user, err := c.inner.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// The cache keeps its own copy and hands out copies, so callers
	// mutating a returned value cannot corrupt the cached snapshot.
	copied := *user
	c.entries.Add(key, &copied)
	c.logger.Debug("user cached", "email", key)

	return user, nil
}

// GetUserByID passes through uncached; the per-request hot path resolves
// users by email only.
func (c *UserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return c.inner.GetUserByID(ctx, userID)
}

// CreateUser writes through and evicts the entry for the user's email
func (c *UserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if err := c.inner.CreateUser(ctx, user); err != nil {
		return err
	}

	c.evict(user.Email)
	return nil
}

// UpdateUser writes through and evicts the entry for the user's email
func (c *UserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if err := c.inner.UpdateUser(ctx, user); err != nil {
		return err
	}

	c.evict(user.Email)
	return nil
}

// DeleteUser deletes through and evicts the entry for the user's email.
// The user is fetched first so the email key is known.
func (c *UserStorage) DeleteUser(ctx context.Context, userID string) error {
	user, err := c.inner.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := c.inner.DeleteUser(ctx, userID); err != nil {
		return err
	}

	c.evict(user.Email)
	return nil
}

// EvictAll drops every cached entry (administrative bulk invalidation)
func (c *UserStorage) EvictAll() {
	c.entries.Purge()
	c.logger.Info("user cache purged")
}

// Len returns the number of cached entries
func (c *UserStorage) Len() int {
	return c.entries.Len()
}

func (c *UserStorage) evict(email string) {
	key := cacheKey(email)
	if c.entries.Remove(key) {
		c.logger.Debug("user cache entry evicted", "email", key)
	}
}

// cacheKey lowercases the email so identity stays case-insensitive
// on both read and write paths.
func cacheKey(email string) string {
	return strings.ToLower(email)
}
