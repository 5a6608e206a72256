package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/metrics"
	"github.com/avolkov/folio/internal/server/storage"
)

// mockUserStorage is a mock implementation of storage.UserStorage for testing
type mockUserStorage struct {
	users         map[string]*models.User // email -> User
	getByEmail    int                     // call counter
	createError   error
	updateError   error
	deleteError   error
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Email]; exists {
		return storage.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.getByEmail++
	user, ok := m.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.users[user.Email]; !ok {
		return storage.ErrUserNotFound
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, userID string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for email, user := range m.users {
		if user.ID == userID {
			delete(m.users, email)
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func setupCache(t *testing.T) (*UserStorage, *mockUserStorage) {
	inner := newMockUserStorage()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.New(prometheus.NewRegistry())

	c, err := NewUserStorage(inner, 16, logger, m)
	require.NoError(t, err)

	return c, inner
}

func testUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           "id-" + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c, inner := setupCache(t)

	user := testUser("alice@example.com")
	require.NoError(t, inner.CreateUser(ctx, user))

	// First read hits the inner store, second is served from cache
	got, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, 1, inner.getByEmail)

	got, err = c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, 1, inner.getByEmail)
}

func TestUserCache_ReturnsSnapshots(t *testing.T) {
	ctx := context.Background()
	c, inner := setupCache(t)

	require.NoError(t, inner.CreateUser(ctx, testUser("alice@example.com")))

	// Mutating the value returned on populate must not leak into the cache
	first, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	first.Role = models.RoleAdmin

	second, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)

	// Nor mutating a value served from the cache
	second.Role = models.RoleAdmin

	third, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, third.Role)
}

func TestUserCache_AbsenceNotCached(t *testing.T) {
	ctx := context.Background()
	c, inner := setupCache(t)

	_, err := c.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	// User registers after the miss; the next lookup must find them
	require.NoError(t, inner.CreateUser(ctx, testUser("alice@example.com")))

	got, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestUserCache_EvictOnSave(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	user := testUser("alice@example.com")
	require.NoError(t, c.CreateUser(ctx, user))

	// Warm the cache
	_, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	// Save with a changed field; next read must reflect the new value
	updated := *user
	updated.Role = models.RoleAdmin
	require.NoError(t, c.UpdateUser(ctx, &updated))

	got, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestUserCache_EvictOnDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	user := testUser("alice@example.com")
	require.NoError(t, c.CreateUser(ctx, user))

	_, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.DeleteUser(ctx, user.ID))
	assert.Equal(t, 0, c.Len())

	_, err = c.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserCache_KeyNormalization(t *testing.T) {
	ctx := context.Background()
	c, inner := setupCache(t)

	require.NoError(t, inner.CreateUser(ctx, testUser("alice@example.com")))

	_, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	// Mixed-case key maps onto the same entry
	got, ok := c.entries.Get(cacheKey("Alice@Example.COM"))
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestUserCache_EvictAll(t *testing.T) {
	ctx := context.Background()
	c, inner := setupCache(t)

	require.NoError(t, inner.CreateUser(ctx, testUser("alice@example.com")))
	require.NoError(t, inner.CreateUser(ctx, testUser("bob@example.com")))

	_, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	_, err = c.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.EvictAll()
	assert.Equal(t, 0, c.Len())
}
