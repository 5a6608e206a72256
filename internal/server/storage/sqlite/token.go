package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/storage"
)

// SaveRefreshToken stores a new refresh token record
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, is_revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.IsRevoked,
		token.CreatedAt,
		token.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its digest
func (s *Storage) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, is_revoked, created_at, updated_at
		FROM refresh_tokens
		WHERE token_hash = ?
	`

	token := &models.RefreshToken{}

	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.IsRevoked,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// ListActiveUserTokens returns the user's non-revoked, non-expired tokens, newest first
func (s *Storage) ListActiveUserTokens(ctx context.Context, userID string, now time.Time) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, is_revoked, created_at, updated_at
		FROM refresh_tokens
		WHERE user_id = ? AND is_revoked = 0 AND expires_at > ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query user tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*models.RefreshToken

	for rows.Next() {
		token := &models.RefreshToken{}
		if err := rows.Scan(
			&token.ID,
			&token.TokenHash,
			&token.UserID,
			&token.ExpiresAt,
			&token.IsRevoked,
			&token.CreatedAt,
			&token.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// RevokeRefreshToken marks a token revoked by its digest.
// The WHERE clause only matches non-revoked rows, so a second revocation
// attempt of the same token observes zero affected rows and fails.
func (s *Storage) RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = 1, updated_at = ?
		WHERE token_hash = ? AND is_revoked = 0
	`

	result, err := s.db.ExecContext(ctx, query, now, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Distinguish missing from already-revoked for internal logging
		if _, getErr := s.GetRefreshTokenByHash(ctx, tokenHash); getErr != nil {
			return storage.ErrTokenNotFound
		}
		return storage.ErrTokenRevoked
	}

	return nil
}

// RotateRefreshToken revokes the old token and inserts its replacement
// in one transaction, so a failed insert cannot leave the user with the
// old token revoked and no replacement.
func (s *Storage) RotateRefreshToken(ctx context.Context, oldHash string, replacement *models.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	revoke := `
		UPDATE refresh_tokens
		SET is_revoked = 1, updated_at = ?
		WHERE token_hash = ? AND is_revoked = 0
	`

	result, err := tx.ExecContext(ctx, revoke, replacement.CreatedAt, oldHash)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Distinguish missing from already-revoked for internal logging
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM refresh_tokens WHERE token_hash = ?`, oldHash).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrTokenNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check refresh token: %w", err)
		}
		return storage.ErrTokenRevoked
	}

	insert := `
		INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, is_revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := tx.ExecContext(ctx, insert,
		replacement.ID,
		replacement.TokenHash,
		replacement.UserID,
		replacement.ExpiresAt,
		replacement.IsRevoked,
		replacement.CreatedAt,
		replacement.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save replacement token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}

	return nil
}

// RevokeUserTokens marks all of the user's tokens revoked
func (s *Storage) RevokeUserTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = 1, updated_at = ?
		WHERE user_id = ? AND is_revoked = 0
	`

	result, err := s.db.ExecContext(ctx, query, now, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredTokens permanently removes tokens past their expiry
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteRevokedTokensBefore permanently removes tokens revoked before cutoff
func (s *Storage) DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE is_revoked = 1 AND updated_at < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete revoked tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// CountTokens returns aggregate active/expired/revoked counts
func (s *Storage) CountTokens(ctx context.Context, now time.Time) (*storage.TokenStats, error) {
	query := `
		SELECT
			COUNT(CASE WHEN is_revoked = 0 AND expires_at > ? THEN 1 END),
			COUNT(CASE WHEN expires_at <= ? THEN 1 END),
			COUNT(CASE WHEN is_revoked = 1 THEN 1 END)
		FROM refresh_tokens
	`

	stats := &storage.TokenStats{}

	err := s.db.QueryRowContext(ctx, query, now, now).Scan(
		&stats.Active,
		&stats.Expired,
		&stats.Revoked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	return stats, nil
}
