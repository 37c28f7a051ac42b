package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// RefreshTokenRepository implements the repositories.RefreshTokenRepository
// interface. Rows are append-then-mark: nothing here ever deletes.
type RefreshTokenRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB, logger *zap.Logger) repositories.RefreshTokenRepository {
	return &RefreshTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new refresh token row
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, subject_id, tenant_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		token.ID,
		token.SubjectID,
		token.TenantID,
		token.TokenHash,
		token.IssuedAt,
		token.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	r.logger.Debug("refresh token created",
		zap.String("id", token.ID.String()),
		zap.Int64("subject_id", token.SubjectID))
	return nil
}

// GetByTokenHash retrieves a refresh token by its storage hash
func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, subject_id, tenant_id, token_hash, issued_at, expires_at, revoked_at, replaced_by_id
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	executor := GetExecutor(ctx, r.db)
	token := &models.RefreshToken{}

	err := executor.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.SubjectID,
		&token.TenantID,
		&token.TokenHash,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.ReplacedByID,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// Consume atomically marks a token revoked and replaced. The WHERE clause is
// the compare-and-swap: it only matches while the token is unconsumed, so of
// two concurrent rotations exactly one sees rowsAffected == 1.
func (r *RefreshTokenRepository) Consume(ctx context.Context, id uuid.UUID, replacedBy uuid.UUID, revokedAt time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2,
		    replaced_by_id = $3
		WHERE id = $1
		  AND revoked_at IS NULL
		  AND replaced_by_id IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, revokedAt, replacedBy)
	if err != nil {
		return false, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return false, nil
	}

	r.logger.Debug("refresh token consumed",
		zap.String("id", id.String()),
		zap.String("replaced_by", replacedBy.String()))
	return true, nil
}

// RevokeAllForUser revokes every outstanding refresh token for a user
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, subjectID int64, revokedAt time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE subject_id = $1
		  AND revoked_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, subjectID, revokedAt)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("refresh tokens revoked for user",
		zap.Int64("subject_id", subjectID),
		zap.Int64("count", rowsAffected))
	return nil
}
