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

// ListingRepository implements repositories.ListingRepository bound to a
// single tenant. Instances are only created through Scope; there is no
// constructor taking a caller-supplied tenant id and no query in this file
// without a tenant_id predicate. That is the enforcement point: forgetting a
// tenant filter in business logic cannot leak data because business logic
// never writes SQL against listings.
type ListingRepository struct {
	db       *DB
	logger   *zap.Logger
	tenantID int64
}

// Create inserts a listing. tenant_id is force-set from the bound tenant,
// overriding whatever the model carried in.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	listing.TenantID = r.tenantID

	query := `
		INSERT INTO listings (id, tenant_id, owner_id, title, description, price_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		listing.ID,
		listing.TenantID,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.PriceCents,
		listing.Status,
		listing.CreatedAt,
		listing.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	r.logger.Debug("listing created",
		zap.String("id", listing.ID.String()),
		zap.Int64("tenant_id", listing.TenantID))
	return nil
}

// GetByID retrieves a listing visible to the bound tenant. A row belonging to
// another tenant is indistinguishable from a missing row.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := `
		SELECT id, tenant_id, owner_id, title, description, price_cents, status, created_at, updated_at
		FROM listings
		WHERE id = $1 AND tenant_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	listing := &models.Listing{}

	err := executor.QueryRowContext(ctx, query, id, r.tenantID).Scan(
		&listing.ID,
		&listing.TenantID,
		&listing.OwnerID,
		&listing.Title,
		&listing.Description,
		&listing.PriceCents,
		&listing.Status,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return listing, nil
}

// List retrieves the bound tenant's listings with pagination
func (r *ListingRepository) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	query := `
		SELECT id, tenant_id, owner_id, title, description, price_cents, status, created_at, updated_at
		FROM listings
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, r.tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing := &models.Listing{}
		err := rows.Scan(
			&listing.ID,
			&listing.TenantID,
			&listing.OwnerID,
			&listing.Title,
			&listing.Description,
			&listing.PriceCents,
			&listing.Status,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	return listings, nil
}

// Update updates a listing within the bound tenant. Zero rows affected means
// the row is missing or cross-tenant; either way nothing was mutated and the
// caller sees not-found.
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	query := `
		UPDATE listings
		SET title = $3,
		    description = $4,
		    price_cents = $5,
		    status = $6,
		    updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		listing.ID,
		r.tenantID,
		listing.Title,
		listing.Description,
		listing.PriceCents,
		listing.Status,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("listing updated", zap.String("id", listing.ID.String()))
	return nil
}

// Delete deletes a listing within the bound tenant
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM listings WHERE id = $1 AND tenant_id = $2`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, r.tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("listing deleted", zap.String("id", id.String()))
	return nil
}
