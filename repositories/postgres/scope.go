package postgres

import (
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// Scope is the postgres implementation of repositories.Scoped: a bundle of
// tenant-bound repositories constructed from one request's TenantContext.
// It holds no mutable state and is discarded at request end.
type Scope struct {
	db       *DB
	logger   *zap.Logger
	tenantID int64
}

// NewScope binds repositories to the given TenantContext
func NewScope(db *DB, logger *zap.Logger, tc *models.TenantContext) *Scope {
	return &Scope{
		db:       db,
		logger:   logger,
		tenantID: tc.TenantID,
	}
}

// TenantID returns the bound tenant
func (s *Scope) TenantID() int64 {
	return s.tenantID
}

// Listings returns the listing repository bound to the tenant
func (s *Scope) Listings() repositories.ListingRepository {
	return &ListingRepository{
		db:       s.db,
		logger:   s.logger,
		tenantID: s.tenantID,
	}
}
