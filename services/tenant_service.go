package services

import (
	"context"
	"errors"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// TenantService provisions tenants and serves tenant metadata. Tenants are
// the isolation boundary itself, so nothing here is tenant-scoped.
type TenantService struct {
	tenants repositories.TenantRepository
	logger  *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(tenants repositories.TenantRepository, logger *zap.Logger) *TenantService {
	return &TenantService{tenants: tenants, logger: logger}
}

// Provision creates a new tenant. The slug must be unique; registration and
// URLs address tenants by it.
func (s *TenantService) Provision(ctx context.Context, name, slug string) (*models.Tenant, error) {
	tenant := models.NewTenant(name, slug)
	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateSlug
		}
		return nil, WrapInternal("failed to create tenant", err)
	}

	s.logger.Info("tenant provisioned",
		zap.Int64("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug))

	return tenant, nil
}

// Get retrieves a tenant by ID
func (s *TenantService) Get(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, WrapInternal("failed to get tenant", err)
	}
	return tenant, nil
}
