package services

import (
	"context"
	"testing"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTenantService_Provision(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tenant", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo, zap.NewNop())

		repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Tenant).ID = 7
		}).Return(nil)

		tenant, err := service.Provision(ctx, "Acme", "acme")
		require.NoError(t, err)
		assert.Equal(t, int64(7), tenant.ID)
		assert.Equal(t, "acme", tenant.Slug)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo, zap.NewNop())

		repo.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicate)

		_, err := service.Provision(ctx, "Acme Again", "acme")
		assert.ErrorIs(t, err, ErrDuplicateSlug)
	})
}

func TestTenantService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo, zap.NewNop())

		tenant := models.NewTenant("Acme", "acme")
		tenant.ID = 7
		repo.On("GetByID", ctx, int64(7)).Return(tenant, nil)

		got, err := service.Get(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "acme", got.Slug)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo, zap.NewNop())

		repo.On("GetByID", ctx, int64(99)).Return(nil, repositories.ErrNotFound)

		_, err := service.Get(ctx, 99)
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}
