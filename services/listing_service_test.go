package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockListingRepository is a mock implementation of ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, limit, offset int) ([]*models.Listing, error) {
	args := m.Called(ctx, limit, offset)
	if l := args.Get(0); l != nil {
		return l.([]*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockScope is a mock implementation of Scoped
type MockScope struct {
	tenantID int64
	listings *MockListingRepository
}

func newMockScope(tenantID int64) *MockScope {
	return &MockScope{
		tenantID: tenantID,
		listings: new(MockListingRepository),
	}
}

func (s *MockScope) TenantID() int64 {
	return s.tenantID
}

func (s *MockScope) Listings() repositories.ListingRepository {
	return s.listings
}

func memberPrincipal(subjectID int64) *models.Principal {
	return &models.Principal{SubjectID: subjectID, TenantID: 7, Role: models.RoleMember}
}

func adminPrincipal(subjectID int64) *models.Principal {
	return &models.Principal{SubjectID: subjectID, TenantID: 7, Role: models.RoleAdmin}
}

func TestListingService_Create(t *testing.T) {
	ctx := context.Background()
	service := NewListingService(zap.NewNop())
	scope := newMockScope(7)

	scope.listings.On("Create", ctx, mock.Anything).Return(nil)

	listing, err := service.Create(ctx, scope, memberPrincipal(42), CreateListingInput{
		Title:       "Garden table",
		Description: "Solid oak",
		PriceCents:  12500,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), listing.OwnerID)
	assert.Equal(t, models.ListingStatusActive, listing.Status)
	scope.listings.AssertExpectations(t)
}

func TestListingService_Get(t *testing.T) {
	ctx := context.Background()
	service := NewListingService(zap.NewNop())

	t.Run("visible listing", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)
		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

		got, err := service.Get(ctx, scope, listing.ID)
		require.NoError(t, err)
		assert.Equal(t, listing.ID, got.ID)
	})

	t.Run("cross-tenant row is not found, not forbidden", func(t *testing.T) {
		scope := newMockScope(7)
		id := uuid.New()
		scope.listings.On("GetByID", ctx, id).Return(nil, repositories.ErrNotFound)

		_, err := service.Get(ctx, scope, id)
		assert.ErrorIs(t, err, ErrListingNotFound)
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsForbiddenError(err))
	})
}

func TestListingService_List(t *testing.T) {
	ctx := context.Background()
	service := NewListingService(zap.NewNop())
	scope := newMockScope(7)

	// Out-of-range limit falls back to the default page size
	scope.listings.On("List", ctx, 20, 0).Return([]*models.Listing{}, nil)

	_, err := service.List(ctx, scope, 1000, -5)
	require.NoError(t, err)
	scope.listings.AssertExpectations(t)
}

func TestListingService_Update(t *testing.T) {
	ctx := context.Background()
	service := NewListingService(zap.NewNop())

	t.Run("owner updates own listing", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)

		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		scope.listings.On("Update", ctx, mock.Anything).Return(nil)

		newTitle := "Garden table (price drop)"
		newPrice := int64(9900)
		updated, err := service.Update(ctx, scope, memberPrincipal(42), listing.ID, UpdateListingInput{
			Title:      &newTitle,
			PriceCents: &newPrice,
		})

		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
		assert.Equal(t, newPrice, updated.PriceCents)
		assert.Equal(t, "Solid oak", updated.Description)
	})

	t.Run("same-tenant non-owner gets forbidden", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)

		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

		newTitle := "hijacked"
		_, err := service.Update(ctx, scope, memberPrincipal(99), listing.ID, UpdateListingInput{Title: &newTitle})
		assert.ErrorIs(t, err, ErrNotListingOwner)
		assert.True(t, IsForbiddenError(err))
		scope.listings.AssertNotCalled(t, "Update")
	})

	t.Run("tenant admin may update any listing", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)

		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		scope.listings.On("Update", ctx, mock.Anything).Return(nil)

		status := models.ListingStatusArchived
		_, err := service.Update(ctx, scope, adminPrincipal(99), listing.ID, UpdateListingInput{Status: &status})
		require.NoError(t, err)
	})

	t.Run("missing listing", func(t *testing.T) {
		scope := newMockScope(7)
		id := uuid.New()
		scope.listings.On("GetByID", ctx, id).Return(nil, repositories.ErrNotFound)

		newTitle := "x"
		_, err := service.Update(ctx, scope, memberPrincipal(42), id, UpdateListingInput{Title: &newTitle})
		assert.ErrorIs(t, err, ErrListingNotFound)
	})
}

func TestListingService_Delete(t *testing.T) {
	ctx := context.Background()
	service := NewListingService(zap.NewNop())

	t.Run("owner deletes own listing", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)

		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		scope.listings.On("Delete", ctx, listing.ID).Return(nil)

		err := service.Delete(ctx, scope, memberPrincipal(42), listing.ID)
		require.NoError(t, err)
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		scope := newMockScope(7)
		listing := models.NewListing(42, "Garden table", "Solid oak", 12500)

		scope.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

		err := service.Delete(ctx, scope, memberPrincipal(99), listing.ID)
		assert.ErrorIs(t, err, ErrNotListingOwner)
		scope.listings.AssertNotCalled(t, "Delete")
	})
}
