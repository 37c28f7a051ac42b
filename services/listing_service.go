package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// CreateListingInput carries a listing creation request
type CreateListingInput struct {
	Title       string
	Description string
	PriceCents  int64
}

// UpdateListingInput carries a partial listing update. Nil fields are left
// unchanged.
type UpdateListingInput struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Status      *models.ListingStatus
}

// ListingService implements listing CRUD on top of tenant-scoped
// repositories. Tenant isolation is structural: the Scoped accessor it
// receives can only reach the request's tenant, so this layer only adds the
// ownership rule. A row outside the tenant surfaces as not-found before
// ownership is ever considered; only same-tenant non-owners learn the
// resource exists.
type ListingService struct {
	logger *zap.Logger
}

// NewListingService creates a new ListingService
func NewListingService(logger *zap.Logger) *ListingService {
	return &ListingService{logger: logger}
}

// Create creates a listing owned by the principal
func (s *ListingService) Create(ctx context.Context, scope repositories.Scoped, principal *models.Principal, input CreateListingInput) (*models.Listing, error) {
	listing := models.NewListing(principal.SubjectID, input.Title, input.Description, input.PriceCents)

	if err := scope.Listings().Create(ctx, listing); err != nil {
		return nil, WrapInternal("failed to create listing", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.Int64("tenant_id", scope.TenantID()),
		zap.Int64("owner_id", principal.SubjectID))

	return listing, nil
}

// Get retrieves a listing visible to the scope's tenant
func (s *ListingService) Get(ctx context.Context, scope repositories.Scoped, id uuid.UUID) (*models.Listing, error) {
	listing, err := scope.Listings().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, WrapInternal("failed to get listing", err)
	}
	return listing, nil
}

// List retrieves the tenant's listings with pagination
func (s *ListingService) List(ctx context.Context, scope repositories.Scoped, limit, offset int) ([]*models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	listings, err := scope.Listings().List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list listings", err)
	}
	return listings, nil
}

// Update applies a partial update to a listing. Only the owner or a tenant
// admin may modify it.
func (s *ListingService) Update(ctx context.Context, scope repositories.Scoped, principal *models.Principal, id uuid.UUID, input UpdateListingInput) (*models.Listing, error) {
	listing, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnership(listing, principal); err != nil {
		return nil, err
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.PriceCents != nil {
		listing.PriceCents = *input.PriceCents
	}
	if input.Status != nil {
		listing.Status = *input.Status
	}

	if err := scope.Listings().Update(ctx, listing); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, WrapInternal("failed to update listing", err)
	}

	return listing, nil
}

// Delete deletes a listing. Only the owner or a tenant admin may delete it.
func (s *ListingService) Delete(ctx context.Context, scope repositories.Scoped, principal *models.Principal, id uuid.UUID) error {
	listing, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}

	if err := s.checkOwnership(listing, principal); err != nil {
		return err
	}

	if err := scope.Listings().Delete(ctx, listing.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrListingNotFound
		}
		return WrapInternal("failed to delete listing", err)
	}

	s.logger.Info("listing deleted",
		zap.String("listing_id", id.String()),
		zap.Int64("tenant_id", scope.TenantID()))

	return nil
}

// checkOwnership allows the owner and tenant admins through
func (s *ListingService) checkOwnership(listing *models.Listing, principal *models.Principal) error {
	if listing.OwnerID == principal.SubjectID || principal.IsAdmin() {
		return nil
	}

	s.logger.Warn("listing modification denied",
		zap.String("listing_id", listing.ID.String()),
		zap.Int64("owner_id", listing.OwnerID),
		zap.Int64("subject_id", principal.SubjectID))

	return ErrNotListingOwner
}
