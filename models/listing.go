package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus represents the lifecycle state of a listing
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusArchived ListingStatus = "archived"
)

// Listing is a marketplace item offered within a single tenant. It is a
// tenant-scoped entity: TenantID is stamped by the storage layer from the
// request's TenantContext and is never taken from client input.
type Listing struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	TenantID    int64         `json:"tenant_id" db:"tenant_id"`
	OwnerID     int64         `json:"owner_id" db:"owner_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	PriceCents  int64         `json:"price_cents" db:"price_cents"`
	Status      ListingStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}

// NewListing creates a new Listing instance owned by the given user
func NewListing(ownerID int64, title, description string, priceCents int64) *Listing {
	now := time.Now()
	return &Listing{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		PriceCents:  priceCents,
		Status:      ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
