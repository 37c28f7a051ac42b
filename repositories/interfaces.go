package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localloop/backend/models"
)

// ErrNotFound is returned by repositories when the requested row does not
// exist within the caller's visibility. For tenant-scoped repositories this
// deliberately covers both "no such row" and "row belongs to another tenant".
var ErrNotFound = errors.New("repositories: not found")

// ErrDuplicate is returned when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("repositories: duplicate")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction. The context
	// passed to fn carries the transaction, so repository calls made with it
	// execute on the transaction. Commits if fn succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// TenantRepository handles tenant records. Tenants themselves are not
// tenant-scoped; they are the scope.
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *models.Tenant) error

	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id int64) (*models.Tenant, error)

	// GetBySlug retrieves a tenant by slug
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// UserRepository handles user accounts. Lookups used by the auth flows are
// global (login is by email), but every row carries its tenant.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// RefreshTokenRepository persists rotating refresh tokens and their
// revocation state. Rows are never deleted.
type RefreshTokenRepository interface {
	// Create inserts a new refresh token row
	Create(ctx context.Context, token *models.RefreshToken) error

	// GetByTokenHash retrieves a refresh token by its storage hash
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Consume atomically marks a token revoked and replaced. It only
	// succeeds when the token has not yet been revoked or replaced, so two
	// concurrent rotations of the same token produce exactly one winner.
	// Returns false when the token was already consumed.
	Consume(ctx context.Context, id uuid.UUID, replacedBy uuid.UUID, revokedAt time.Time) (bool, error)

	// RevokeAllForUser revokes every outstanding refresh token for a user
	RevokeAllForUser(ctx context.Context, subjectID int64, revokedAt time.Time) error
}

// AuditRepository persists security audit events
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByTenantID retrieves audit logs for a tenant with pagination
	GetByTenantID(ctx context.Context, tenantID int64, limit, offset int) ([]*models.AuditLog, error)
}

// ListingRepository is the access path for listings. Instances only exist
// bound to a TenantContext (see Scoped): every read is intersected with the
// context's tenant, creates stamp it, and updates/deletes target it. There is
// no unscoped implementation.
type ListingRepository interface {
	// Create inserts a listing with tenant_id forced to the bound tenant
	Create(ctx context.Context, listing *models.Listing) error

	// GetByID retrieves a listing visible to the bound tenant.
	// Returns ErrNotFound for rows belonging to other tenants.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)

	// List retrieves the bound tenant's listings with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Listing, error)

	// Update updates a listing owned by the bound tenant.
	// Returns ErrNotFound (no mutation) when the row is outside the tenant.
	Update(ctx context.Context, listing *models.Listing) error

	// Delete deletes a listing owned by the bound tenant.
	// Returns ErrNotFound (no mutation) when the row is outside the tenant.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Scoped is the accessor business logic must use for all tenant-scoped data.
// A Scoped instance is bound to exactly one request's TenantContext.
type Scoped interface {
	// TenantID returns the bound tenant
	TenantID() int64

	// Listings returns the listing repository bound to the tenant
	Listings() ListingRepository
}

// ScopeFactory produces Scoped accessors from a resolved TenantContext.
// This is the only way to reach a ListingRepository.
type ScopeFactory interface {
	Scoped(tc *models.TenantContext) Scoped
}
