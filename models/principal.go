package models

import "time"

// Principal is the authenticated identity extracted from a verified access
// token. It is constructed once during verification, is immutable, and lives
// only for the duration of a single request.
type Principal struct {
	SubjectID int64
	TenantID  int64
	Role      UserRole
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin returns true if the principal carries the admin role
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// TenantOrigin enumerates how a request's tenant scope was resolved.
type TenantOrigin string

const (
	// TenantOriginToken means the tenant was taken from a verified bearer
	// token. This origin always wins over any client-supplied header.
	TenantOriginToken TenantOrigin = "token"

	// TenantOriginDevHeader means the tenant came from the X-Tenant-ID
	// header. Only possible in non-production environments and only on
	// unauthenticated requests.
	TenantOriginDevHeader TenantOrigin = "dev_header"
)

// TenantContext is the single source of truth for which tenant a request may
// touch. Exactly one TenantContext is constructed per request, at resolution
// time, and it is never mutated or re-resolved afterwards.
type TenantContext struct {
	TenantID   int64
	Origin     TenantOrigin
	ResolvedAt time.Time
}

// NewTenantContext constructs a TenantContext resolved now.
func NewTenantContext(tenantID int64, origin TenantOrigin) *TenantContext {
	return &TenantContext{
		TenantID:   tenantID,
		Origin:     origin,
		ResolvedAt: time.Now(),
	}
}
