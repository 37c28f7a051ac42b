package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/localloop/backend/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// TenantContextKey is the context key for the resolved tenant scope
	TenantContextKey contextKey = "tenant_context"
)

// GetRequestIDFromContext retrieves the request ID from context. Falls back
// to the chi request ID when none was set explicitly.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimiddleware.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetPrincipalFromContext retrieves the authenticated principal from context.
// Returns nil on unauthenticated requests.
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if principal, ok := val.(*models.Principal); ok {
			return principal
		}
	}
	return nil
}

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetTenantFromContext retrieves the resolved tenant scope from context.
// Returns nil when no tenant was resolved for the request.
func GetTenantFromContext(ctx context.Context) *models.TenantContext {
	if val := ctx.Value(TenantContextKey); val != nil {
		if tc, ok := val.(*models.TenantContext); ok {
			return tc
		}
	}
	return nil
}

// WithTenantContext adds the resolved tenant scope to the context
func WithTenantContext(ctx context.Context, tc *models.TenantContext) context.Context {
	return context.WithValue(ctx, TenantContextKey, tc)
}
