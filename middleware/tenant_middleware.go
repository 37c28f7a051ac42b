package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/obs"
	"github.com/localloop/backend/token"
	"github.com/localloop/backend/utils"
	"go.uber.org/zap"
)

// TokenVerifier verifies a raw bearer token and returns the principal it
// carries. Implemented by token.Codec.
type TokenVerifier interface {
	VerifyAccessToken(raw string) (*models.Principal, error)
}

// devTenantHeader carries a tenant id on unauthenticated requests in
// non-production environments only.
const devTenantHeader = "X-Tenant-ID"

// TenantMiddleware resolves the tenant scope for every request that reaches
// tenant-scoped routes. Resolution happens exactly once per request and the
// result is immutable afterwards.
type TenantMiddleware struct {
	verifier     TokenVerifier
	logger       *zap.Logger
	isProduction bool
}

// NewTenantMiddleware creates a new TenantMiddleware
func NewTenantMiddleware(verifier TokenVerifier, logger *zap.Logger, isProduction bool) *TenantMiddleware {
	return &TenantMiddleware{
		verifier:     verifier,
		logger:       logger,
		isProduction: isProduction,
	}
}

// ResolveTenant establishes the request's tenant scope.
//
// Resolution order is strict: a present Authorization header is always
// verified, and verification failure is terminal. A failed bearer token never
// falls through to the X-Tenant-ID header, otherwise an attacker holding an
// expired token could pick any tenant by adding a header. The header is only
// consulted when the request carries no credentials at all, and only outside
// production.
func (m *TenantMiddleware) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			raw, ok := bearerToken(authHeader)
			if !ok {
				m.logger.Warn("malformed authorization header",
					zap.String("request_id", requestID))
				obs.RecordAuthFailure("malformed_header")
				_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
				return
			}

			principal, err := m.verifier.VerifyAccessToken(raw)
			if err != nil {
				m.logger.Warn("token verification failed",
					zap.String("request_id", requestID),
					zap.Error(err))
				obs.RecordAuthFailure(authFailureReason(err))
				_ = utils.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = WithPrincipal(ctx, principal)
			ctx = WithTenantContext(ctx, models.NewTenantContext(principal.TenantID, models.TenantOriginToken))

			m.logger.Debug("tenant resolved from token",
				zap.String("request_id", requestID),
				zap.Int64("tenant_id", principal.TenantID),
				zap.Int64("subject_id", principal.SubjectID))

			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if header := r.Header.Get(devTenantHeader); header != "" && !m.isProduction {
			tenantID, err := strconv.ParseInt(header, 10, 64)
			if err != nil || tenantID <= 0 {
				m.logger.Warn("invalid tenant header",
					zap.String("request_id", requestID),
					zap.String("header", header))
				_ = utils.WriteBadRequest(w, "Invalid X-Tenant-ID header", nil)
				return
			}

			obs.RecordDevHeaderResolution()
			m.logger.Info("tenant resolved from development header",
				zap.String("request_id", requestID),
				zap.Int64("tenant_id", tenantID))

			ctx = WithTenantContext(ctx, models.NewTenantContext(tenantID, models.TenantOriginDevHeader))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		m.logger.Warn("request reached tenant-scoped route without tenant scope",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path))
		_ = utils.WriteBadRequest(w, "Tenant scope required", nil)
	})
}

// RequireAuth rejects requests that carry no verified principal. Must run
// after ResolveTenant: a dev-header scope has a tenant but no principal and
// is rejected here for authenticated-only routes.
func (m *TenantMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipalFromContext(r.Context())
		if principal == nil {
			m.logger.Warn("authentication required",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects authenticated requests whose principal lacks the role
func (m *TenantMiddleware) RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipalFromContext(r.Context())
			if principal == nil {
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			if principal.Role != role {
				m.logger.Warn("insufficient role",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("required_role", string(role)),
					zap.String("role", string(principal.Role)))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an Authorization header value
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authFailureReason maps verification errors to a bounded metric label set
func authFailureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrMalformedClaims):
		return "malformed_claims"
	default:
		return "invalid"
	}
}
