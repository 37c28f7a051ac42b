package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockTokenVerifier is a mock implementation of TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyAccessToken(raw string) (*models.Principal, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func testPrincipal(tenantID int64) *models.Principal {
	return &models.Principal{
		SubjectID: 42,
		TenantID:  tenantID,
		Role:      models.RoleMember,
		Email:     "user@example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

func TestResolveTenant(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid bearer token establishes token-origin scope", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		mockVerifier.On("VerifyAccessToken", "valid-token").Return(testPrincipal(7), nil)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := GetTenantFromContext(r.Context())
			assert.NotNil(t, tc)
			assert.Equal(t, int64(7), tc.TenantID)
			assert.Equal(t, models.TenantOriginToken, tc.Origin)

			principal := GetPrincipalFromContext(r.Context())
			assert.NotNil(t, principal)
			assert.Equal(t, int64(42), principal.SubjectID)

			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockVerifier.AssertExpectations(t)
	})

	t.Run("token wins over conflicting header", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		mockVerifier.On("VerifyAccessToken", "valid-token").Return(testPrincipal(7), nil)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := GetTenantFromContext(r.Context())
			assert.Equal(t, int64(7), tc.TenantID)
			assert.Equal(t, models.TenantOriginToken, tc.Origin)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		req.Header.Set("X-Tenant-ID", "999")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired token never falls through to header", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		mockVerifier.On("VerifyAccessToken", "expired-token").Return(nil, token.ErrExpiredToken)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		req.Header.Set("X-Tenant-ID", "7")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockVerifier.AssertExpectations(t)
	})

	t.Run("malformed authorization header returns 401", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockVerifier.AssertNotCalled(t, "VerifyAccessToken")
	})

	t.Run("dev header resolves scope outside production", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := GetTenantFromContext(r.Context())
			assert.NotNil(t, tc)
			assert.Equal(t, int64(7), tc.TenantID)
			assert.Equal(t, models.TenantOriginDevHeader, tc.Origin)
			assert.Nil(t, GetPrincipalFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("X-Tenant-ID", "7")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockVerifier.AssertNotCalled(t, "VerifyAccessToken")
	})

	t.Run("dev header is ignored in production", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, true)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("X-Tenant-ID", "7")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric dev header returns 400", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.Header.Set("X-Tenant-ID", "not-a-number")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no token and no header returns 400", func(t *testing.T) {
		mockVerifier := new(MockTokenVerifier)
		middleware := NewTenantMiddleware(mockVerifier, logger, false)

		handler := middleware.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("authenticated request passes", func(t *testing.T) {
		middleware := NewTenantMiddleware(new(MockTokenVerifier), logger, false)

		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/listings", nil)
		req = req.WithContext(WithPrincipal(req.Context(), testPrincipal(7)))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("dev header scope is rejected on authenticated-only routes", func(t *testing.T) {
		middleware := NewTenantMiddleware(new(MockTokenVerifier), logger, false)

		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodPost, "/listings", nil)
		req = req.WithContext(WithTenantContext(req.Context(), models.NewTenantContext(7, models.TenantOriginDevHeader)))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	logger := zap.NewNop()

	t.Run("matching role passes", func(t *testing.T) {
		middleware := NewTenantMiddleware(new(MockTokenVerifier), logger, false)

		handler := middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		principal := testPrincipal(7)
		principal.Role = models.RoleAdmin

		req := httptest.NewRequest(http.MethodDelete, "/listings/abc", nil)
		req = req.WithContext(WithPrincipal(req.Context(), principal))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("member requesting admin route gets 403", func(t *testing.T) {
		middleware := NewTenantMiddleware(new(MockTokenVerifier), logger, false)

		handler := middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodDelete, "/listings/abc", nil)
		req = req.WithContext(WithPrincipal(req.Context(), testPrincipal(7)))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthenticated request gets 401", func(t *testing.T) {
		middleware := NewTenantMiddleware(new(MockTokenVerifier), logger, false)

		handler := middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodDelete, "/listings/abc", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
