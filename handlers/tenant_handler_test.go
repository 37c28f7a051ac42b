package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockTenantService is a mock implementation of TenantService
type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Provision(ctx context.Context, name, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, name, slug)
	if t := args.Get(0); t != nil {
		return t.(*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTenantService) Get(ctx context.Context, id int64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandleCreateTenant(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid request returns 201", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		tenant := models.NewTenant("Acme", "acme")
		tenant.ID = 7
		mockService.On("Provision", mock.Anything, "Acme", "acme").Return(tenant, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", jsonBody(t, CreateTenantRequest{
			Name: "Acme",
			Slug: "acme",
		}))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("missing slug returns 400", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", jsonBody(t, CreateTenantRequest{
			Name: "Acme",
		}))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Provision")
	})

	t.Run("duplicate slug returns 409", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		mockService.On("Provision", mock.Anything, "Acme", "acme").Return(nil, services.ErrDuplicateSlug)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", jsonBody(t, CreateTenantRequest{
			Name: "Acme",
			Slug: "acme",
		}))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleGetTenant(t *testing.T) {
	logger := zap.NewNop()

	newGetRequest := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/"+id, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("found returns 200", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		tenant := models.NewTenant("Acme", "acme")
		tenant.ID = 7
		mockService.On("Get", mock.Anything, int64(7)).Return(tenant, nil)

		rec := httptest.NewRecorder()
		handler.HandleGet(rec, newGetRequest("7"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		rec := httptest.NewRecorder()
		handler.HandleGet(rec, newGetRequest("acme"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Get")
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		mockService := new(MockTenantService)
		handler := NewTenantHandler(mockService, logger)

		mockService.On("Get", mock.Anything, int64(99)).Return(nil, services.ErrTenantNotFound)

		rec := httptest.NewRecorder()
		handler.HandleGet(rec, newGetRequest("99"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
