package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localloop/backend/middleware"
	"github.com/localloop/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockAuditReader is a mock implementation of AuditReader
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) Recent(ctx context.Context, tenantID int64, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandleListAudit(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns the scope tenant's events", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		logs := []*models.AuditLog{
			models.NewAuditLog(models.AuditActionLoginSucceeded, "user").WithTenant(7),
		}
		reader.On("Recent", mock.Anything, int64(7), 0, 0).Return(logs, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
		req = req.WithContext(middleware.WithTenantContext(req.Context(),
			models.NewTenantContext(7, models.TenantOriginToken)))
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		reader.AssertExpectations(t)
	})

	t.Run("missing tenant context is a server error", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		reader.AssertNotCalled(t, "Recent")
	})
}
