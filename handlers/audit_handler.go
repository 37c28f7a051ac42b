package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/localloop/backend/middleware"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/utils"
	"go.uber.org/zap"
)

// AuditReader serves recorded security events. Implemented by
// audit.AuditService.
type AuditReader interface {
	Recent(ctx context.Context, tenantID int64, limit, offset int) ([]*models.AuditLog, error)
}

// AuditHandler exposes the tenant's security audit trail to admins
type AuditHandler struct {
	audits AuditReader
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audits AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audits: audits,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/audit. The route gates on an admin
// principal; the tenant comes from the resolved scope, so an admin can only
// ever read their own tenant's trail.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantFromContext(r.Context())
	if tc == nil {
		h.logger.Error("tenant context missing on audit route",
			zap.String("path", r.URL.Path))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.audits.Recent(r.Context(), tc.TenantID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if logs == nil {
		logs = []*models.AuditLog{}
	}
	_ = utils.WriteOK(w, logs)
}
