package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/services"
	"github.com/localloop/backend/utils"
	"go.uber.org/zap"
)

// CreateTenantRequest represents a tenant provisioning request
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,min=2,max=63"`
}

// TenantService provisions tenants and serves tenant metadata
type TenantService interface {
	Provision(ctx context.Context, name, slug string) (*models.Tenant, error)
	Get(ctx context.Context, id int64) (*models.Tenant, error)
}

// TenantHandler handles the tenant provisioning surface. It sits outside
// tenant scoping: tenants are the boundary, not data within it.
type TenantHandler struct {
	tenantService TenantService
	logger        *zap.Logger
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		logger:        logger,
	}
}

// HandleCreate handles POST /api/v1/tenants
func (h *TenantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	tenant, err := h.tenantService.Provision(r.Context(), req.Name, req.Slug)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, tenant)
}

// HandleGet handles GET /api/v1/tenants/{id}
func (h *TenantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		_ = utils.WriteBadRequest(w, "Invalid tenant ID", nil)
		return
	}

	tenant, err := h.tenantService.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, tenant)
}

var _ TenantService = (*services.TenantService)(nil)
