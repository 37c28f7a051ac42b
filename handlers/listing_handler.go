package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/localloop/backend/middleware"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"github.com/localloop/backend/services"
	"github.com/localloop/backend/utils"
	"go.uber.org/zap"
)

// CreateListingRequest represents a request to create a listing
type CreateListingRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
}

// UpdateListingRequest represents a partial listing update
type UpdateListingRequest struct {
	Title       *string               `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	PriceCents  *int64                `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	Status      *models.ListingStatus `json:"status,omitempty" validate:"omitempty,oneof=active sold archived"`
}

// ListingHandler handles listing HTTP requests. Every method builds its
// tenant-scoped accessor from the request's TenantContext; there is no code
// path that reaches listings without one.
type ListingHandler struct {
	scopes         repositories.ScopeFactory
	listingService *services.ListingService
	logger         *zap.Logger
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(scopes repositories.ScopeFactory, listingService *services.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		scopes:         scopes,
		listingService: listingService,
		logger:         logger,
	}
}

// HandleList handles GET /api/v1/listings
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	listings, err := h.listingService.List(r.Context(), scope, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if listings == nil {
		listings = []*models.Listing{}
	}
	_ = utils.WriteOK(w, listings)
}

// HandleGet handles GET /api/v1/listings/{id}
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	listing, err := h.listingService.Get(r.Context(), scope, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, listing)
}

// HandleCreate handles POST /api/v1/listings
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	listing, err := h.listingService.Create(r.Context(), scope, principal, services.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, listing)
}

// HandleUpdate handles PATCH /api/v1/listings/{id}
func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	listing, err := h.listingService.Update(r.Context(), scope, principal, id, services.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Status:      req.Status,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, listing)
}

// HandleDelete handles DELETE /api/v1/listings/{id}
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	if err := h.listingService.Delete(r.Context(), scope, principal, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// requestScope builds the tenant-scoped accessor from the request context.
// A missing TenantContext means the route was mounted without ResolveTenant;
// that is a wiring bug, not a client error.
func (h *ListingHandler) requestScope(w http.ResponseWriter, r *http.Request) (repositories.Scoped, bool) {
	tc := middleware.GetTenantFromContext(r.Context())
	if tc == nil {
		h.logger.Error("tenant context missing on tenant-scoped route",
			zap.String("path", r.URL.Path))
		_ = utils.WriteInternalServerError(w, "")
		return nil, false
	}
	return h.scopes.Scoped(tc), true
}

// listingID parses the {id} URL parameter
func (h *ListingHandler) listingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid listing ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
