package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/localloop/backend/middleware"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/services"
	"github.com/localloop/backend/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a request to register a new account
type RegisterRequest struct {
	TenantSlug string `json:"tenant_slug" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt string          `json:"created_at"`
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, input services.RegisterInput, meta models.RequestMeta) (*models.User, error)
	Login(ctx context.Context, email, password string, meta models.RequestMeta) (*services.TokenPair, error)
	Refresh(ctx context.Context, rawToken string, meta models.RequestMeta) (*services.TokenPair, error)
	Logout(ctx context.Context, principal *models.Principal, meta models.RequestMeta) error
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.authService.Register(r.Context(), services.RegisterInput{
		TenantSlug: req.TenantSlug,
		Email:      req.Email,
		Password:   req.Password,
	}, requestMeta(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, toUserResponse(user))
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, pair)
}

// HandleRefresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken, requestMeta(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, pair)
}

// HandleLogout handles POST /api/v1/auth/logout. Requires a verified
// principal; the route is mounted behind RequireAuth.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), principal, requestMeta(r)); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// requestMeta collects per-request metadata for the audit trail
func requestMeta(r *http.Request) models.RequestMeta {
	return models.RequestMeta{
		RequestID: middleware.GetRequestIDFromContext(r.Context()),
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// toUserResponse converts a user model to its API representation
func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		TenantID:  user.TenantID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
