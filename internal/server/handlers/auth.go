package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avolkov/folio/internal/models"
	"github.com/avolkov/folio/internal/server/auth"
	"github.com/avolkov/folio/internal/server/middleware"
	"github.com/avolkov/folio/pkg/api"
)

// AuthHandler serves the auth endpoints backed by the auth orchestrator.
type AuthHandler struct {
	logger *slog.Logger
	svc    *auth.Service
}

// NewAuthHandler creates the auth endpoints handler.
func NewAuthHandler(logger *slog.Logger, svc *auth.Service) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		svc:    svc,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Register(ctx, req)
	if err != nil {
		h.sendAuthError(w, err)
		return
	}

	h.sendJSON(w, authResponse(result), http.StatusCreated)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.sendAuthError(w, err)
		return
	}

	h.sendJSON(w, authResponse(result), http.StatusOK)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		h.sendError(w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.sendAuthError(w, err)
		return
	}

	h.sendJSON(w, authResponse(result), http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout
// Requires an authenticated principal; revokes all refresh tokens.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.Principal(ctx)
	if user == nil {
		h.sendError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Logout(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /api/v1/auth/delete-account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.Principal(ctx)
	if user == nil {
		h.sendError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.svc.DeleteAccount(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "account deletion failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendAuthError maps orchestrator errors to HTTP responses. Credential
// and token failures share one generic 401 message so responses leak
// nothing about which check failed.
func (h *AuthHandler) sendAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrEmailTaken):
		h.sendError(w, "email already registered", http.StatusConflict)
	case errors.Is(err, auth.ErrSlugTaken):
		h.sendError(w, "slug already taken", http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.sendError(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		h.sendError(w, "invalid refresh token", http.StatusUnauthorized)
	default:
		h.logger.Error("auth operation failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// authResponse converts an orchestrator result to the wire format.
// ExpiresAt travels as unix milliseconds.
func authResponse(result *auth.Result) api.AuthResponse {
	resp := api.AuthResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt.UnixMilli(),
	}

	if result.Profile != nil {
		resp.Profile = profileSummary(result.Profile)
	}

	return resp
}

func profileSummary(profile *models.Profile) *api.ProfileSummary {
	return &api.ProfileSummary{
		Slug:        profile.Slug,
		DisplayName: profile.DisplayName,
		Headline:    profile.Headline,
	}
}

// sendJSON writes a JSON response with the given status code
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
