package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/audit"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// SettingsAPIHandler handles company notification settings endpoints.
type SettingsAPIHandler struct {
	settings *service.CompanySettingsService
	audit    *audit.Logger
	logger   *zap.Logger
}

// NewSettingsAPIHandler creates a new SettingsAPIHandler.
func NewSettingsAPIHandler(settings *service.CompanySettingsService, aud *audit.Logger, logger *zap.Logger) *SettingsAPIHandler {
	return &SettingsAPIHandler{settings: settings, audit: aud, logger: logger}
}

// RegisterRoutes registers settings API routes.
func (h *SettingsAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/notifications", h.GetNotifications)
		r.Put("/", h.Set)
	})
}

// GetNotifications handles GET /api/settings/notifications?company_id=...
func (h *SettingsAPIHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	ns, err := h.settings.GetNotificationSettings(r.Context(), companyID)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ns)
}

// SetSettingRequest is the request body for a settings upsert.
type SetSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Set handles PUT /api/settings?company_id=...
func (h *SettingsAPIHandler) Set(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	var req SetSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, r, h.logger, apperrors.PayloadMalformed(err))
		return
	}
	if req.Key == "" {
		Error(w, r, h.logger, apperrors.MissingField("key"))
		return
	}

	if err := h.settings.Set(r.Context(), companyID, req.Key, req.Value); err != nil {
		Error(w, r, h.logger, err)
		return
	}

	if h.audit != nil {
		h.audit.SettingChanged(r.Context(), companyID.String(), req.Key,
			r.RemoteAddr, middleware.GetRequestID(r.Context()))
	}
	JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
