package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/audit"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// maxImportBodyBytes bounds CSV import uploads.
const maxImportBodyBytes = 5 << 20

// LeadAPIHandler handles lead API endpoints.
type LeadAPIHandler struct {
	leads  *service.LeadService
	audit  *audit.Logger
	logger *zap.Logger
}

// NewLeadAPIHandler creates a new LeadAPIHandler.
func NewLeadAPIHandler(leads *service.LeadService, aud *audit.Logger, logger *zap.Logger) *LeadAPIHandler {
	return &LeadAPIHandler{leads: leads, audit: aud, logger: logger}
}

// RegisterRoutes registers lead API routes.
func (h *LeadAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(middleware.BodySizeLimiter(maxImportBodyBytes)).Post("/import", h.Import)
		r.Get("/{leadID}", h.Get)
		r.Put("/{leadID}/status", h.UpdateStatus)
	})
}

// List handles GET /api/leads?company_id=...&status=...&search=...
func (h *LeadAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	limit, offset := parsePagination(r)

	filter := &domain.LeadListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("status"); v != "" {
		if err := repository.ValidLeadStatus(v); err != nil {
			Error(w, r, h.logger, err)
			return
		}
		status := domain.LeadStatus(v)
		filter.Status = &status
	}

	leads, total, err := h.leads.List(r.Context(), companyID, filter, limit, offset)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ListResponse{Data: leads, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/leads/{leadID}
func (h *LeadAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "leadID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.Get(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, lead)
}

// UpdateStatusRequest is the request body for a lead status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/leads/{leadID}/status
func (h *LeadAPIHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "leadID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, r, h.logger, apperrors.PayloadMalformed(err))
		return
	}
	if req.Status == "" {
		Error(w, r, h.logger, apperrors.MissingField("status"))
		return
	}

	prior, err := h.leads.Get(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	if h.audit != nil {
		h.audit.LeadStatusChanged(r.Context(), id.String(), r.RemoteAddr,
			middleware.GetRequestID(r.Context()), string(prior.Status), string(lead.Status))
	}
	JSON(w, r, http.StatusOK, lead)
}

// Import handles POST /api/leads/import?company_id=... with a CSV body.
func (h *LeadAPIHandler) Import(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	report, err := h.leads.ImportCSV(r.Context(), companyID, r.Body)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	if h.audit != nil {
		h.audit.LeadsImported(r.Context(), companyID.String(), r.RemoteAddr,
			middleware.GetRequestID(r.Context()), report.Imported, report.Skipped)
	}
	JSON(w, r, http.StatusOK, report)
}
