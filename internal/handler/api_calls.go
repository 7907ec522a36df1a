package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// CallAPIHandler handles call record API endpoints.
type CallAPIHandler struct {
	calls  *service.CallRecordService
	logger *zap.Logger
}

// NewCallAPIHandler creates a new CallAPIHandler.
func NewCallAPIHandler(calls *service.CallRecordService, logger *zap.Logger) *CallAPIHandler {
	return &CallAPIHandler{calls: calls, logger: logger}
}

// RegisterRoutes registers call record API routes.
func (h *CallAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/calls", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{callRecordID}", h.Get)
	})
}

// List handles GET /api/calls?company_id=...&status=...&direction=...
func (h *CallAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	limit, offset := parsePagination(r)

	filter := &domain.CallRecordListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("status"); v != "" {
		if err := repository.ValidCallStatus(v); err != nil {
			Error(w, r, h.logger, err)
			return
		}
		status := domain.CallRecordStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("direction"); v != "" {
		if err := repository.ValidCallDirection(v); err != nil {
			Error(w, r, h.logger, err)
			return
		}
		direction := domain.CallDirection(v)
		filter.Direction = &direction
	}

	calls, total, err := h.calls.List(r.Context(), companyID, filter, limit, offset)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ListResponse{Data: calls, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/calls/{callRecordID}
func (h *CallAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "callRecordID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	record, err := h.calls.Get(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, record)
}
