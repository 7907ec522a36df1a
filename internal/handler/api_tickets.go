package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/audit"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// TicketAPIHandler handles ticket API endpoints.
type TicketAPIHandler struct {
	tickets *service.TicketService
	audit   *audit.Logger
	logger  *zap.Logger
}

// NewTicketAPIHandler creates a new TicketAPIHandler.
func NewTicketAPIHandler(tickets *service.TicketService, aud *audit.Logger, logger *zap.Logger) *TicketAPIHandler {
	return &TicketAPIHandler{tickets: tickets, audit: aud, logger: logger}
}

// RegisterRoutes registers ticket API routes.
func (h *TicketAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{ticketID}", h.Get)
		r.Post("/{ticketID}/convert", h.ConvertToLead)
		r.Post("/{ticketID}/convert-to-case", h.ConvertToSupportCase)
	})
}

// List handles GET /api/tickets?company_id=...&status=...&archived=...
func (h *TicketAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	limit, offset := parsePagination(r)

	filter := &domain.TicketListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("status"); v != "" {
		if err := repository.ValidTicketStatus(v); err != nil {
			Error(w, r, h.logger, err)
			return
		}
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("archived"); v != "" {
		if archived, err := strconv.ParseBool(v); err == nil {
			filter.Archived = &archived
		}
	}

	tickets, total, err := h.tickets.List(r.Context(), companyID, filter, limit, offset)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ListResponse{Data: tickets, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/tickets/{ticketID}
func (h *TicketAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ticketID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ticket)
}

// ConvertToLead handles POST /api/tickets/{ticketID}/convert
func (h *TicketAPIHandler) ConvertToLead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ticketID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	lead, err := h.tickets.ConvertToLead(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	if h.audit != nil {
		h.audit.TicketConverted(r.Context(), id.String(), lead.ID.String(),
			r.RemoteAddr, middleware.GetRequestID(r.Context()))
	}
	JSON(w, r, http.StatusCreated, lead)
}

// ConvertToSupportCase handles POST /api/tickets/{ticketID}/convert-to-case
func (h *TicketAPIHandler) ConvertToSupportCase(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ticketID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	sc, err := h.tickets.ConvertToSupportCase(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	if h.audit != nil {
		h.audit.TicketEscalated(r.Context(), id.String(), sc.ID.String(),
			r.RemoteAddr, middleware.GetRequestID(r.Context()))
	}
	JSON(w, r, http.StatusCreated, sc)
}
