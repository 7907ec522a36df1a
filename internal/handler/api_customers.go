package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// CustomerAPIHandler handles customer API endpoints.
type CustomerAPIHandler struct {
	customers *service.CustomerService
	logger    *zap.Logger
}

// NewCustomerAPIHandler creates a new CustomerAPIHandler.
func NewCustomerAPIHandler(customers *service.CustomerService, logger *zap.Logger) *CustomerAPIHandler {
	return &CustomerAPIHandler{customers: customers, logger: logger}
}

// RegisterRoutes registers customer API routes.
func (h *CustomerAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{customerID}", h.Get)
	})
}

// List handles GET /api/customers?company_id=...
func (h *CustomerAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDParam(r)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	limit, offset := parsePagination(r)

	customers, total, err := h.customers.List(r.Context(), companyID, limit, offset)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, ListResponse{Data: customers, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/customers/{customerID}
func (h *CustomerAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "customerID")
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		Error(w, r, h.logger, err)
		return
	}
	JSON(w, r, http.StatusOK, customer)
}
