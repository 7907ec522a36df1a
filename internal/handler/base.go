// Package handler provides HTTP handlers for the application.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
)

// Pagination bounds for list endpoints.
const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// JSON writes a JSON response with the appropriate headers, including the
// request ID when the correlation middleware supplied one.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if reqID := middleware.GetRequestID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-ID", reqID)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response, mapping application errors to their HTTP
// status and hiding internal detail for everything else.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := apperrors.GetHTTPStatus(err)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		JSON(w, r, status, appErr.ToResponse())
		return
	}

	logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	JSON(w, r, status, apperrors.InternalError("internal server error", nil).ToResponse())
}

// ListResponse is the envelope for paginated list endpoints.
type ListResponse struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// parsePagination reads limit/offset query parameters with clamped defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// uuidParam parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.InvalidFormat(name, "a UUID")
	}
	return id, nil
}

// companyIDParam parses the required company_id query parameter that scopes
// every CRM list endpoint to one tenant.
func companyIDParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("company_id")
	if raw == "" {
		return uuid.Nil, apperrors.MissingField("company_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.InvalidFormat("company_id", "a UUID")
	}
	return id, nil
}
