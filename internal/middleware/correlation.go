// Package middleware provides the HTTP middleware stack: request
// correlation, logging, panic recovery, rate limiting, and body limits.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CorrelationIDHeader carries an id across related requests, e.g. all
	// webhook deliveries for one call.
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDHeader identifies a single request.
	RequestIDHeader = "X-Request-ID"
)

// requestIDs travels the context as one value; the request id is unique
// per request while the correlation id may span several.
type requestIDs struct {
	correlation string
	request     string
}

type requestIDsKey struct{}

// RequestCorrelation assigns correlation and request ids to every request.
type RequestCorrelation struct {
	logger *zap.Logger
}

// NewRequestCorrelation creates the correlation middleware.
func NewRequestCorrelation(logger *zap.Logger) *RequestCorrelation {
	return &RequestCorrelation{logger: logger}
}

// headerOrNew reads the named header, minting a fresh id when absent. A
// caller-provided id is kept so retries can be tied together.
func headerOrNew(r *http.Request, header string) string {
	if id := r.Header.Get(header); id != "" {
		return id
	}
	return uuid.NewString()
}

// Middleware honors inbound correlation headers, generates what is missing,
// stores both ids in the context, and echoes them on the response.
func (rc *RequestCorrelation) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := requestIDs{
			correlation: headerOrNew(r, CorrelationIDHeader),
			request:     headerOrNew(r, RequestIDHeader),
		}

		w.Header().Set(CorrelationIDHeader, ids.correlation)
		w.Header().Set(RequestIDHeader, ids.request)

		ctx := context.WithValue(r.Context(), requestIDsKey{}, ids)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func idsFromContext(ctx context.Context) requestIDs {
	ids, _ := ctx.Value(requestIDsKey{}).(requestIDs)
	return ids
}

// GetCorrelationID returns the correlation id from the context, or "".
func GetCorrelationID(ctx context.Context) string {
	return idsFromContext(ctx).correlation
}

// GetRequestID returns the request id from the context, or "".
func GetRequestID(ctx context.Context) string {
	return idsFromContext(ctx).request
}

// LoggerWithCorrelation attaches the context's ids to a logger.
func LoggerWithCorrelation(ctx context.Context, logger *zap.Logger) *zap.Logger {
	ids := idsFromContext(ctx)
	if ids == (requestIDs{}) {
		return logger
	}
	fields := make([]zap.Field, 0, 2)
	if ids.correlation != "" {
		fields = append(fields, zap.String("correlation_id", ids.correlation))
	}
	if ids.request != "" {
		fields = append(fields, zap.String("request_id", ids.request))
	}
	return logger.With(fields...)
}
