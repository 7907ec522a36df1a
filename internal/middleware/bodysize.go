package middleware

import (
	"encoding/json"
	"net/http"
)

// MaxWebhookBodySize caps webhook payloads. Call analyses with full
// transcripts run large, so the ceiling is generous (10MB).
const MaxWebhookBodySize int64 = 10 << 20

// BodySizeLimiter rejects requests whose declared Content-Length exceeds
// maxBytes and wraps the body with http.MaxBytesReader so chunked uploads
// are cut off at the same ceiling.
func BodySizeLimiter(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				writeTooLarge(w)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// BodySizeLimiterWebhook limits webhook payload bodies.
func BodySizeLimiterWebhook() func(http.Handler) http.Handler {
	return BodySizeLimiter(MaxWebhookBodySize)
}

func writeTooLarge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	json.NewEncoder(w).Encode(map[string]string{"error": "request body too large"})
}
