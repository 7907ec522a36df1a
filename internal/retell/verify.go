package retell

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// SignatureHeader carries the HMAC-SHA256 signature of the raw body.
const SignatureHeader = "X-Retell-Signature"

// ReadAndVerify reads the request body, verifies its signature against the
// webhook secret, and restores the body so the caller can parse it. An empty
// secret is a deployment mistake and fails closed as a config error rather
// than letting unauthenticated payloads through.
func ReadAndVerify(r *http.Request, secret string) ([]byte, error) {
	if secret == "" {
		return nil, apperrors.ConfigError("webhook secret is not configured")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperrors.PayloadMalformed(err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if err := VerifySignature(secret, body, r.Header.Get(SignatureHeader)); err != nil {
		return nil, err
	}

	return body, nil
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of body against the
// received signature using a constant-time comparison.
func VerifySignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return apperrors.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return apperrors.ErrSignatureInvalid
	}
	return nil
}

// VerifyBearer checks the Authorization header of the generic webhook route
// against the configured token. Comparison is constant time.
func VerifyBearer(r *http.Request, token string) error {
	if token == "" {
		return apperrors.ConfigError("API bearer token is not configured")
	}

	header := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return apperrors.ErrUnauthorized
	}

	if len(presented) != len(token) {
		return apperrors.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
		return apperrors.ErrUnauthorized
	}
	return nil
}
