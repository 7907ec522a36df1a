package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/logging"
)

// LogLevelHandler exposes the logger's level for runtime adjustment, so
// debug logging can be turned on for a misbehaving instance without a
// restart.
type LogLevelHandler struct {
	level  zap.AtomicLevel
	logger *zap.Logger
}

// NewLogLevelHandler creates a handler bound to the given atomic level.
func NewLogLevelHandler(level zap.AtomicLevel, logger *zap.Logger) *LogLevelHandler {
	return &LogLevelHandler{level: level, logger: logger}
}

type logLevelBody struct {
	Level string `json:"level"`
}

// ServeHTTP reports the current level on GET and changes it on PUT or POST.
func (h *LogLevelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		JSON(w, r, http.StatusOK, map[string]string{
			"level": h.level.Level().String(),
		})
	case http.MethodPut, http.MethodPost:
		h.setLevel(w, r)
	default:
		JSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (h *LogLevelHandler) setLevel(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("level")
	if requested == "" {
		var body logLevelBody
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			requested = body.Level
		}
	}
	if requested == "" {
		Error(w, r, h.logger, apperrors.MissingField("level"))
		return
	}

	level, err := logging.ParseLevel(requested)
	if err != nil {
		Error(w, r, h.logger, apperrors.ValidationFailed(err.Error()))
		return
	}

	previous := h.level.Level()
	h.level.SetLevel(level)

	h.logger.Info("log level changed",
		zap.String("from", previous.String()),
		zap.String("to", level.String()),
	)

	JSON(w, r, http.StatusOK, map[string]string{
		"level":    level.String(),
		"previous": previous.String(),
	})
}
