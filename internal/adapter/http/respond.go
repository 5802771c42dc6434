package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"go.uber.org/zap"
)

// errMalformedBody covers undecodable request bodies; caller-fixable.
var errMalformedBody = errors.New("malformed request body")

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognized is a storage/upstream fault: generic 500, details logged
// server-side only.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	msg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidMAC),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotifyTarget),
		errors.Is(err, errMalformedBody):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrDeviceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		msg = "unauthorized"
	default:
		status = http.StatusInternalServerError
		msg = "internal error"
		h.log.Error("Request failed", zap.Error(err))
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}
