package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/capoo-pm/apiserver/internal/logging"
	"github.com/capoo-pm/apiserver/internal/services"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	errorTypeRateLimited      = "RATE_LIMITED"
	errorTypeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// Envelope is the body of every response.
type Envelope struct {
	Status   string         `json:"status"`
	Message  string         `json:"message"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, key string, data any) {
	writeJSON(w, status, Envelope{
		Status:  statusSuccess,
		Message: message(key),
		Data:    data,
	})
}

// writeError writes an error envelope. extra is merged into the metadata.
func writeError(w http.ResponseWriter, r *http.Request, status int, errorType, key string, extra map[string]any) {
	metadata := map[string]any{
		"error_type":  errorType,
		"message_key": key,
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		metadata["request_id"] = reqID
	}
	for k, v := range extra {
		metadata[k] = v
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, Envelope{
		Status:   statusError,
		Message:  message(key),
		Metadata: metadata,
	})
}

// writeServiceError translates a service failure into its status code and
// envelope. Unexpected failures are logged and reported opaquely.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := services.AsError(err)
	status := statusFor(svcErr.Kind)

	if svcErr.Kind == services.KindUnexpected {
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			slog.Any("error", err),
		)
		writeError(w, r, status, svcErr.Kind.String(), services.KeyUnexpectedError, nil)
		return
	}

	var extra map[string]any
	if svcErr.Kind == services.KindValidation && svcErr.Err != nil {
		extra = map[string]any{"detail": svcErr.Err.Error()}
	}
	writeError(w, r, status, svcErr.Kind.String(), svcErr.Key, extra)
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeRequestError reports a decoding or validation failure.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeError(w, r, http.StatusUnprocessableEntity, services.KindValidation.String(),
			services.KeyValidationFailed, map[string]any{"fields": verr.fields})
		return
	}
	writeError(w, r, http.StatusBadRequest, services.KindBadRequest.String(), services.KeyBadRequest, nil)
}
