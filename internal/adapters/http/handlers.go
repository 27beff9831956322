package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bulkmail/internal/domain/mail"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(k mail.Kind) int {
	switch k {
	case mail.KindValidation:
		return http.StatusBadRequest
	case mail.KindUnauthorized:
		return http.StatusUnauthorized
	case mail.KindTransportConstruction:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a *mail.Error with its kind; anything else is an internal error.
func writeError(w http.ResponseWriter, err error) {
	var me *mail.Error
	if !errors.As(err, &me) {
		internalError(w, err)
		return
	}
	status := statusForKind(me.Kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "kind", string(me.Kind), "error", err.Error())
	}
	writeJSON(w, status, errorResponse{Message: me.Message, Kind: string(me.Kind)})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Bulk Mail API is running",
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: "route not found"})
}
