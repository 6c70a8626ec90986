package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"seedrush/internal/domain"
	"seedrush/internal/usecase"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeWorkflowError maps the client error taxonomy onto HTTP status codes.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, usecase.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "another operation is in flight")
	case errors.Is(err, usecase.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, usecase.ErrRemote):
		writeError(w, http.StatusBadGateway, "engine_error", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "session not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
