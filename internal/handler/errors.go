package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pcormier/tag-registry/internal/domain"
)

// errorDetail is the machine-readable error payload nested in every error body.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the uniform JSON error envelope returned by all endpoints.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// notFoundBody returns an errorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "tag not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: "not_found", Message: message}}
}

// conflictBody returns an errorResponse for a naming conflict.
func conflictBody(message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: "already_exists", Message: message}}
}

// validationBody returns an errorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) errorResponse {
	return errorResponse{Error: errorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an errorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed JSON body).
func requestBody(message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: "validation_error", Message: message}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TagStore.AddOrUpdate: validation error: name is required" → "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok {
		return after
	}
	return msg
}

// writeJSON serialises v with the given status. Encoding failures are
// swallowed — the status line has already been written at that point.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
