// Package httpapi provides the shared JSON response envelope and HTTP
// middleware for the QuestForge API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

// maxBodyBytes caps request payloads. Character imports are the
// largest legitimate body and stay well under this.
const maxBodyBytes = 1 << 20

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code and a client-safe message.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a domain error onto the envelope. Internal detail is
// logged, never surfaced.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	requestID := RequestIDFromContext(r.Context())

	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.String("code", string(code)),
			zap.Error(err))
	}

	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:      string(code),
		Message:   apperrors.PublicMessage(err),
		RequestID: requestID,
	}})
}

// DecodeJSON decodes a request body into target, rejecting unknown
// fields and oversized payloads.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeMalformedRequest, "request body too large")
		}
		return apperrors.Wrap(apperrors.CodeMalformedRequest, "request body is not valid JSON", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.New(apperrors.CodeMalformedRequest, "request body must contain a single JSON object")
	}
	return nil
}

// ValidationError converts validator output into the envelope error.
func ValidationError(err error) error {
	return apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("validation failed: %v", err), err)
}
