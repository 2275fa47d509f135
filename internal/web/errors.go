package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Given a status code derived from the sentinel they wrap
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON, or as an HTML fragment for pages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/logging"
	"github.com/JonMunkholm/provtab/internal/minitable"
	"github.com/JonMunkholm/provtab/internal/upload"
	"github.com/JonMunkholm/provtab/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("invalid request body")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// statusFor picks the HTTP status for an error by the sentinel it wraps.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrColumnNotFound),
		errors.Is(err, core.ErrEmptyRange),
		errors.Is(err, core.ErrRangeOutOfBounds),
		errors.Is(err, core.ErrShapeMismatch),
		errors.Is(err, minitable.ErrNoSteps),
		errors.Is(err, minitable.ErrEmptyName),
		errors.Is(err, edit.ErrUnknownLayer),
		errors.Is(err, edit.ErrCoreLayer),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrHeaderNotFound),
		errors.Is(err, upload.ErrNoDataRows),
		errors.Is(err, upload.ErrTooManyRows),
		errors.Is(err, upload.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTableNotFound),
		errors.Is(err, core.ErrUnknownSheet),
		errors.Is(err, minitable.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTableExists),
		errors.Is(err, minitable.ErrDuplicateWorkflow),
		errors.Is(err, minitable.ErrGroupReused),
		errors.Is(err, edit.ErrAlreadyInstantiated),
		errors.Is(err, edit.ErrLayerDisabled):
		return http.StatusConflict
	case errors.Is(err, core.ErrEditBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	respondErrorHTML(w, r, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(newErrorResponse(msg))
}

// respondErrorHTML renders the error alert fragment.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
