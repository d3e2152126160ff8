package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	"github.com/stayfinder/stayfinder-api/internal/pkg/response"
)

// HandleError logs the failure and writes the error envelope.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	l := logger.FromContext(ctx)
	event := l.Error()
	if status < http.StatusInternalServerError {
		event = l.Warn()
	}
	event = event.
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
	}

	event.Msg("Request error")

	response.ErrorWithError(w, status, code, message, err)
}

// HandleErrorWithDetails handles an error response with additional details and logging
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, code, message string, details map[string]string, err error) {
	event := logger.FromContext(ctx).Warn().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
	}
	if details != nil {
		event = event.Interface("error_details", details)
	}

	event.Msg("Request error with details")

	response.ErrorWithDetails(w, status, code, message, details)
}

// HandlePanicError logs a recovered panic and writes a 500.
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		Str("request_id", logger.RequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service string, endpoint string, statusCode int, err error, body string) {
	logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Str("response_body", truncateString(body, 1000)).
		Msg("External service error")
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}

// HandleUpstreamError answers a failed accommodation API call with the
// given status and message. Unknown statuses become 502.
func HandleUpstreamError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status == http.StatusUnauthorized {
		message = SessionExpiredMessage
	}

	if status >= http.StatusInternalServerError {
		logger.LogError(ctx, err, "Upstream request failed", "status_code", status, "error_message", message)
	} else {
		logger.LogWarn(ctx, "Upstream request rejected", "status_code", status, "error_message", message, "error", errString(err))
	}

	switch status {
	case http.StatusBadRequest:
		response.BadRequest(w, message)
	case http.StatusUnauthorized:
		response.Unauthorized(w, message)
	case http.StatusForbidden:
		response.Forbidden(w, message)
	case http.StatusNotFound:
		response.NotFound(w, message)
	case http.StatusConflict:
		response.Conflict(w, message)
	case http.StatusUnprocessableEntity:
		response.ErrorWithDetails(w, status, "VALIDATION_ERROR", message, nil)
	case http.StatusGatewayTimeout:
		response.GatewayTimeout(w, message)
	default:
		response.BadGateway(w, message)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SessionExpiredMessage is shown when the session token is rejected.
const SessionExpiredMessage = "Session expired. Please login again."
