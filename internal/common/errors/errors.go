// Package errors provides standardized error handling for the diagnosis API.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeRequestParse         ErrorCode = "REQUEST_PARSE_ERROR"
	ErrCodeUpstreamHTTP         ErrorCode = "UPSTREAM_HTTP_ERROR"
	ErrCodeUpstreamFormat       ErrorCode = "UPSTREAM_FORMAT_ERROR"
	ErrCodeTransport            ErrorCode = "TRANSPORT_ERROR"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeRateLimited          ErrorCode = "RATE_LIMITED"

	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error. Message carries
// the user-safe text returned to clients; Details is log-only and must never
// be written into a response body.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps an error code to the status code the API responds with.
// Upstream failures are always reported as 502 regardless of the status the
// external engine returned.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeConfigurationMissing:
		return http.StatusServiceUnavailable
	case ErrCodeRequestParse, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUpstreamHTTP, ErrCodeUpstreamFormat:
		return http.StatusBadGateway
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewConfigurationMissingError reports an unset required setting, such as the
// scoring engine URL. Short-circuits before any network call is attempted.
func NewConfigurationMissingError(setting, userMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   userMessage,
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestParseError reports an unparsable inbound request body.
func NewRequestParseError(userMessage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestParse,
		Message:   userMessage,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamHTTPError reports a non-2xx reply from the external engine.
func NewUpstreamHTTPError(status int, userMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamHTTP,
		Message:   userMessage,
		Details:   fmt.Sprintf("upstream status: %d", status),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamFormatError reports a reply body that is not usable JSON, either
// because it fails the content sniff (an HTML error page) or fails to parse.
func NewUpstreamFormatError(detail, userMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamFormat,
		Message:   userMessage,
		Details:   detail,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError reports a network-level failure reaching the engine.
func NewTransportError(userMessage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransport,
		Message:   userMessage,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports missing or out-of-range form fields.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "入力内容に誤りがあります。",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError reports a client exceeding the request window.
func NewRateLimitedError(userMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   userMessage,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError reports a failed lead-row insert. Always
// recovered locally, never surfaced to the client.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError reports a failed webhook or email dispatch.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
