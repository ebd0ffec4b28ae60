package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an action failed.
type ErrorKind string

const (
	KindInput             ErrorKind = "input_error"
	KindModelConfig       ErrorKind = "model_config_error"
	KindNetwork           ErrorKind = "network_error"
	KindAPI               ErrorKind = "api_error"
	KindBlockedContent    ErrorKind = "blocked_content_error"
	KindMalformedResponse ErrorKind = "malformed_response_error"
)

// Error is the failure half of an ActionResult.
// StatusCode and Body are set for KindAPI, Reason for KindBlockedContent.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Body       string    `json:"body,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the ErrorKind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func ErrInput(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

func ErrInputf(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// ErrUnknownModel unknown model id
func ErrUnknownModel(modelID string) *Error {
	return &Error{Kind: KindModelConfig, Message: fmt.Sprintf("unknown model %q", modelID)}
}

func ErrModelConfig(message string, cause error) *Error {
	return &Error{Kind: KindModelConfig, Message: message, Cause: cause}
}

func ErrNetwork(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: "failed to reach the AI backend", Cause: cause}
}

// ErrAPI non-success HTTP status from the backend
func ErrAPI(statusCode int, body string) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    fmt.Sprintf("API request failed with status %d: %s", statusCode, body),
		StatusCode: statusCode,
		Body:       body,
	}
}

// ErrBlockedContent backend finished without emitting content
func ErrBlockedContent(reason string) *Error {
	return &Error{
		Kind:    KindBlockedContent,
		Message: fmt.Sprintf("API call finished with reason: %s. The prompt may have been blocked.", reason),
		Reason:  reason,
	}
}

func ErrMalformedResponse(detail string) *Error {
	msg := "Invalid response structure from API."
	if detail != "" {
		msg += " " + detail
	}
	return &Error{Kind: KindMalformedResponse, Message: msg}
}
