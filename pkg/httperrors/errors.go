package httperrors

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind string

const (
	InvalidInput        Kind = "invalid_input"
	UnsupportedPlatform Kind = "unsupported_platform"
	UpstreamFailure     Kind = "upstream_failure"
	RemoteJobError      Kind = "remote_job_error"
	RemoteJobTimeout    Kind = "remote_job_timeout"
	PayloadTooLarge     Kind = "payload_too_large"
	Cancelled           Kind = "cancelled"
	Internal            Kind = "internal"
)

// StatusClientClosedRequest is the nginx convention for a client that went away.
const StatusClientClosedRequest = 499

var statusByKind = map[Kind]int{
	InvalidInput:        http.StatusBadRequest,
	UnsupportedPlatform: http.StatusUnprocessableEntity,
	UpstreamFailure:     http.StatusBadGateway,
	RemoteJobError:      http.StatusBadGateway,
	RemoteJobTimeout:    http.StatusGatewayTimeout,
	PayloadTooLarge:     http.StatusRequestEntityTooLarge,
	Cancelled:           StatusClientClosedRequest,
	Internal:            http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status when the failure came from a remote response.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Cause() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewInvalidInput(message string) *Error { return New(InvalidInput, message) }

func NewUnsupportedPlatform(message string) *Error { return New(UnsupportedPlatform, message) }

func NewUpstreamFailure(status int, message string) *Error {
	return &Error{Kind: UpstreamFailure, Message: message, Status: status}
}

func NewRemoteJobError(message string) *Error { return New(RemoteJobError, message) }

func NewRemoteJobTimeout(message string) *Error { return New(RemoteJobTimeout, message) }

func NewPayloadTooLarge(message string) *Error { return New(PayloadTooLarge, message) }

func NewCancelled(err error) *Error { return Wrap(Cancelled, err, "download cancelled") }

// KindOf classifies any error. Context cancellation maps to Cancelled so it is
// never reported as a generic failure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return Cancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return UpstreamFailure
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func StatusCode(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// UserMessage returns the text shown to callers; each download failure kind gets a
// distinct message so timeouts, remote errors and size limits can be told apart.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		if KindOf(err) == Cancelled {
			return "download cancelled"
		}
		return "internal server error"
	}
	switch e.Kind {
	case RemoteJobTimeout:
		return "processing timed out, please try again later"
	case RemoteJobError:
		return "processing failed: " + e.Message
	case PayloadTooLarge:
		return "file too large, the maximum supported size is 2GB"
	case UpstreamFailure:
		if e.Status != 0 {
			return fmt.Sprintf("could not fetch media (%d)", e.Status)
		}
		return "network error: " + e.Message
	default:
		return e.Message
	}
}

type RestError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    Kind   `json:"kind,omitempty"`
}

func ErrorResponse(err error) (int, RestError) {
	return StatusCode(err), RestError{
		Success: false,
		Error:   UserMessage(err),
		Kind:    KindOf(err),
	}
}
