// Package errors implements the error taxonomy of the intent-routing
// service: a single AppError type keyed by ErrorKind, carrying an HTTP
// status code, optional details, and an optional wrapped cause.
package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind names one of the kinds from the service's error taxonomy.
// Kinds, not Go types: every error the service returns to a caller is an
// *AppError with one of these kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound ErrorKind = "not_found"
	KindUpstream ErrorKind = "upstream"
	KindBreakerOpen ErrorKind = "breaker_open"
	KindCache ErrorKind = "cache"
	KindInternal ErrorKind = "internal"
	KindState ErrorKind = "state"
)

var statusByKind = map[ErrorKind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound: http.StatusNotFound,
	KindUpstream: http.StatusBadGateway,
	KindBreakerOpen: http.StatusServiceUnavailable,
	KindCache: http.StatusInternalServerError,
	KindInternal: http.StatusInternalServerError,
	KindState: http.StatusConflict,
}

// AppError is the one error type that crosses component boundaries in
// this service. Classify-failure paths elsewhere use typed result values;
// AppError exists for errors a caller must act on.
type AppError struct {
	Kind ErrorKind
	Message string
	Details string
	StatusCode int
	Cause error
	RetryAfter int // seconds; only meaningful for KindBreakerOpen
}

func New(kind ErrorKind, message string) *AppError {
	return &AppError{
		Kind: kind,
		Message: message,
		StatusCode: statusByKind[kind],
	}
}

func Newf(kind ErrorKind, format string, args...any) *AppError {
	return New(kind, fmt.Sprintf(format, args...))
}

func Wrap(cause error, kind ErrorKind, message string) *AppError {
	err := New(kind, message)
	err.Cause = cause
	return err
}

func Wrapf(cause error, kind ErrorKind, format string, args...any) *AppError {
	return Wrap(cause, kind, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

func (e *AppError) WithRetryAfter(seconds int) *AppError {
	e.RetryAfter = seconds
	return e
}

// Predefined constructors for the taxonomy's most common shapes.

func NewValidationError(message string) *AppError { return New(KindValidation, message) }

func NewNotFoundError(resource string) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource))
}

func NewUpstreamError(service string, cause error) *AppError {
	return Wrapf(cause, KindUpstream, "upstream call to %s failed", service)
}

func NewBreakerOpenError(service string, retryAfterSeconds int) *AppError {
	return Newf(KindBreakerOpen, "circuit open for %s", service).WithRetryAfter(retryAfterSeconds)
}

func NewStateError(message string) *AppError { return New(KindState, message) }

func NewInternalError(cause error) *AppError {
	return Wrap(cause, KindInternal, "internal error")
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ae, ok := err.(*AppError)
	return ok && ae.Kind == kind
}

// GetKind returns err's kind, defaulting to KindInternal for non-AppErrors.
func GetKind(err error) ErrorKind {
	if ae, ok := err.(*AppError); ok {
		return ae.Kind
	}
	return KindInternal
}

// GetStatusCode returns the HTTP status to surface for err.
func GetStatusCode(err error) int {
	if ae, ok := err.(*AppError); ok {
		return ae.StatusCode
	}
	return http.StatusInternalServerError
}

// safeMessages holds the client-facing text for kinds whose real message
// may leak internal details — only errors the client must act on get a
// passthrough message.
var safeMessages = map[ErrorKind]string{
	KindNotFound: "the requested resource was not found",
	KindUpstream: "a downstream service is unavailable",
	KindBreakerOpen: "the target service is temporarily unavailable",
	KindCache: "an internal error occurred",
	KindInternal: "an internal error occurred",
	KindState: "the requested transition is not valid for this resource's current state",
}

// SafeErrorMessage returns the text that is safe to send to an HTTP
// client. Validation messages are passed through verbatim since they
// describe what the caller did wrong, not internal state.
func SafeErrorMessage(err error) string {
	ae, ok := err.(*AppError)
	if !ok {
		return "an unexpected error occurred"
	}
	if ae.Kind == KindValidation {
		return ae.Message
	}
	if msg, ok := safeMessages[ae.Kind]; ok {
		return msg
	}
	return "an internal error occurred"
}

// LogFields renders err into a structured field map suitable for a
// logger's With(...)/Sugar().Errorw(...) call.
func LogFields(err error) map[string]any {
	fields := map[string]any{"error": err.Error()}
	ae, ok := err.(*AppError)
	if !ok {
		return fields
	}
	fields["error_kind"] = string(ae.Kind)
	fields["status_code"] = ae.StatusCode
	if ae.Details != "" {
		fields["error_details"] = ae.Details
	}
	if ae.Cause != nil {
		fields["underlying_error"] = ae.Cause.Error()
	}
	return fields
}

// Chain folds a slice of errors (skipping nils) into a single error whose
// message concatenates each with " -> ". Used where several independent
// steps (e.g. shutdown of several collaborators) may each fail and all
// failures are worth reporting together.
func Chain(errs...error) error {
	var nonNil []string
	var first error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if first == nil {
			first = e
		}
		nonNil = append(nonNil, e.Error())
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return first
	default:
		return fmt.Errorf("%s", strings.Join(nonNil, " -> "))
	}
}
