package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	err := New(KindValidation, "bad input")
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "validation: bad input", err.Error())

	err.WithDetails("field 'text' is required")
	assert.Equal(t, "validation: bad input (field 'text' is required)", err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(cause, KindUpstream, "LLM classifier call failed")
	assert.Equal(t, KindUpstream, err.Kind)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestStatusCodeMapping(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:  http.StatusBadRequest,
		KindNotFound:    http.StatusNotFound,
		KindUpstream:    http.StatusBadGateway,
		KindBreakerOpen: http.StatusServiceUnavailable,
		KindCache:       http.StatusInternalServerError,
		KindInternal:    http.StatusInternalServerError,
		KindState:       http.StatusConflict,
	}
	for kind, status := range cases {
		assert.Equal(t, status, New(kind, "x").StatusCode, "kind=%s", kind)
	}
}

func TestPredefinedConstructors(t *testing.T) {
	assert.Equal(t, KindValidation, NewValidationError("bad").Kind)
	assert.Equal(t, "manifest not found", NewNotFoundError("manifest").Message)

	breaker := NewBreakerOpenError("payment-processing-service", 17)
	assert.Equal(t, KindBreakerOpen, breaker.Kind)
	assert.Equal(t, 17, breaker.RetryAfter)

	state := NewStateError("job is not AWAITING_APPROVAL")
	assert.Equal(t, http.StatusConflict, state.StatusCode)
}

func TestIsKindAndGetKind(t *testing.T) {
	v := NewValidationError("x")
	assert.True(t, IsKind(v, KindValidation))
	assert.False(t, IsKind(v, KindUpstream))

	regular := stderrors.New("boom")
	assert.False(t, IsKind(regular, KindValidation))
	assert.Equal(t, KindInternal, GetKind(regular))
}

func TestSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "specific problem", SafeErrorMessage(NewValidationError("specific problem")))
	assert.Equal(t, "the requested resource was not found", SafeErrorMessage(NewNotFoundError("job")))
	assert.Equal(t, "an unexpected error occurred", SafeErrorMessage(stderrors.New("panic: nil pointer")))
}

func TestLogFields(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrapf(cause, KindCache, "redis GET failed").WithDetails("key=abc123")

	fields := LogFields(err)
	require.Contains(t, fields, "error")
	assert.Equal(t, "cache", fields["error_kind"])
	assert.Equal(t, http.StatusInternalServerError, fields["status_code"])
	assert.Equal(t, "key=abc123", fields["error_details"])
	assert.Equal(t, "connection reset", fields["underlying_error"])
}

func TestLogFieldsPlainError(t *testing.T) {
	fields := LogFields(stderrors.New("boom"))
	assert.Contains(t, fields, "error")
	assert.NotContains(t, fields, "error_kind")
}

func TestChain(t *testing.T) {
	assert.Nil(t, Chain())
	assert.Nil(t, Chain(nil, nil))

	single := stderrors.New("only one")
	assert.Equal(t, single, Chain(single, nil))

	e1, e2 := stderrors.New("first"), stderrors.New("second")
	chained := Chain(e1, nil, e2)
	require.Error(t, chained)
	assert.Contains(t, chained.Error(), "first")
	assert.Contains(t, chained.Error(), "second")
	assert.Contains(t, chained.Error(), " -> ")
}
