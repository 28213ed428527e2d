package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"not found", NotFoundError("missing"), http.StatusNotFound},
		{"too large", TooLargeError("upload too big"), http.StatusRequestEntityTooLarge},
		{"rate limited", RateLimitedError("slow down"), http.StatusTooManyRequests},
		{"unavailable", UnavailableError("saturated"), http.StatusServiceUnavailable},
		{"internal", InternalError("boom", nil), http.StatusInternalServerError},
		{"external", &Error{Type: TypeExternal, Message: "gs failed"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestError_MessageFormat(t *testing.T) {
	err := ValidationError("bad quality")
	assert.Equal(t, "validation: bad quality", err.Error())

	cause := errors.New("exit status 1")
	wrapped := InternalError("merge failed", cause)
	assert.Equal(t, "internal: merge failed: exit status 1", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := InternalError("wrapper", cause)

	assert.ErrorIs(t, err, cause)
}

func TestWithField_Chainable(t *testing.T) {
	err := ValidationError("bad input").
		WithField("filename", "not-a.txt").
		WithField("index", 2)

	assert.Equal(t, "not-a.txt", err.Context["filename"])
	assert.Equal(t, 2, err.Context["index"])
}

func TestAsStructuredError_PassThrough(t *testing.T) {
	original := NotFoundError("nope")
	result := AsStructuredError(original)
	assert.Same(t, original, result)
}

func TestAsStructuredError_WrapsPlainError(t *testing.T) {
	plain := errors.New("something broke")
	result := AsStructuredError(plain)

	require.NotNil(t, result)
	assert.Equal(t, TypeInternal, result.Type)
	assert.ErrorIs(t, result, plain)
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}

func TestToResponse(t *testing.T) {
	err := RateLimitedError("merge rate limit exceeded").WithField("ip", "10.0.0.1")
	resp := err.ToResponse()

	assert.Equal(t, "merge rate limit exceeded", resp.Error)
	assert.Equal(t, TypeRateLimited, resp.Type)
	assert.Equal(t, "10.0.0.1", resp.Context["ip"])
}
