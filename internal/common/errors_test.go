package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("export: %w", &TransportError{Err: cause})

	assert.ErrorIs(t, err, ErrorTransport)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	status := &TransportError{StatusCode: 502, Body: "bad gateway"}
	assert.ErrorIs(t, status, ErrorTransport)
	assert.Equal(t, "transport error: status 502: bad gateway", status.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", &TransportError{Err: errors.New("timeout")}, true},
		{"wrapped transport", fmt.Errorf("x: %w", &TransportError{StatusCode: 500}), true},
		{"unregistered", fmt.Errorf("x: %w", ErrorUnregisteredRemoteUser), false},
		{"validation", Validationf("missing %s", "body"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("field %q is required", "imageData")
	assert.ErrorIs(t, err, ErrorValidation)
	assert.Equal(t, `validation error: field "imageData" is required`, err.Error())
}
