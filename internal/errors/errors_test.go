package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestProtocolError(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := NewProtocolError("request_token", 0, nil, cause)

	assert.True(t, IsProtocolError(fmt.Errorf("wrapped: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "request_token")
	assert.NotContains(t, err.Error(), "http result code")

	withStatus := NewProtocolError("access_token", 401, []byte(strings.Repeat("x", 2000)), nil)
	assert.Contains(t, withStatus.Error(), "http result code: 401")
	assert.Len(t, withStatus.Body, 512)
}

func TestIsSessionError(t *testing.T) {
	assert.True(t, IsSessionError(ErrInvalidSignature))
	assert.True(t, IsSessionError(fmt.Errorf("decode: %w", ErrMalformedCookie)))
	assert.False(t, IsSessionError(ErrUnknownToken))
	assert.False(t, IsSessionError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "postgres other", err: &pq.Error{Code: "23514"}, want: false},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: pending_request_tokens.token (2067)"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
