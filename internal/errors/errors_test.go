package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := SessionError("read failed", nil)
	assert.Equal(t, "session: read failed", err.Error())

	cause := stderrors.New("connection reset by peer")
	err = SessionError("read failed", cause)
	assert.Equal(t, "session: read failed: connection reset by peer", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("address already in use")
	err := StartupError("failed to bind listening port", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestError_As(t *testing.T) {
	inner := StartupError("failed to bind listening port", stderrors.New("address already in use"))
	wrapped := fmt.Errorf("server start: %w", inner)

	var e *Error
	require.True(t, stderrors.As(wrapped, &e))
	assert.Equal(t, TypeStartup, e.Type)
}

func TestIsType(t *testing.T) {
	startup := StartupError("bind failed", nil)
	session := SessionError("read failed", nil)

	assert.True(t, IsStartup(startup))
	assert.False(t, IsStartup(session))
	assert.True(t, IsType(session, TypeSession))
	assert.False(t, IsType(stderrors.New("plain"), TypeSession))
	assert.False(t, IsStartup(nil))
}

func TestError_WithContext(t *testing.T) {
	err := AcceptError("accept failed", nil).
		WithContext("addr", ":8088").
		WithContext("attempt", 3)

	assert.Equal(t, ":8088", err.Context["addr"])
	assert.Equal(t, 3, err.Context["attempt"])
}

func TestError_Fields(t *testing.T) {
	err := RecipientError("write failed", nil).WithContext("remote_addr", "10.0.0.1:1234")
	fields := err.Fields()

	assert.Contains(t, fields, "error_type")
	assert.Contains(t, fields, "recipient")
	assert.Contains(t, fields, "remote_addr")
	assert.Contains(t, fields, "10.0.0.1:1234")
	assert.Equal(t, 0, len(fields)%2, "fields must be key/value pairs")
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err      *Error
		wantType ErrorType
	}{
		{StartupError("m", nil), TypeStartup},
		{AcceptError("m", nil), TypeAccept},
		{SessionError("m", nil), TypeSession},
		{RecipientError("m", nil), TypeRecipient},
		{InternalError("m", nil), TypeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantType, tt.err.Type)
		assert.NotNil(t, tt.err.Context)
	}
}
