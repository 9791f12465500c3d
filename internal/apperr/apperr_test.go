package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "signedUrl", "could not sign")

	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeUnavailable))
	require.Contains(t, err.Error(), "connection refused")
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodeInvalid, "username", "Username already taken")
	wrapped := fmt.Errorf("register: %w", inner)

	ae, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, "username", ae.Field)
	require.True(t, IsCode(wrapped, CodeInvalid))
	require.False(t, IsCode(wrapped, CodeConflict))

	_, ok = As(errors.New("plain"))
	require.False(t, ok)
}
