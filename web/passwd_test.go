package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAndVerifyPassword(t *testing.T) {
	hashed, err := encodePassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.Contains(hashed, ":"))

	assert.NoError(t, verifyPassword(hashed, "hunter2"))
	assert.ErrorIs(t, verifyPassword(hashed, "hunter3"), ErrInvalidUsernameOrPassword)
}

func TestEncodePasswordSalted(t *testing.T) {
	a, err := encodePassword("same")
	require.NoError(t, err)
	b, err := encodePassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "same password must hash differently per salt")
}

func TestVerifyPasswordBadFormat(t *testing.T) {
	assert.ErrorIs(t, verifyPassword("notahash", "pw"), ErrInvalidUsernameOrPassword)
	assert.ErrorIs(t, verifyPassword("", "pw"), ErrInvalidUsernameOrPassword)
}
