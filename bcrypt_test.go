package users_test

import (
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("sup3rs3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "sup3rs3cret", hash)

	require.NoError(t, users.ComparePasswordAndHash("sup3rs3cret", hash))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := users.HashPassword("")
	assert.ErrorIs(t, err, users.ErrNoEmptyString)
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := users.HashPassword("sup3rs3cret")
	require.NoError(t, err)

	err = users.ComparePasswordAndHash("wrong-password", hash)
	assert.ErrorIs(t, err, users.ErrMismatchedHashAndPassword)
}
