package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	hasher := BcryptHasher{}

	t.Run("hash and compare", func(t *testing.T) {
		hash, err := hasher.Hash("longenough1")
		require.NoError(t, err)
		require.NotEqual(t, "longenough1", hash)

		assert.NoError(t, hasher.Compare(hash, "longenough1"))
		assert.Error(t, hasher.Compare(hash, "wrongpassword"))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := hasher.Hash("longenough1")
		require.NoError(t, err)
		second, err := hasher.Hash("longenough1")
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "bcrypt salts every hash")
	})

	t.Run("long passwords are fine", func(t *testing.T) {
		// Plain bcrypt truncates at 72 bytes, the sha256 prehash must not
		long := strings.Repeat("a", 100)
		hash, err := hasher.Hash(long)
		require.NoError(t, err)

		assert.NoError(t, hasher.Compare(hash, long))
		assert.Error(t, hasher.Compare(hash, long+"b"))
	})
}
