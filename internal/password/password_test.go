package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashNeverStoresPlaintext(t *testing.T) {
	hasher := NewBcryptHasher(4) // low cost keeps the test fast

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	require.NotEqual(t, "pw1", hash)
	require.True(t, hasher.Verify("pw1", hash))
	require.False(t, hasher.Verify("wrong", hash))
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewBcryptHasher(4)

	first, err := hasher.Hash("pw1")
	require.NoError(t, err)
	second, err := hasher.Hash("pw1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestInvalidCostFallsBack(t *testing.T) {
	hasher := NewBcryptHasher(99)

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	require.True(t, hasher.Verify("pw1", hash))
}
