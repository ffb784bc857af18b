package hashing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shoutbase/shoutbase-auth/internal/hashing"
)

func TestHashAndCompare(t *testing.T) {
	hasher := hashing.New(1)

	encoded, err := hasher.Hash("correct horse 1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	require.NotContains(t, encoded, "correct horse 1")

	ok, err := hasher.Compare("correct horse 1", encoded)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = hasher.Compare("wrong horse 1", encoded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	hasher := hashing.New(1)

	first, err := hasher.Hash("same secret 9")
	require.NoError(t, err)
	second, err := hasher.Hash("same secret 9")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := hasher.Compare("same secret 9", first)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = hasher.Compare("same secret 9", second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompareRejectsMalformedEncoding(t *testing.T) {
	hasher := hashing.New(1)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=2$salt",
		"$bcrypt$v=19$m=65536,t=1,p=2$c2FsdA$aGFzaA",
	} {
		ok, err := hasher.Compare("anything1", encoded)
		require.Error(t, err)
		require.False(t, ok)
	}
}

func TestCompareHonorsEncodedParameters(t *testing.T) {
	// A hash minted at a higher time cost must still verify with a hasher
	// configured differently, since the parameters travel with the hash.
	minted, err := hashing.New(3).Hash("roaming secret 7")
	require.NoError(t, err)

	ok, err := hashing.New(1).Compare("roaming secret 7", minted)
	require.NoError(t, err)
	require.True(t, ok)
}
