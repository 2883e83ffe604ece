package security

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hashed)

	require.NoError(t, hasher.Compare(hashed, "correct horse battery staple"))
	require.Error(t, hasher.Compare(hashed, "wrong password"))
}

func TestBcryptHasherDefaultsCost(t *testing.T) {
	hasher := NewBcryptHasher(0)
	require.Equal(t, bcrypt.DefaultCost, hasher.cost)
}

func TestBcryptHasherUniqueSalts(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
