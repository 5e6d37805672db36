package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	require.NotEqual(t, "Password1!", digest)

	require.True(t, hasher.Verify("Password1!", digest))
	require.False(t, hasher.Verify("Password1?", digest))
	require.False(t, hasher.Verify("Password1!", "not-a-digest"))
}

func TestPasswordHasherSaltsDigests(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	second, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestPasswordHasherClampsCost(t *testing.T) {
	hasher := NewPasswordHasher(999)

	digest, err := hasher.Hash("Password1!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
