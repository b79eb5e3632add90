package auth

import (
	"testing"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u-1", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := GetUserIDFromToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "u-1", userID)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u-1", []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, []byte("secret-b"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("u-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not-a-token", []byte("k"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MissingUserID(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("", secret, time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
