package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, userA, time.Hour, time.Now())
	require.NoError(t, err)

	uid, err := ParseAccessToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, userA, uid)

	_, err = ParseAccessToken("outro-segredo", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := IssueAccessToken(testSecret, userA, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenWrongType(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id":    userA,
		"exp":        time.Now().Add(time.Hour).Unix(),
		"token_type": "refresh",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashTokenIsKeyed(t *testing.T) {
	a := hashToken("k1", "token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, hashToken("k1", "token"))
	assert.NotEqual(t, a, hashToken("k2", "token"))
	assert.NotEqual(t, a, hashToken("k1", "other"))

	long := string(make([]byte, 100))
	assert.Len(t, hashToken(long, "token"), 64)
}

func TestRefreshTokensAreRandom(t *testing.T) {
	a, b := generateRefreshToken(), generateRefreshToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
