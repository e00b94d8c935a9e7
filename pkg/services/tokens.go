package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

const tokenTypeAccess = "access"

var ErrInvalidToken = errors.New("token inválido")

// IssueAccessToken signs a short-lived HS256 token for userID.
func IssueAccessToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    userID,
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
		"token_type": tokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAccessToken validates signature, expiry and token type and returns
// the user id.
func ParseAccessToken(secret, tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["token_type"].(string); typ != tokenTypeAccess {
		return "", ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func generateRefreshToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// hashToken is BLAKE2b-256 keyed with the server secret.
func hashToken(secret, token string) string {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		sum := blake2b.Sum256([]byte(secret + token))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
