package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT("3f1c9a7e-0001-4b1a-9d00-aaaaaaaaaaaa", "corretor@example.com", testSecret, 24)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateJWT(t *testing.T) {
	userID := "3f1c9a7e-0001-4b1a-9d00-aaaaaaaaaaaa"
	email := "corretor@example.com"

	token, err := GenerateJWT(userID, email, testSecret, 24)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, email, claims.Email)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-1", "corretor@example.com", testSecret, 24)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "a-completely-different-secret-value-here")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	claims := &Claims{
		Email: "corretor@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWT_MissingSubject(t *testing.T) {
	claims := &Claims{
		Email: "corretor@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWTWithBlacklist_Revoked(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client, time.Hour)
	ctx := context.Background()

	token, err := GenerateJWT("user-1", "corretor@example.com", testSecret, 24)
	require.NoError(t, err)

	// Valid before revocation
	claims, err := ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())

	require.NoError(t, blacklist.Add(ctx, token))

	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	assert.ErrorContains(t, err, "revoked")
}
