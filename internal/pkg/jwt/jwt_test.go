package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)
	studioID := int64(7)

	token, err := svc.GenerateToken(42, "ADMIN", &studioID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	require.NotNil(t, claims.StudioID)
	assert.Equal(t, int64(7), *claims.StudioID)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken(1, "STUDENT", nil)
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := New("secret", -time.Minute)
	token, err := svc.GenerateToken(1, "STUDENT", nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   "ADMIN",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "elsewhere",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = New("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
