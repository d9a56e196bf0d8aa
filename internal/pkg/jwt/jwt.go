// Package jwt issues and verifies the HS256 access tokens that carry a
// caller's user id, role and studio scope.
package jwt

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every token and required on validation.
const Issuer = "studiohub"

var ErrInvalidToken = errors.New("invalid token")

// Service signs studio-scoped access tokens with one shared secret. Tokens
// are not stored server side; a role or studio change takes effect on the
// next token issued.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// Claims carries the caller's identity metadata. StudioID is nil for users
// that have not joined or created a studio yet. Subject repeats UserID.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	StudioID *int64 `json:"studio_id,omitempty"`
	jwtlib.RegisteredClaims
}

// New returns a Service whose tokens expire ttl after issue.
func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

// GenerateToken signs a token for userID acting as role inside studioID.
func (s *Service) GenerateToken(userID int64, role string, studioID *int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Role:     role,
		StudioID: studioID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies signature, algorithm, issuer and expiry. Every
// failure is reported as ErrInvalidToken.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
