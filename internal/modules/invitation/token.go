package invitation

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	Role      string `json:"role"`
	StudioID  *int64 `json:"studio_id,omitempty"`
	InviterID int64  `json:"inviter_id"`
	jwtlib.RegisteredClaims
}

type signer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func (s signer) sign(c claims, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	c.RegisteredClaims = jwtlib.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Audience:  jwtlib.ClaimStrings{s.audience},
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.secret)
	return token, expiresAt, err
}

func (s signer) parse(token string, now time.Time) (*claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &claims{}, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithAudience(s.audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrInvitationExpired
		}
		return nil, ErrInvalidInvitation
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidInvitation
	}
	return c, nil
}
