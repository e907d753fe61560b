// Package auth implements the token codec: minting and verifying the
// signed, self-contained access tokens that downstream services accept.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token claim set: registered claims plus the
// subject's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Identity is the verified outcome of a token check.
type Identity struct {
	SubjectID string
	Role      string
	ExpiresAt time.Time
}

// Codec mints and verifies HS256-signed access tokens. Verification is
// self-contained: signature plus absolute expiry, no store lookup.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// now is a test seam.
var now = time.Now

func NewCodec(secret []byte, issuer, audience string, leeway time.Duration) *Codec {
	return &Codec{secret: secret, issuer: issuer, audience: audience, leeway: leeway}
}

// Mint signs a token for subjectID with the given role and ttl and returns
// the token string together with its absolute expiry.
func (c *Codec) Mint(subjectID, role string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := now()
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify checks signature, structure, issuer/audience binding, and expiry
// (with the configured leeway) and returns the embedded identity.
//
// Outcomes are collapsed into exactly three kinds so callers can choose
// "reject" vs "attempt refresh":
//   - common.ErrMalformedToken: the string does not parse as a token
//   - common.ErrTokenExpired: valid signature, expiry in the past
//   - common.ErrBadSignature: any other integrity or binding failure
func (c *Codec) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(func() time.Time { return now() }),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrBadSignature
	}

	return &Identity{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrBadSignature
	}
}
