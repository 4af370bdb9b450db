package user

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/luct/reports/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrTokenMissing   = core.NewUnauthorizedError("No token provided")
	ErrTokenMalformed = core.NewUnauthorizedError("Invalid token")
	ErrTokenInvalid   = core.NewForbiddenError("Failed to authenticate token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// TokenIssuer signs and verifies identity tokens with a fixed HMAC secret.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// SigningKey is the HMAC secret tokens are signed with.
func (ti *TokenIssuer) SigningKey() []byte { return ti.key }

// TTL is how long an issued token stays valid.
func (ti *TokenIssuer) TTL() time.Duration { return ti.ttl }

// Claims builds the claims of a fresh token for usr. The role is always canonical.
func (ti *TokenIssuer) Claims(usr User) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.issuer,
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ti.ttl).Unix(),
		},
		Name: usr.Name,
		Role: usr.Role.Canonical(),
	}
}

// Issue generates a signed token string for usr.
func (ti *TokenIssuer) Issue(usr User) (string, error) {
	return ti.Sign(ti.Claims(usr))
}

func (ti *TokenIssuer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return ss, nil
}

// Verify checks the signature, algorithm and expiry of a token and returns the Identity it carries.
func (ti *TokenIssuer) Verify(raw string) (Identity, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}
	return ti.Identify(claims)
}

// Identify returns the Identity carried by verified claims.
// Claims issued by another application or without a subject are rejected.
func (ti *TokenIssuer) Identify(claims *Claims) (Identity, error) {
	if claims.Issuer != ti.issuer || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Name: claims.Name, Role: claims.Role.Canonical()}, nil
}
