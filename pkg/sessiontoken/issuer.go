// Package sessiontoken mints signed session tokens for authenticated
// accounts.
package sessiontoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authcore-id/authd/pkg/account"
)

// Claims is the session token payload: subject id plus name and role claims
// for downstream authorization.
type Claims struct {
	Email      string   `json:"email,omitempty"`
	GivenName  string   `json:"given_name,omitempty"`
	FamilyName string   `json:"family_name,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issuer builds HS256-signed session tokens. It is stateless; identical
// inputs and clock produce identical tokens.
type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer with the configured symmetric secret, issuer
// name, and token lifetime.
func NewIssuer(secret, issuer string, expiry time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a session token for the account, carrying one role entry per
// role held.
func (i *Issuer) Issue(acct account.Account) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		Email:      acct.Email,
		GivenName:  acct.FirstName,
		FamilyName: acct.LastName,
		Roles:      acct.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token string and returns its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("session token invalid")
	}
	return claims, nil
}
