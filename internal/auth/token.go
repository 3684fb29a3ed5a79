// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenTTL is the fixed validity window for session tokens.
const TokenTTL = 24 * time.Hour

// TokenIssuer issues signed, time-bounded session tokens embedding a
// principal id and role.
type TokenIssuer interface {
	// Issue creates a token for the principal valid for ttl.
	Issue(principalID string, role Role, ttl time.Duration) (string, error)
}

// JWTIssuer implements TokenIssuer using HS256-signed JWTs. The signing
// secret is injected at construction rather than read from ambient
// process state.
type JWTIssuer struct {
	secret []byte
}

// NewJWTIssuer creates a JWTIssuer with the given signing secret.
func NewJWTIssuer(secret []byte) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_EMPTY").Errorf("signing secret cannot be empty")
	}
	return &JWTIssuer{secret: secret}, nil
}

// Issue creates a signed token with the principal id in the "sub" claim
// and the role in the "role" claim.
func (i *JWTIssuer) Issue(principalID string, role Role, ttl time.Duration) (string, error) {
	if principalID == "" {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Errorf("principal id cannot be empty")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  principalID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").With("operation", "sign token").Wrap(err)
	}
	return signed, nil
}

// Verify validates a token's signature and expiry and returns the
// embedded principal id and role.
func (i *JWTIssuer) Verify(tokenString string) (principalID string, role Role, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", oops.Code("TOKEN_EXPIRED").Wrap(err)
		}
		return "", "", oops.Code("TOKEN_INVALID").Wrap(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", oops.Code("TOKEN_INVALID").Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", oops.Code("TOKEN_INVALID").Errorf("missing sub claim")
	}
	roleClaim, _ := claims["role"].(string)

	return sub, RoleFor(roleClaim), nil
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)
