// Copyright 2026 The SereneBook Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/permission"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are the claims SereneBook access tokens carry. The token is
// the transport of a principal: subject, home tenant, and the flattened
// effective permission set resolved at issue time.
type AccessClaims struct {
	TenantID    *string  `json:"tenant_id,omitempty"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenVerifier validates access tokens and reconstructs principals.
type TokenVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for HMAC-signed access tokens.
func NewTokenVerifier(secret, issuer string, leeway time.Duration) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, leeway: leeway}
}

// Verify parses and validates a token, returning the principal it encodes.
func (v *TokenVerifier) Verify(tokenString string) (authz.Principal, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return authz.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return authz.Principal{
		ID:          claims.Subject,
		TenantID:    claims.TenantID,
		Permissions: permission.NewSet(claims.Permissions),
	}, nil
}

// Issue signs an access token for a principal. Used by the bootstrap CLI and
// by tests; the production token issuer lives in the authentication service.
func (v *TokenVerifier) Issue(p authz.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		TenantID:    p.TenantID,
		Permissions: p.Permissions.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
