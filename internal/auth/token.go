// ABOUTME: JWT token verification for authenticating MCP requests.
// ABOUTME: Uses HS256 signing with configurable secret; tenant comes from the tid claim.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Verifier validates a bearer token and resolves the identity behind it.
type Verifier interface {
	Verify(ctx context.Context, token string) (*AuthContext, error)
}

// JWTVerifier implements Verifier using HS256 signed JWTs. The tenant ID is
// read from the "tid" claim and the user ID from "sub".
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWT verifier with the given secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify validates the token and extracts the tenant and user identity.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*AuthContext, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tenantID, ok := claims["tid"].(string)
	if !ok || tenantID == "" {
		return nil, fmt.Errorf("%w: tid", ErrMissingClaim)
	}
	userID, _ := claims["sub"].(string)

	return &AuthContext{TenantID: tenantID, UserID: userID}, nil
}

// Generate creates a new JWT for the given tenant and user with expiration.
func (v *JWTVerifier) Generate(tenantID, userID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"tid": tenantID,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// MultiVerifier tries a sequence of verifiers and returns the first
// successful identity. Used to accept both JWTs and stored API tokens on
// the same endpoint.
type MultiVerifier []Verifier

// Verify tries each verifier in order.
func (m MultiVerifier) Verify(ctx context.Context, token string) (*AuthContext, error) {
	for _, v := range m {
		if authCtx, err := v.Verify(ctx, token); err == nil {
			return authCtx, nil
		}
	}
	return nil, ErrInvalidToken
}
