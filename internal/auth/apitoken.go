// ABOUTME: Long-lived API tokens backed by the store with bcrypt-hashed secrets.
// ABOUTME: Token format is lgt_<id>.<secret>; only the hash is ever persisted.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/latchwork/latch-gateway/internal/store"
)

// tokenPrefix marks gateway API tokens so they are recognizable in configs
// and secret scanners.
const tokenPrefix = "lgt_"

// APITokenVerifier implements Verifier against bcrypt-hashed tokens in the
// store.
type APITokenVerifier struct {
	tokens store.APITokenStore
}

// NewAPITokenVerifier creates a verifier over the given token store.
func NewAPITokenVerifier(tokens store.APITokenStore) *APITokenVerifier {
	return &APITokenVerifier{tokens: tokens}
}

// Verify splits the token into ID and secret, loads the stored record, and
// compares the secret against the bcrypt hash.
func (v *APITokenVerifier) Verify(ctx context.Context, token string) (*AuthContext, error) {
	id, secret, err := splitToken(token)
	if err != nil {
		return nil, err
	}

	record, err := v.tokens.GetAPIToken(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if bcrypt.CompareHashAndPassword([]byte(record.SecretHash), []byte(secret)) != nil {
		return nil, ErrInvalidToken
	}

	return &AuthContext{TenantID: record.TenantID, UserID: record.UserID}, nil
}

// GenerateAPIToken mints a new API token for the tenant/user, persists the
// bcrypt hash, and returns the plaintext token. The plaintext cannot be
// recovered later.
func GenerateAPIToken(ctx context.Context, tokens store.APITokenStore, tenantID, userID string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing token secret: %w", err)
	}

	record := &store.APIToken{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		UserID:     userID,
		SecretHash: string(hash),
	}
	if err := tokens.CreateAPIToken(ctx, record); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return tokenPrefix + record.ID + "." + secret, nil
}

func splitToken(token string) (id, secret string, err error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return "", "", ErrInvalidToken
	}
	rest := strings.TrimPrefix(token, tokenPrefix)
	id, secret, found := strings.Cut(rest, ".")
	if !found || id == "" || secret == "" {
		return "", "", ErrInvalidToken
	}
	return id, secret, nil
}
