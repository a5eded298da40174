// ABOUTME: Unit tests for API token generation and verification
// ABOUTME: Uses an in-memory token store; covers format errors and wrong secrets

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/latchwork/latch-gateway/internal/store"
)

// memoryTokenStore is an in-memory APITokenStore for tests.
type memoryTokenStore struct {
	tokens map[string]*store.APIToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]*store.APIToken)}
}

func (m *memoryTokenStore) CreateAPIToken(_ context.Context, token *store.APIToken) error {
	m.tokens[token.ID] = token
	return nil
}

func (m *memoryTokenStore) GetAPIToken(_ context.Context, id string) (*store.APIToken, error) {
	token, ok := m.tokens[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return token, nil
}

func (m *memoryTokenStore) DeleteAPIToken(_ context.Context, id string) error {
	if _, ok := m.tokens[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func TestAPIToken_GenerateAndVerify(t *testing.T) {
	ctx := context.Background()
	tokens := newMemoryTokenStore()

	plaintext, err := GenerateAPIToken(ctx, tokens, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}
	if !strings.HasPrefix(plaintext, "lgt_") {
		t.Errorf("token %q missing lgt_ prefix", plaintext)
	}

	// The store must only hold the hash, never the secret.
	for _, record := range tokens.tokens {
		if strings.Contains(plaintext, record.SecretHash) {
			t.Error("plaintext secret stored verbatim")
		}
	}

	verifier := NewAPITokenVerifier(tokens)
	authCtx, err := verifier.Verify(ctx, plaintext)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if authCtx.TenantID != "tenant-a" || authCtx.UserID != "user-1" {
		t.Errorf("auth context = %+v", authCtx)
	}
}

func TestAPIToken_VerifyFailures(t *testing.T) {
	ctx := context.Background()
	tokens := newMemoryTokenStore()
	verifier := NewAPITokenVerifier(tokens)

	plaintext, err := GenerateAPIToken(ctx, tokens, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"missing prefix", strings.TrimPrefix(plaintext, "lgt_")},
		{"no separator", "lgt_justonepart"},
		{"unknown id", "lgt_no-such-id.secret"},
		{"wrong secret", plaintext[:strings.LastIndex(plaintext, ".")] + ".wrong-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.Verify(ctx, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestAPIToken_RevokedTokenRejected(t *testing.T) {
	ctx := context.Background()
	tokens := newMemoryTokenStore()
	verifier := NewAPITokenVerifier(tokens)

	plaintext, err := GenerateAPIToken(ctx, tokens, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}

	for id := range tokens.tokens {
		if err := tokens.DeleteAPIToken(ctx, id); err != nil {
			t.Fatalf("DeleteAPIToken() error = %v", err)
		}
	}

	if _, err := verifier.Verify(ctx, plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() after revocation = %v, want ErrInvalidToken", err)
	}
}
