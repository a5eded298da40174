// ABOUTME: Store interfaces and data types for tool and API token persistence.
// ABOUTME: Defines the CRUD boundary the gateway registry hydrates from.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/latchwork/latch-gateway/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTool is returned when a tenant already has a tool with the
// same name.
var ErrDuplicateTool = errors.New("tool already exists")

// APIToken is a stored long-lived credential. SecretHash is a bcrypt hash;
// the plaintext secret is only ever returned once at creation.
type APIToken struct {
	ID         string
	TenantID   string
	UserID     string
	SecretHash string
	CreatedAt  time.Time
}

// ToolStore defines persistence for tool configurations. Every write
// validates the config first so configuration-time errors block the write
// synchronously.
type ToolStore interface {
	CreateTool(ctx context.Context, tool *model.Tool) error
	GetTool(ctx context.Context, id string) (*model.Tool, error)
	ListTools(ctx context.Context, tenantID string) ([]*model.Tool, error)
	ListAllTools(ctx context.Context) ([]*model.Tool, error)
	UpdateTool(ctx context.Context, tool *model.Tool) error
	UpdateToolStatus(ctx context.Context, id string, status model.ToolStatus) error
	DeleteTool(ctx context.Context, id string) error
}

// APITokenStore defines persistence for API tokens.
type APITokenStore interface {
	CreateAPIToken(ctx context.Context, token *APIToken) error
	GetAPIToken(ctx context.Context, id string) (*APIToken, error)
	DeleteAPIToken(ctx context.Context, id string) error
}

// Store is the full persistence interface implemented by SQLiteStore.
type Store interface {
	ToolStore
	APITokenStore

	Close() error
}
