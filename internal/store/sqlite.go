// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides tool/token persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/latchwork/latch-gateway/internal/model"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tools (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_tools_tenant_name
			ON tools(tenant_id, name);

		CREATE INDEX IF NOT EXISTS idx_tools_tenant
			ON tools(tenant_id);

		CREATE TABLE IF NOT EXISTS api_tokens (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			secret_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_api_tokens_tenant
			ON api_tokens(tenant_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTool validates and persists a new tool. Configuration errors block
// the write synchronously.
func (s *SQLiteStore) CreateTool(ctx context.Context, tool *model.Tool) error {
	if err := tool.Config.Validate(); err != nil {
		return err
	}
	if tool.ID == "" {
		tool.ID = uuid.New().String()
	}
	if tool.Status == "" {
		tool.Status = model.ToolStatusActive
	}
	now := time.Now().UTC()
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = now
	}
	if tool.UpdatedAt.IsZero() {
		tool.UpdatedAt = now
	}

	config, err := json.Marshal(tool.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	query := `
		INSERT INTO tools (id, tenant_id, name, description, config, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		tool.ID,
		tool.TenantID,
		tool.Name,
		tool.Description,
		string(config),
		string(tool.Status),
		tool.CreatedAt.Format(time.RFC3339),
		tool.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: tenant %s already has tool %q", ErrDuplicateTool, tool.TenantID, tool.Name)
		}
		return fmt.Errorf("inserting tool: %w", err)
	}

	s.logger.Info("tool created", "tool_id", tool.ID, "tenant_id", tool.TenantID, "name", tool.Name)
	return nil
}

// GetTool retrieves a tool by ID.
func (s *SQLiteStore) GetTool(ctx context.Context, id string) (*model.Tool, error) {
	query := `
		SELECT id, tenant_id, name, description, config, status, created_at, updated_at
		FROM tools WHERE id = ?
	`
	return s.scanTool(s.db.QueryRowContext(ctx, query, id))
}

// ListTools returns all tools owned by a tenant, ordered by name.
func (s *SQLiteStore) ListTools(ctx context.Context, tenantID string) ([]*model.Tool, error) {
	query := `
		SELECT id, tenant_id, name, description, config, status, created_at, updated_at
		FROM tools WHERE tenant_id = ? ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying tools: %w", err)
	}
	defer rows.Close()
	return s.collectTools(rows)
}

// ListAllTools returns every stored tool, used to hydrate the registry at
// startup.
func (s *SQLiteStore) ListAllTools(ctx context.Context) ([]*model.Tool, error) {
	query := `
		SELECT id, tenant_id, name, description, config, status, created_at, updated_at
		FROM tools ORDER BY tenant_id, name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tools: %w", err)
	}
	defer rows.Close()
	return s.collectTools(rows)
}

// UpdateTool validates and overwrites an existing tool.
func (s *SQLiteStore) UpdateTool(ctx context.Context, tool *model.Tool) error {
	if err := tool.Config.Validate(); err != nil {
		return err
	}
	tool.UpdatedAt = time.Now().UTC()

	config, err := json.Marshal(tool.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	query := `
		UPDATE tools SET name = ?, description = ?, config = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		tool.Name,
		tool.Description,
		string(config),
		string(tool.Status),
		tool.UpdatedAt.Format(time.RFC3339),
		tool.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tool: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateToolStatus flips a tool between active and inactive.
func (s *SQLiteStore) UpdateToolStatus(ctx context.Context, id string, status model.ToolStatus) error {
	query := `UPDATE tools SET status = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating tool status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTool removes a tool by ID.
func (s *SQLiteStore) DeleteTool(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tools WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tool: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAPIToken persists a new API token record.
func (s *SQLiteStore) CreateAPIToken(ctx context.Context, token *APIToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO api_tokens (id, tenant_id, user_id, secret_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.TenantID,
		token.UserID,
		token.SecretHash,
		token.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting api token: %w", err)
	}
	return nil
}

// GetAPIToken retrieves an API token record by ID.
func (s *SQLiteStore) GetAPIToken(ctx context.Context, id string) (*APIToken, error) {
	query := `
		SELECT id, tenant_id, user_id, secret_hash, created_at
		FROM api_tokens WHERE id = ?
	`
	var token APIToken
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&token.ID, &token.TenantID, &token.UserID, &token.SecretHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying api token: %w", err)
	}
	token.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &token, nil
}

// DeleteAPIToken removes an API token by ID.
func (s *SQLiteStore) DeleteAPIToken(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting api token: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for tool scanning.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanTool(row scanner) (*model.Tool, error) {
	var tool model.Tool
	var config, status, createdAt, updatedAt string

	err := row.Scan(
		&tool.ID, &tool.TenantID, &tool.Name, &tool.Description,
		&config, &status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning tool: %w", err)
	}

	if err := json.Unmarshal([]byte(config), &tool.Config); err != nil {
		return nil, fmt.Errorf("decoding config for tool %s: %w", tool.ID, err)
	}
	tool.Status = model.ToolStatus(status)
	tool.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	tool.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &tool, nil
}

func (s *SQLiteStore) collectTools(rows *sql.Rows) ([]*model.Tool, error) {
	var tools []*model.Tool
	for rows.Next() {
		tool, err := s.scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tools: %w", err)
	}
	return tools, nil
}
