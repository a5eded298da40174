// ABOUTME: Core Tool entity owned by a tenant and backed by a ToolConfig.
// ABOUTME: The gateway reads tools from the store and mirrors them into its registry.

package model

import "time"

// ToolStatus indicates whether a tool accepts calls.
type ToolStatus string

const (
	ToolStatusActive   ToolStatus = "active"
	ToolStatusInactive ToolStatus = "inactive"
)

// Tool is a tenant-owned, named capability backed by an HTTP endpoint.
// Tools are created and mutated by the admin CRUD layer; the gateway only
// reads them and mirrors them into its in-memory registry.
type Tool struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Config      ToolConfig `json:"config"`
	Status      ToolStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsActive returns true if the tool accepts calls.
func (t *Tool) IsActive() bool {
	return t.Status == ToolStatusActive
}

// Clone returns a deep copy of the tool. The registry hands out clones so
// callers never observe mutations made under the registry lock.
func (t *Tool) Clone() *Tool {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Config = t.Config.clone()
	return &clone
}
