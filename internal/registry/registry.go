// ABOUTME: In-memory tool registry with per-tenant isolation and dispatch.
// ABOUTME: Owns the tenant tool maps and the mirrored per-tenant MCP handlers.

package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/latchwork/latch-gateway/internal/gateway"
	"github.com/latchwork/latch-gateway/internal/mcp"
	"github.com/latchwork/latch-gateway/internal/model"
)

// ErrToolNotFound is returned when a tool ID is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ToolCallContext carries the caller's identity and correlation data into a
// dispatched call.
type ToolCallContext struct {
	TenantID  string
	UserID    string
	SessionID string
	RequestID string
	Metadata  map[string]any
}

// ToolStats is a read-only aggregate over one tenant's tools.
type ToolStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByType   map[string]int `json:"by_type"`
}

// Registry owns the in-memory tool index, keyed tenant -> tool ID -> tool,
// plus a mirrored tenant -> protocol handler map. The two maps are guarded
// by independent locks; neither lock is ever held across network I/O, so a
// slow upstream call never blocks registration.
type Registry struct {
	conv   *gateway.Converter
	info   mcp.ServerInfo
	logger *slog.Logger

	toolsMu sync.RWMutex
	tools   map[string]map[string]*model.Tool // tenant_id -> tool_id -> tool

	handlersMu sync.RWMutex
	handlers   map[string]*mcp.Handler // tenant_id -> handler
}

// NewRegistry creates an empty registry dispatching calls through conv.
func NewRegistry(conv *gateway.Converter, info mcp.ServerInfo, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conv:     conv,
		info:     info,
		logger:   logger.With("component", "registry"),
		tools:    make(map[string]map[string]*model.Tool),
		handlers: make(map[string]*mcp.Handler),
	}
}

// RegisterTool inserts or overwrites a tool in the registry and its tenant's
// handler mirror. Registration is idempotent; re-registering under a new
// name removes the stale name from the mirror.
func (r *Registry) RegisterTool(tool *model.Tool) error {
	if err := tool.Config.Validate(); err != nil {
		return err
	}

	clone := tool.Clone()

	r.toolsMu.Lock()
	tenant, ok := r.tools[clone.TenantID]
	if !ok {
		tenant = make(map[string]*model.Tool)
		r.tools[clone.TenantID] = tenant
	}
	previous := tenant[clone.ID]
	tenant[clone.ID] = clone
	r.toolsMu.Unlock()

	handler := r.ensureHandler(clone.TenantID)
	if previous != nil && previous.Name != clone.Name {
		handler.RemoveTool(previous.Name)
	}
	handler.AddTool(clone)

	r.logger.Info("tool registered",
		"tool_id", clone.ID,
		"tenant_id", clone.TenantID,
		"name", clone.Name,
	)
	return nil
}

// UnregisterTool removes a tool by ID, scanning tenants to find the owner.
// A tenant whose tool map becomes empty is dropped from both maps.
func (r *Registry) UnregisterTool(toolID string) error {
	r.toolsMu.Lock()
	var removed *model.Tool
	for tenantID, tenant := range r.tools {
		tool, ok := tenant[toolID]
		if !ok {
			continue
		}
		removed = tool
		delete(tenant, toolID)
		if len(tenant) == 0 {
			delete(r.tools, tenantID)
		}
		break
	}
	r.toolsMu.Unlock()

	if removed == nil {
		return ErrToolNotFound
	}

	r.handlersMu.Lock()
	if handler, ok := r.handlers[removed.TenantID]; ok {
		handler.RemoveTool(removed.Name)
		if handler.ToolCount() == 0 {
			delete(r.handlers, removed.TenantID)
		}
	}
	r.handlersMu.Unlock()

	r.logger.Info("tool unregistered",
		"tool_id", toolID,
		"tenant_id", removed.TenantID,
		"name", removed.Name,
	)
	return nil
}

// GetTool returns a clone of the registered tool, if any.
func (r *Registry) GetTool(toolID string) (*model.Tool, error) {
	tool := r.findTool(toolID)
	if tool == nil {
		return nil, ErrToolNotFound
	}
	return tool, nil
}

// HandlerFor returns the protocol handler for a tenant. Tenants with no
// registered tools get a transient empty handler so tools/list degrades to
// an empty set instead of an error.
func (r *Registry) HandlerFor(tenantID string) *mcp.Handler {
	r.handlersMu.RLock()
	handler, ok := r.handlers[tenantID]
	r.handlersMu.RUnlock()
	if ok {
		return handler
	}
	return mcp.NewHandler(tenantID, r.info, r.conv, r.logger)
}

// CallTool dispatches a call by tool ID. Ownership and active status are
// checked before any network I/O; every failure comes back as a result
// value, never an error.
func (r *Registry) CallTool(ctx context.Context, toolID string, args map[string]any, callCtx *ToolCallContext) *gateway.ToolCallResult {
	tool := r.findTool(toolID)
	if tool == nil {
		return errorResult(gateway.Errorf(gateway.CodeToolNotFound, "tool %s not found", toolID))
	}

	if callCtx == nil || callCtx.TenantID != tool.TenantID {
		r.logger.Warn("cross-tenant call rejected", "tool_id", toolID)
		return errorResult(gateway.Errorf(gateway.CodeAuthorizationFailed, "tool %s is not accessible", toolID))
	}

	if !tool.IsActive() {
		return errorResult(gateway.Errorf(gateway.CodeValidationError, "tool %s is inactive", tool.Name))
	}

	result := r.conv.ExecuteTool(ctx, tool, args)
	if callCtx.RequestID != "" {
		if result.Metadata == nil {
			result.Metadata = make(map[string]any)
		}
		result.Metadata["request_id"] = callCtx.RequestID
	}
	return result
}

// GetToolStats aggregates counts over one tenant's current tool map.
func (r *Registry) GetToolStats(tenantID string) ToolStats {
	stats := ToolStats{ByType: make(map[string]int)}

	r.toolsMu.RLock()
	defer r.toolsMu.RUnlock()

	for _, tool := range r.tools[tenantID] {
		stats.Total++
		if tool.IsActive() {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByType[string(tool.Config.Kind)]++
	}
	return stats
}

// findTool scans all tenants for the tool ID and returns a clone, or nil.
func (r *Registry) findTool(toolID string) *model.Tool {
	r.toolsMu.RLock()
	defer r.toolsMu.RUnlock()
	for _, tenant := range r.tools {
		if tool, ok := tenant[toolID]; ok {
			return tool.Clone()
		}
	}
	return nil
}

// ensureHandler returns the tenant's handler, creating it on first use.
func (r *Registry) ensureHandler(tenantID string) *mcp.Handler {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	handler, ok := r.handlers[tenantID]
	if !ok {
		handler = mcp.NewHandler(tenantID, r.info, r.conv, r.logger)
		r.handlers[tenantID] = handler
	}
	return handler
}

func errorResult(err *gateway.CallError) *gateway.ToolCallResult {
	return &gateway.ToolCallResult{Success: false, Error: err}
}
