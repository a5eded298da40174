// ABOUTME: Per-tenant MCP protocol handler: initialize, tools/list, tools/call dispatch.
// ABOUTME: Stateless per request; tool state is a mirror maintained by the registry.

package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/latchwork/latch-gateway/internal/gateway"
	"github.com/latchwork/latch-gateway/internal/model"
)

// protocolVersion is the MCP revision advertised in initialize responses.
const protocolVersion = "2025-03-26"

// ServerInfo identifies the gateway in initialize responses.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Handler serves the MCP protocol for one tenant. It holds a name-keyed
// mirror of the tenant's tools maintained by the registry; request handling
// itself is stateless.
type Handler struct {
	tenantID string
	info     ServerInfo
	conv     *gateway.Converter
	logger   *slog.Logger

	mu    sync.RWMutex
	tools map[string]*model.Tool // by tool name
}

// NewHandler creates a protocol handler for the given tenant.
func NewHandler(tenantID string, info ServerInfo, conv *gateway.Converter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tenantID: tenantID,
		info:     info,
		conv:     conv,
		logger:   logger.With("component", "mcp", "tenant_id", tenantID),
		tools:    make(map[string]*model.Tool),
	}
}

// TenantID returns the tenant this handler serves.
func (h *Handler) TenantID() string {
	return h.tenantID
}

// AddTool inserts or overwrites a tool in the handler's mirror.
func (h *Handler) AddTool(tool *model.Tool) {
	h.mu.Lock()
	h.tools[tool.Name] = tool
	h.mu.Unlock()
}

// RemoveTool removes a tool from the mirror by name.
func (h *Handler) RemoveTool(name string) {
	h.mu.Lock()
	delete(h.tools, name)
	h.mu.Unlock()
}

// ToolCount returns the number of mirrored tools.
func (h *Handler) ToolCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tools)
}

// Handle processes one raw JSON-RPC message and returns the encoded
// response. Transport adapters (HTTP, stdio) call this after their own
// framing; notifications must be filtered out by the transport first.
func (h *Handler) Handle(ctx context.Context, raw []byte) []byte {
	var req JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustEncode(errorResponse(nil, JSONRPCParseError, "invalid JSON"))
	}
	return mustEncode(h.HandleRequest(ctx, req))
}

// HandleRequest validates the envelope and dispatches to the method handler.
func (h *Handler) HandleRequest(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version")
	}
	if req.Method == "" {
		return errorResponse(req.ID, JSONRPCInvalidRequest, "method is required")
	}

	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "tools/list":
		return h.handleToolsList(req)
	case "tools/call":
		return h.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, JSONRPCMethodNotFound, "method not found")
	}
}

func (h *Handler) handleInitialize(req JSONRPCRequest) JSONRPCResponse {
	result := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": h.info,
	}
	return resultResponse(req.ID, result)
}

// handleToolsList enumerates active tools as protocol descriptors, sorted by
// name for stable output. Inactive tools are invisible to clients.
func (h *Handler) handleToolsList(req JSONRPCRequest) JSONRPCResponse {
	h.mu.RLock()
	tools := make([]*model.Tool, 0, len(h.tools))
	for _, tool := range h.tools {
		if tool.IsActive() {
			tools = append(tools, tool)
		}
	}
	h.mu.RUnlock()

	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	result := ListToolsResult{Tools: make([]ToolInfo, 0, len(tools))}
	for _, tool := range tools {
		info := ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
		}
		switch tool.Config.Kind {
		case model.ToolKindHTTP:
			info.InputSchema = ParametersToJSONSchema(tool.Config.HTTP.Parameters)
		default:
			info.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result.Tools = append(result.Tools, info)
	}

	h.logger.Debug("tools/list", "count", len(result.Tools))
	return resultResponse(req.ID, result)
}

func (h *Handler) handleToolsCall(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	if len(req.Params) == 0 {
		return errorResponse(req.ID, JSONRPCInvalidParams, "params are required")
	}

	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, JSONRPCInvalidParams, "invalid params")
	}
	if params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "tool name is required")
	}

	h.mu.RLock()
	tool := h.tools[params.Name]
	if tool != nil {
		tool = tool.Clone()
	}
	h.mu.RUnlock()

	if tool == nil {
		return errorResponse(req.ID, JSONRPCMethodNotFound, "tool not found")
	}

	// An inactive tool is an application-level failure, not a protocol error.
	if !tool.IsActive() {
		return resultResponse(req.ID, CallToolResult{
			Content: []Content{{Type: "text", Text: "tool " + tool.Name + " is inactive"}},
			IsError: true,
		})
	}

	args, err := decodeArguments(params.Arguments)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInvalidParams, "arguments must be an object")
	}

	h.logger.Debug("tools/call", "tool_name", params.Name)

	result := h.conv.ExecuteTool(ctx, tool, args)
	if !result.Success {
		return resultResponse(req.ID, CallToolResult{
			Content: []Content{{Type: "text", Text: result.Error.Error()}},
			IsError: true,
		})
	}

	return resultResponse(req.ID, CallToolResult{
		Content: []Content{{Type: "text", Text: renderResultText(result.Result)}},
	})
}

// decodeArguments parses the arguments object, treating absent or null as
// empty.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// renderResultText flattens a call result into the text content block. A
// templated result surfaces its rendered text directly; everything else is
// re-encoded as JSON.
func renderResultText(result any) string {
	if m, ok := result.(map[string]any); ok {
		if text, ok := m["text"].(string); ok {
			return text
		}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return "unserializable result"
	}
	return string(encoded)
}

func mustEncode(resp JSONRPCResponse) []byte {
	encoded, err := json.Marshal(resp)
	if err != nil {
		// Result values are built from decoded JSON; encoding cannot fail
		// with anything we construct, but fall back to a bare error anyway.
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"encoding failure"}}`)
	}
	return encoded
}
