// ABOUTME: Tests for the tool registry covering registration, tenant isolation, and dispatch.
// ABOUTME: Verifies ownership and status checks happen before any network I/O.

package registry

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/latchwork/latch-gateway/internal/gateway"
	"github.com/latchwork/latch-gateway/internal/mcp"
	"github.com/latchwork/latch-gateway/internal/model"
	"github.com/latchwork/latch-gateway/internal/template"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := slog.Default()
	conv := gateway.NewConverter(
		gateway.NewExecutor(nil, logger),
		template.NewEngine(logger),
		logger,
	)
	return NewRegistry(conv, mcp.ServerInfo{Name: "latch-gateway", Version: "test"}, logger)
}

func makeTool(id, tenantID, name, endpoint string) *model.Tool {
	return &model.Tool{
		ID:       id,
		TenantID: tenantID,
		Name:     name,
		Status:   model.ToolStatusActive,
		Config: model.ToolConfig{
			Kind: model.ToolKindHTTP,
			HTTP: &model.HTTPToolConfig{
				Endpoint: endpoint,
				Method:   "GET",
			},
		},
	}
}

func TestRegisterTool(t *testing.T) {
	r := newTestRegistry(t)

	tool := makeTool("tool-1", "tenant-a", "get_order", "https://api.example.com/orders")
	if err := r.RegisterTool(tool); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}

	got, err := r.GetTool("tool-1")
	if err != nil {
		t.Fatalf("GetTool failed: %v", err)
	}
	if got.Name != "get_order" {
		t.Errorf("name = %q", got.Name)
	}

	// The returned tool is a clone; mutating it must not affect the registry.
	got.Name = "mutated"
	again, _ := r.GetTool("tool-1")
	if again.Name != "get_order" {
		t.Error("registry state leaked through GetTool clone")
	}

	if count := r.HandlerFor("tenant-a").ToolCount(); count != 1 {
		t.Errorf("handler mirror has %d tools, want 1", count)
	}
}

func TestRegisterTool_InvalidConfigRejected(t *testing.T) {
	r := newTestRegistry(t)

	tool := makeTool("tool-1", "tenant-a", "broken", "https://api.example.com/orders/{order_id}")
	// Placeholder with no matching path parameter.
	if err := r.RegisterTool(tool); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := r.GetTool("tool-1"); err == nil {
		t.Error("invalid tool was registered")
	}
}

func TestRegisterTool_OverwriteAndRename(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.RegisterTool(makeTool("tool-1", "tenant-a", "old_name", "https://api.example.com/a")); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}
	if err := r.RegisterTool(makeTool("tool-1", "tenant-a", "new_name", "https://api.example.com/b")); err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}

	got, err := r.GetTool("tool-1")
	if err != nil {
		t.Fatalf("GetTool failed: %v", err)
	}
	if got.Name != "new_name" {
		t.Errorf("name = %q, want new_name", got.Name)
	}

	// The mirror must not keep the stale name around.
	if count := r.HandlerFor("tenant-a").ToolCount(); count != 1 {
		t.Errorf("handler mirror has %d tools after rename, want 1", count)
	}
}

func TestUnregisterTool(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.RegisterTool(makeTool("tool-1", "tenant-a", "get_order", "https://api.example.com/a")); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}
	if err := r.UnregisterTool("tool-1"); err != nil {
		t.Fatalf("UnregisterTool failed: %v", err)
	}

	if _, err := r.GetTool("tool-1"); err != ErrToolNotFound {
		t.Errorf("GetTool after unregister = %v, want ErrToolNotFound", err)
	}
	if err := r.UnregisterTool("tool-1"); err != ErrToolNotFound {
		t.Errorf("second unregister = %v, want ErrToolNotFound", err)
	}

	// Tenant entry is garbage-collected; HandlerFor degrades to a transient
	// empty handler.
	if count := r.HandlerFor("tenant-a").ToolCount(); count != 0 {
		t.Errorf("transient handler has %d tools, want 0", count)
	}

	stats := r.GetToolStats("tenant-a")
	if stats.Total != 0 {
		t.Errorf("stats.Total = %d after GC, want 0", stats.Total)
	}
}

func TestCallTool_NotFound(t *testing.T) {
	r := newTestRegistry(t)

	result := r.CallTool(context.Background(), "ghost", nil, &ToolCallContext{TenantID: "tenant-a"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Code != gateway.CodeToolNotFound {
		t.Errorf("code = %s, want TOOL_NOT_FOUND", result.Error.Code)
	}
}

func TestCallTool_CrossTenantRejectedBeforeIO(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	r := newTestRegistry(t)
	if err := r.RegisterTool(makeTool("tool-1", "tenant-a", "get_order", upstream.URL)); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}

	result := r.CallTool(context.Background(), "tool-1", nil, &ToolCallContext{TenantID: "tenant-b"})
	if result.Success {
		t.Fatal("cross-tenant call succeeded")
	}
	if result.Error.Code != gateway.CodeAuthorizationFailed {
		t.Errorf("code = %s, want AUTHORIZATION_FAILED", result.Error.Code)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("upstream received %d calls, want 0", n)
	}
}

func TestCallTool_InactiveRejectedBeforeIO(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	r := newTestRegistry(t)
	tool := makeTool("tool-1", "tenant-a", "paused", upstream.URL)
	tool.Status = model.ToolStatusInactive
	if err := r.RegisterTool(tool); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}

	result := r.CallTool(context.Background(), "tool-1", nil, &ToolCallContext{TenantID: "tenant-a"})
	if result.Success {
		t.Fatal("inactive call succeeded")
	}
	if result.Error.Code != gateway.CodeValidationError {
		t.Errorf("code = %s, want VALIDATION_ERROR", result.Error.Code)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("upstream received %d calls, want 0", n)
	}
}

func TestCallTool_Success(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	r := newTestRegistry(t)
	if err := r.RegisterTool(makeTool("tool-1", "tenant-a", "get_order", upstream.URL)); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}

	result := r.CallTool(context.Background(), "tool-1", map[string]any{}, &ToolCallContext{
		TenantID:  "tenant-a",
		RequestID: "req-42",
	})
	if !result.Success {
		t.Fatalf("call failed: %+v", result.Error)
	}
	if result.Metadata["request_id"] != "req-42" {
		t.Errorf("metadata = %v", result.Metadata)
	}
}

func TestGetToolStats(t *testing.T) {
	r := newTestRegistry(t)

	active := makeTool("tool-1", "tenant-a", "a", "https://api.example.com/a")
	inactive := makeTool("tool-2", "tenant-a", "b", "https://api.example.com/b")
	inactive.Status = model.ToolStatusInactive
	other := makeTool("tool-3", "tenant-b", "c", "https://api.example.com/c")

	for _, tool := range []*model.Tool{active, inactive, other} {
		if err := r.RegisterTool(tool); err != nil {
			t.Fatalf("RegisterTool failed: %v", err)
		}
	}

	stats := r.GetToolStats("tenant-a")
	if stats.Total != 2 || stats.Active != 1 || stats.Inactive != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByType["http"] != 2 {
		t.Errorf("by_type = %v", stats.ByType)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tool := makeTool("tool-1", "tenant-a", "get_order", "https://api.example.com/a")
			for j := 0; j < 50; j++ {
				_ = r.RegisterTool(tool)
				_, _ = r.GetTool("tool-1")
				_ = r.GetToolStats("tenant-a")
				_ = r.HandlerFor("tenant-a")
			}
		}(i)
	}
	wg.Wait()

	if _, err := r.GetTool("tool-1"); err != nil {
		t.Fatalf("tool missing after concurrent churn: %v", err)
	}
}
