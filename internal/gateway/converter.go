// ABOUTME: Converter orchestrating the tool call pipeline: route, synthesize, execute, render.
// ABOUTME: Every failure is flattened into a ToolCallResult value; nothing escapes as an error.

package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/latchwork/latch-gateway/internal/model"
	"github.com/latchwork/latch-gateway/internal/template"
)

// ToolCallResult is the uniform outcome of a tool call, consumed by the
// registry dispatcher, CRUD handlers, and protocol transports.
type ToolCallResult struct {
	Success         bool           `json:"success"`
	Result          any            `json:"result,omitempty"`
	Error           *CallError     `json:"error,omitempty"`
	ExecutionTimeMS int64          `json:"execution_time_ms"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Converter executes tool calls end to end for one transport kind.
type Converter struct {
	executor  *Executor
	templates *template.Engine
	logger    *slog.Logger
}

// NewConverter creates a converter using the given executor and template engine.
func NewConverter(executor *Executor, templates *template.Engine, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		executor:  executor,
		templates: templates,
		logger:    logger.With("component", "converter"),
	}
}

// Templates exposes the template engine for cache invalidation on config changes.
func (c *Converter) Templates() *template.Engine {
	return c.templates
}

// ExecuteTool runs the full pipeline for one call: validate and route the
// arguments, build and send the request, normalize the response, and render
// the optional response template. The returned result is always non-nil and
// carries the total elapsed time.
func (c *Converter) ExecuteTool(ctx context.Context, tool *model.Tool, args map[string]any) *ToolCallResult {
	start := time.Now()

	result, err := c.executeHTTP(ctx, tool, args)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		ce := AsCallError(err)
		c.logger.Warn("tool call failed",
			"tool_id", tool.ID,
			"tool_name", tool.Name,
			"code", ce.Code,
			"elapsed_ms", elapsed,
		)
		return &ToolCallResult{Success: false, Error: ce, ExecutionTimeMS: elapsed}
	}

	c.logger.Debug("tool call complete",
		"tool_id", tool.ID,
		"tool_name", tool.Name,
		"elapsed_ms", elapsed,
	)
	return &ToolCallResult{Success: true, Result: result, ExecutionTimeMS: elapsed}
}

func (c *Converter) executeHTTP(ctx context.Context, tool *model.Tool, args map[string]any) (any, error) {
	var cfg *model.HTTPToolConfig
	switch tool.Config.Kind {
	case model.ToolKindHTTP:
		cfg = tool.Config.HTTP
		if cfg == nil {
			return nil, Errorf(CodeInvalidToolConfig, "tool %q has no http config", tool.Name)
		}
	default:
		return nil, WrapError(CodeInvalidToolConfig, model.ErrUnsupportedToolKind,
			"tool %q has unsupported kind %q", tool.Name, tool.Config.Kind)
	}

	if args == nil {
		args = map[string]any{}
	}
	routed, err := ExtractParameters(cfg, args)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	req, err := BuildRequest(callCtx, cfg, routed)
	if err != nil {
		return nil, err
	}

	resp, err := c.executor.Execute(req)
	if err != nil {
		return nil, err
	}

	if cfg.ResponseTemplate == "" {
		return resp.Body, nil
	}

	// A render failure never fails the call: degrade to the raw response
	// plus a diagnostic.
	text, err := c.templates.Render(tool.ID, cfg.ResponseTemplate, resp.Body)
	if err != nil {
		c.logger.Warn("response template failed, returning raw response",
			"tool_id", tool.ID,
			"error", err,
		)
		return map[string]any{
			"text":           nil,
			"raw":            resp.Body,
			"template_error": err.Error(),
		}, nil
	}
	return map[string]any{
		"text": text,
		"raw":  resp.Body,
	}, nil
}

// TestToolConnection runs the normal pipeline with empty arguments to probe
// connectivity. A parameter validation failure is reinterpreted as success:
// the endpoint was reachable, the arguments were just incomplete.
func (c *Converter) TestToolConnection(ctx context.Context, tool *model.Tool) *ToolCallResult {
	result := c.ExecuteTool(ctx, tool, map[string]any{})
	if !result.Success && result.Error != nil && result.Error.Code == CodeParameterValidationFailed {
		return &ToolCallResult{
			Success:         true,
			Result:          map[string]any{"reachable": true, "note": "endpoint reachable, parameters incomplete"},
			ExecutionTimeMS: result.ExecutionTimeMS,
		}
	}
	return result
}
