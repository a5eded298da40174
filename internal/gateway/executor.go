// ABOUTME: HTTP executor issuing the outbound request and normalizing the response to JSON.
// ABOUTME: Classifies transport failures and upstream status codes into the error taxonomy.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseBodySize caps upstream response bodies at 8 MiB.
const maxResponseBodySize = 8 << 20

// UpstreamResponse is the normalized result of one upstream HTTP exchange.
// Body is always a decoded JSON value: parsed when the upstream replied with
// application/json, otherwise a synthetic wrapper object.
type UpstreamResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       any
	ElapsedMS  int64
}

// Executor issues outbound HTTP requests for tool calls. It performs exactly
// one attempt per call; retry_count on the tool config is reserved metadata.
type Executor struct {
	client *http.Client
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil client falls back to a default
// client; per-call timeouts come from the request context, not the client.
func NewExecutor(client *http.Client, logger *slog.Logger) *Executor {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{client: client, logger: logger.With("component", "executor")}
}

// Execute sends the request and returns the normalized response. Non-2xx
// statuses and transport failures are classified into CallError codes.
func (e *Executor) Execute(req *http.Request) (*UpstreamResponse, error) {
	start := time.Now()

	resp, err := e.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, WrapError(CodeExecutionTimeout, err, "request to %s timed out", req.URL.Host)
		}
		return nil, WrapError(CodeNetworkError, err, "request to %s failed: %v", req.URL.Host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, WrapError(CodeNetworkError, err, "reading response body: %v", err)
	}

	e.logger.Debug("upstream response",
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"elapsed_ms", elapsed,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, raw)
	}

	headers := flattenHeaders(resp.Header)
	contentType := resp.Header.Get("Content-Type")

	var body any
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, WrapError(CodeSerializationError, err, "upstream returned invalid JSON: %v", err)
		}
	} else {
		// Wrap non-JSON payloads so downstream logic always consumes JSON.
		body = map[string]any{
			"status_code":  resp.StatusCode,
			"headers":      headers,
			"body":         string(raw),
			"content_type": contentType,
		}
	}

	return &UpstreamResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
		ElapsedMS:  elapsed,
	}, nil
}

// classifyStatus maps an upstream non-2xx status to the error taxonomy.
func classifyStatus(status int, body []byte) *CallError {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}

	var code Code
	switch status {
	case http.StatusBadRequest:
		code = CodeParameterValidationFailed
	case http.StatusUnauthorized:
		code = CodeAuthenticationFailed
	case http.StatusNotFound:
		code = CodeToolNotFound
	case http.StatusTooManyRequests:
		code = CodeRateLimitExceeded
	case http.StatusInternalServerError:
		code = CodeInternalError
	default:
		code = CodeHTTPRequestFailed
	}
	return Errorf(code, "upstream returned status %d: %s", status, snippet)
}

func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for name := range h {
		result[name] = h.Get(name)
	}
	return result
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
