// ABOUTME: Tests for the HTTP executor: JSON normalization and status classification.
// ABOUTME: Uses httptest upstreams to exercise timeouts and non-JSON payloads.

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExecutorExecute(t *testing.T) {
	t.Run("parses json responses", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true,"count":3}`))
		}))
		defer upstream.Close()

		executor := NewExecutor(nil, slog.Default())
		req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)

		resp, err := executor.Execute(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body, ok := resp.Body.(map[string]any)
		if !ok {
			t.Fatalf("expected object body, got %T", resp.Body)
		}
		if body["ok"] != true || body["count"] != 3.0 {
			t.Errorf("unexpected body: %v", body)
		}
		if resp.ElapsedMS < 0 {
			t.Errorf("negative elapsed: %d", resp.ElapsedMS)
		}
	})

	t.Run("wraps non-json responses in a synthetic object", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
		}))
		defer upstream.Close()

		executor := NewExecutor(nil, slog.Default())
		req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)

		resp, err := executor.Execute(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body, ok := resp.Body.(map[string]any)
		if !ok {
			t.Fatalf("expected wrapper object, got %T", resp.Body)
		}
		if body["body"] != "hello" {
			t.Errorf("expected raw body, got %v", body["body"])
		}
		if body["status_code"] != 200 {
			t.Errorf("expected status 200, got %v", body["status_code"])
		}
		if body["content_type"] != "text/plain" {
			t.Errorf("expected content type, got %v", body["content_type"])
		}
	})

	t.Run("classifies upstream status codes", func(t *testing.T) {
		cases := []struct {
			status int
			code   Code
		}{
			{400, CodeParameterValidationFailed},
			{401, CodeAuthenticationFailed},
			{404, CodeToolNotFound},
			{429, CodeRateLimitExceeded},
			{500, CodeInternalError},
			{503, CodeHTTPRequestFailed},
		}
		for _, tc := range cases {
			status := tc.status
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			executor := NewExecutor(nil, slog.Default())
			req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)

			_, err := executor.Execute(req)
			if err == nil {
				t.Errorf("status %d: expected error", status)
			} else if CodeOf(err) != tc.code {
				t.Errorf("status %d: expected %s, got %s", status, tc.code, CodeOf(err))
			}
			upstream.Close()
		}
	})

	t.Run("context deadline becomes execution timeout", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer upstream.Close()

		executor := NewExecutor(nil, slog.Default())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, upstream.URL, nil)

		_, err := executor.Execute(req)
		if err == nil || CodeOf(err) != CodeExecutionTimeout {
			t.Fatalf("expected CodeExecutionTimeout, got %v", err)
		}
	})

	t.Run("connection refused becomes network error", func(t *testing.T) {
		executor := NewExecutor(nil, slog.Default())
		req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)

		_, err := executor.Execute(req)
		if err == nil || CodeOf(err) != CodeNetworkError {
			t.Fatalf("expected CodeNetworkError, got %v", err)
		}
	})

	t.Run("invalid json from upstream is a serialization error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"broken`))
		}))
		defer upstream.Close()

		executor := NewExecutor(nil, slog.Default())
		req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)

		_, err := executor.Execute(req)
		if err == nil || CodeOf(err) != CodeSerializationError {
			t.Fatalf("expected CodeSerializationError, got %v", err)
		}
	})
}
