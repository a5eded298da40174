// ABOUTME: Tests for template rendering, caching behavior, and cache invalidation.
// ABOUTME: Covers interpolation, iteration, conditionals, and raw (unescaped) output.

package template

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestEngineRender(t *testing.T) {
	t.Run("interpolates variables", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		out, err := engine.Render("tool-1", "Hello {{name}}!", map[string]any{"name": "World"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Hello World!" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("resolves dotted paths", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		data := map[string]any{"user": map[string]any{"name": "Ada"}}
		out, err := engine.Render("tool-1", "{{user.name}}", data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Ada" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("does not escape output", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		out, err := engine.Render("tool-1", "{{q}}", map[string]any{"q": `O'Reilly & Sons <ltd>`})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != `O'Reilly & Sons <ltd>` {
			t.Errorf("output was escaped: %q", out)
		}
	})

	t.Run("iterates with each, this, and index", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		data := map[string]any{
			"items": []map[string]any{{"x": "a"}, {"x": "b"}},
		}
		out, err := engine.Render("tool-1", "{{#each items}}{{@index}}:{{this.x}};{{/each}}", data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "0:a;1:b;" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("conditionals with else", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		tpl := "{{#if ok}}yes{{else}}no{{/if}}"

		out, err := engine.Render("tool-1", tpl, map[string]any{"ok": true})
		if err != nil || out != "yes" {
			t.Fatalf("true branch: out=%q err=%v", out, err)
		}
		out, err = engine.Render("tool-1", tpl, map[string]any{"ok": false})
		if err != nil || out != "no" {
			t.Fatalf("false branch: out=%q err=%v", out, err)
		}
	})

	t.Run("second render hits the cache with identical output", func(t *testing.T) {
		engine := NewEngine(slog.Default())

		first, err := engine.Render("tool-1", "Hello {{name}}!", map[string]any{"name": "World"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if engine.CacheSize() != 1 {
			t.Fatalf("expected 1 cached template, got %d", engine.CacheSize())
		}

		second, err := engine.Render("tool-1", "Hello {{name}}!", map[string]any{"name": "World"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("renders differ: %q vs %q", first, second)
		}
		if engine.CacheSize() != 1 {
			t.Errorf("expected cache size to stay 1, got %d", engine.CacheSize())
		}
	})

	t.Run("changed source gets its own cache entry", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		engine.Render("tool-1", "a {{x}}", map[string]any{"x": 1})
		engine.Render("tool-1", "b {{x}}", map[string]any{"x": 1})
		if engine.CacheSize() != 2 {
			t.Errorf("expected 2 cache entries, got %d", engine.CacheSize())
		}
	})

	t.Run("compile failure reports compilation error", func(t *testing.T) {
		engine := NewEngine(slog.Default())
		_, err := engine.Render("tool-1", "{{#each items}}unclosed", nil)
		if err == nil {
			t.Fatal("expected error")
		}
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != KindCompile {
			t.Errorf("expected compilation error, got %v", err)
		}
		if engine.CacheSize() != 0 {
			t.Errorf("failed compile must not be cached, size %d", engine.CacheSize())
		}
	})
}

func TestValidateTemplate(t *testing.T) {
	engine := NewEngine(slog.Default())

	if err := engine.ValidateTemplate("Hello {{name}}"); err != nil {
		t.Errorf("valid template rejected: %v", err)
	}
	if engine.CacheSize() != 0 {
		t.Errorf("validation must not populate the cache, size %d", engine.CacheSize())
	}

	err := engine.ValidateTemplate("{{#if x}}open")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != KindSyntax {
		t.Errorf("expected syntax error kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "syntax") {
		t.Errorf("expected message to mention syntax, got %v", err)
	}
}

func TestClearCache(t *testing.T) {
	engine := NewEngine(slog.Default())
	engine.Render("tool-1", "a {{x}}", map[string]any{"x": 1})
	engine.Render("tool-1", "b {{x}}", map[string]any{"x": 1})
	engine.Render("tool-2", "c {{x}}", map[string]any{"x": 1})

	engine.ClearCache("tool-1")
	if engine.CacheSize() != 1 {
		t.Errorf("expected only tool-2 entry to remain, size %d", engine.CacheSize())
	}

	engine.ClearAllCache()
	if engine.CacheSize() != 0 {
		t.Errorf("expected empty cache, size %d", engine.CacheSize())
	}
}

func TestRawOutputRewrite(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{{name}}", "{{{name}}}"},
		{"{{ name }}", "{{{ name }}}"},
		{"{{#each items}}{{this}}{{/each}}", "{{#each items}}{{{this}}}{{/each}}"},
		{"{{#if ok}}a{{else}}b{{/if}}", "{{#if ok}}a{{else}}b{{/if}}"},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := rawOutput(tc.in); got != tc.want {
			t.Errorf("rawOutput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
