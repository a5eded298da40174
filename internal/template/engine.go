// ABOUTME: Sandboxed handlebars rendering of tool responses with a compiled-template cache.
// ABOUTME: Cache entries are keyed by tool ID plus content hash so stale output never collides.

package template

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// ErrorKind distinguishes where template processing failed.
type ErrorKind string

const (
	KindSyntax  ErrorKind = "syntax"
	KindCompile ErrorKind = "compilation"
	KindRender  ErrorKind = "render"
)

// Error is a template processing failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template %s error: %s", e.Kind, e.Message)
}

// Engine compiles and renders response templates. Templates are handlebars
// with variable interpolation, #each, and #if/else; no helper reaches the
// filesystem or network. Compiled templates are cached per tool and content
// hash; identical source is never recompiled.
type Engine struct {
	mu     sync.RWMutex
	cache  map[string]*raymond.Template
	logger *slog.Logger
}

// NewEngine creates an empty template engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cache:  make(map[string]*raymond.Template),
		logger: logger.With("component", "template"),
	}
}

// Render renders source against data, compiling and caching on first use.
func (e *Engine) Render(toolID, source string, data any) (string, error) {
	key := cacheKey(toolID, source)

	e.mu.RLock()
	tpl := e.cache[key]
	e.mu.RUnlock()

	if tpl == nil {
		compiled, err := compile(source)
		if err != nil {
			return "", &Error{Kind: KindCompile, Message: err.Error()}
		}
		e.mu.Lock()
		// Another goroutine may have compiled the same source meanwhile;
		// either compiled template is equivalent, last write wins.
		e.cache[key] = compiled
		e.mu.Unlock()
		tpl = compiled
	}

	out, err := tpl.Exec(data)
	if err != nil {
		return "", &Error{Kind: KindRender, Message: err.Error()}
	}
	return out, nil
}

// ValidateTemplate performs a syntax-only compilation without touching the
// cache, for configuration-time checks.
func (e *Engine) ValidateTemplate(source string) error {
	if _, err := compile(source); err != nil {
		return &Error{Kind: KindSyntax, Message: err.Error()}
	}
	return nil
}

// ClearCache removes all cached templates for a tool.
func (e *Engine) ClearCache(toolID string) {
	prefix := toolID + ":"
	e.mu.Lock()
	for key := range e.cache {
		if strings.HasPrefix(key, prefix) {
			delete(e.cache, key)
		}
	}
	e.mu.Unlock()
}

// ClearAllCache empties the cache.
func (e *Engine) ClearAllCache() {
	e.mu.Lock()
	e.cache = make(map[string]*raymond.Template)
	e.mu.Unlock()
}

// CacheSize returns the number of cached compiled templates.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func cacheKey(toolID, source string) string {
	sum := sha256.Sum256([]byte(source))
	return toolID + ":" + hex.EncodeToString(sum[:])
}

func compile(source string) (*raymond.Template, error) {
	return raymond.Parse(rawOutput(source))
}

// mustachePattern matches a double-stache expression that is not a block
// opener, block closer, or else keyword.
var mustachePattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// rawOutput rewrites {{expr}} interpolations to {{{expr}}} so rendered text
// is emitted without HTML escaping. Block tags ({{#each}}, {{/if}}, {{else}})
// are left untouched.
func rawOutput(source string) string {
	return mustachePattern.ReplaceAllStringFunc(source, func(match string) string {
		inner := match[2 : len(match)-2]
		trimmed := strings.TrimSpace(inner)
		if trimmed == "" || trimmed == "else" ||
			strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "/") ||
			strings.HasPrefix(trimmed, "!") {
			return match
		}
		return "{{{" + inner + "}}}"
	})
}
