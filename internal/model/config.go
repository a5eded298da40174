// ABOUTME: ToolConfig tagged union and the HTTP tool configuration variant.
// ABOUTME: Validation enforces the endpoint/path-parameter bijection and value ranges.

package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidToolConfig is the sentinel wrapped by every configuration
// validation failure so callers can classify with errors.Is.
var ErrInvalidToolConfig = errors.New("invalid tool config")

// ErrUnsupportedToolKind indicates a ToolConfig variant this build does not
// understand. Every consumer of ToolConfig must switch on Kind and return
// this from its default arm so new variants surface everywhere.
var ErrUnsupportedToolKind = errors.New("unsupported tool kind")

// ToolKind discriminates ToolConfig variants.
type ToolKind string

// ToolKindHTTP is the only transport variant currently supported.
const ToolKindHTTP ToolKind = "http"

// ToolConfig is a tagged union of transport configurations. Exactly one
// variant pointer is non-nil, selected by Kind.
type ToolConfig struct {
	Kind ToolKind        `json:"kind"`
	HTTP *HTTPToolConfig `json:"http,omitempty"`
}

// Validate checks the union invariant and delegates to the active variant.
func (c *ToolConfig) Validate() error {
	switch c.Kind {
	case ToolKindHTTP:
		if c.HTTP == nil {
			return fmt.Errorf("%w: kind is %q but http config is missing", ErrInvalidToolConfig, ToolKindHTTP)
		}
		return c.HTTP.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedToolKind, c.Kind)
	}
}

func (c ToolConfig) clone() ToolConfig {
	clone := c
	if c.HTTP != nil {
		clone.HTTP = c.HTTP.clone()
	}
	return clone
}

// Timeout and retry bounds for HTTP tool configs.
const (
	DefaultTimeoutSeconds = 30
	MinTimeoutSeconds     = 1
	MaxTimeoutSeconds     = 300
	MaxRetryCount         = 10
)

// HTTPToolConfig describes the HTTP shape of a tool: where requests go, how
// they are built, and how call arguments map onto them.
type HTTPToolConfig struct {
	// Endpoint is an absolute URL template with {name} placeholders for
	// path-position parameters.
	Endpoint string `json:"endpoint"`

	// Method is the HTTP method used for the outbound request.
	Method string `json:"method"`

	// Headers are static headers applied to every request. Dynamic
	// header-position parameters may override them.
	Headers map[string]string `json:"headers,omitempty"`

	// Parameters declares the call arguments in order.
	Parameters []ParameterSchema `json:"parameters,omitempty"`

	// TimeoutSeconds bounds each call. Zero means DefaultTimeoutSeconds.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// RetryCount is validated and stored but drives no retries; the
	// executor issues exactly one attempt. Reserved metadata.
	RetryCount int `json:"retry_count,omitempty"`

	// ResponseTemplate optionally renders the JSON response to text.
	ResponseTemplate string `json:"response_template,omitempty"`
}

// placeholderPattern matches {name} tokens in endpoint templates.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Validate checks the full set of HTTP config invariants: absolute endpoint
// URL, known method, unique parameter names, header names that are valid
// HTTP tokens, enum/default consistency, the placeholder/path-parameter
// bijection, and timeout/retry ranges.
func (c *HTTPToolConfig) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint %q: %v", ErrInvalidToolConfig, c.Endpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q must be an absolute URL", ErrInvalidToolConfig, c.Endpoint)
	}

	if !allowedMethods[strings.ToUpper(c.Method)] {
		return fmt.Errorf("%w: unsupported HTTP method %q", ErrInvalidToolConfig, c.Method)
	}

	seen := make(map[string]bool, len(c.Parameters))
	pathParams := make(map[string]bool)
	for i := range c.Parameters {
		p := &c.Parameters[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate parameter name %q", ErrInvalidToolConfig, p.Name)
		}
		seen[p.Name] = true
		if p.Position == PositionPath {
			pathParams[p.Name] = true
		}
	}

	// The set of {name} placeholders must equal exactly the set of
	// path-position parameter names.
	placeholders := c.Placeholders()
	for name := range placeholders {
		if !pathParams[name] {
			return fmt.Errorf("%w: endpoint placeholder {%s} has no path parameter", ErrInvalidToolConfig, name)
		}
	}
	for name := range pathParams {
		if !placeholders[name] {
			return fmt.Errorf("%w: path parameter %q has no endpoint placeholder", ErrInvalidToolConfig, name)
		}
	}

	if c.TimeoutSeconds != 0 && (c.TimeoutSeconds < MinTimeoutSeconds || c.TimeoutSeconds > MaxTimeoutSeconds) {
		return fmt.Errorf("%w: timeout_seconds %d out of range [%d, %d]",
			ErrInvalidToolConfig, c.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)
	}
	if c.RetryCount < 0 || c.RetryCount > MaxRetryCount {
		return fmt.Errorf("%w: retry_count %d out of range [0, %d]", ErrInvalidToolConfig, c.RetryCount, MaxRetryCount)
	}

	return nil
}

// Placeholders returns the set of {name} tokens present in the endpoint.
func (c *HTTPToolConfig) Placeholders() map[string]bool {
	matches := placeholderPattern.FindAllStringSubmatch(c.Endpoint, -1)
	result := make(map[string]bool, len(matches))
	for _, m := range matches {
		result[m[1]] = true
	}
	return result
}

// Timeout returns the per-call timeout with the default applied.
func (c *HTTPToolConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds == 0 {
		seconds = DefaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (c *HTTPToolConfig) clone() *HTTPToolConfig {
	clone := *c
	if c.Headers != nil {
		clone.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			clone.Headers[k] = v
		}
	}
	if c.Parameters != nil {
		clone.Parameters = make([]ParameterSchema, len(c.Parameters))
		copy(clone.Parameters, c.Parameters)
	}
	return &clone
}
