// ABOUTME: Request synthesizer building the outbound URL and http.Request for a tool call.
// ABOUTME: Enforces the endpoint-template/path-parameter algebra before substitution.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/latchwork/latch-gateway/internal/model"
)

var urlTokenPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// BuildURL substitutes the already-encoded path parameters into the endpoint
// template. Every {name} token must have a matching entry and every entry
// must match a token present in the template.
func BuildURL(endpoint string, pathParams map[string]string) (string, error) {
	tokens := make(map[string]bool)
	for _, m := range urlTokenPattern.FindAllStringSubmatch(endpoint, -1) {
		tokens[m[1]] = true
	}

	for name := range tokens {
		if _, ok := pathParams[name]; !ok {
			return "", Errorf(CodePathParameterMissing, "no value for path parameter {%s}", name)
		}
	}
	for name := range pathParams {
		if !tokens[name] {
			return "", Errorf(CodePathParameterInvalid, "path parameter %q not present in endpoint template", name)
		}
	}

	result := endpoint
	for name, value := range pathParams {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result, nil
}

// BuildRequest synthesizes the outbound HTTP request for a tool call: URL
// substitution, static headers first then dynamic header parameters (which
// may override), and a JSON body only when body parameters are present.
func BuildRequest(ctx context.Context, cfg *model.HTTPToolConfig, routed *RoutedParameters) (*http.Request, error) {
	rawURL, err := BuildURL(cfg.Endpoint, routed.Path)
	if err != nil {
		return nil, err
	}

	var body *bytes.Reader
	if len(routed.Body) > 0 {
		payload, err := json.Marshal(routed.Body)
		if err != nil {
			return nil, WrapError(CodeSerializationError, err, "encoding request body: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, strings.ToUpper(cfg.Method), rawURL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, strings.ToUpper(cfg.Method), rawURL, nil)
	}
	if err != nil {
		return nil, WrapError(CodeInternalError, err, "building request: %v", err)
	}

	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range routed.Header {
		req.Header.Set(name, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
