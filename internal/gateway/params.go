// ABOUTME: Parameter router that validates call arguments and partitions them by position.
// ABOUTME: Path values are percent-encoded, header values are checked for CR/LF injection.

package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/latchwork/latch-gateway/internal/model"
)

// RoutedParameters holds call arguments partitioned by transport position.
type RoutedParameters struct {
	Path   map[string]string
	Header map[string]string
	Body   map[string]any
}

// IsEmpty returns true if no parameters were routed anywhere.
func (r *RoutedParameters) IsEmpty() bool {
	return len(r.Path) == 0 && len(r.Header) == 0 && len(r.Body) == 0
}

// ExtractParameters validates args against the declared parameter schemas and
// partitions them into path, header, and body maps. Unknown keys are rejected
// before any routing. On failure no partial maps are returned.
func ExtractParameters(cfg *model.HTTPToolConfig, args map[string]any) (*RoutedParameters, error) {
	declared := make(map[string]bool, len(cfg.Parameters))
	for i := range cfg.Parameters {
		declared[cfg.Parameters[i].Name] = true
	}
	for key := range args {
		if !declared[key] {
			return nil, Errorf(CodeParameterValidationFailed, "unknown parameter %q", key)
		}
	}

	routed := &RoutedParameters{
		Path:   make(map[string]string),
		Header: make(map[string]string),
		Body:   make(map[string]any),
	}

	for i := range cfg.Parameters {
		p := &cfg.Parameters[i]

		value, present := args[p.Name]
		if !present {
			if p.Default != nil {
				value = p.Default
			} else if p.Required {
				return nil, Errorf(CodeParameterValidationFailed, "missing required parameter %q", p.Name)
			} else {
				continue
			}
		}

		if err := p.CheckValue(value); err != nil {
			return nil, WrapError(CodeParameterValidationFailed, err, "parameter %q: %v", p.Name, err)
		}

		switch p.Position {
		case model.PositionPath:
			routed.Path[p.Name] = encodePathValue(stringifyValue(value))
		case model.PositionHeader:
			s := stringifyValue(value)
			if strings.ContainsAny(s, "\r\n") {
				return nil, Errorf(CodeParameterValidationFailed,
					"header parameter %q must not contain newlines", p.Name)
			}
			routed.Header[p.Name] = s
		case model.PositionBody:
			routed.Body[p.Name] = value
		}
	}

	return routed, nil
}

// stringifyValue renders a JSON value as a string for path or header use.
// Composite values fall back to their JSON encoding.
func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(b)
	}
}

// encodePathValue percent-encodes a path segment value. Only RFC 3986
// unreserved characters pass through; everything else is escaped, including
// the slash, so a value can never extend the URL path.
func encodePathValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '.' || c == '_' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}
