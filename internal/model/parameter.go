// ABOUTME: ParameterSchema declares one call argument: type, position, and constraints.
// ABOUTME: Provides type/enum checking used by the parameter router before routing.

package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ParameterType is the JSON type a call argument must have.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeObject  ParameterType = "object"
	TypeArray   ParameterType = "array"
)

// ParameterPosition is the part of the HTTP request an argument is placed into.
type ParameterPosition string

const (
	PositionPath   ParameterPosition = "path"
	PositionHeader ParameterPosition = "header"
	PositionBody   ParameterPosition = "body"
)

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string            `json:"name"`
	Type        ParameterType     `json:"type"`
	Position    ParameterPosition `json:"position"`
	Required    bool              `json:"required"`
	Default     any               `json:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty"`
	Description string            `json:"description,omitempty"`
}

// Validate checks the schema itself: known type and position, header names
// that are valid HTTP tokens, and enum/default consistency with the type.
func (p *ParameterSchema) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: parameter name is empty", ErrInvalidToolConfig)
	}

	switch p.Type {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray:
	default:
		return fmt.Errorf("%w: parameter %q has unknown type %q", ErrInvalidToolConfig, p.Name, p.Type)
	}

	switch p.Position {
	case PositionPath, PositionHeader, PositionBody:
	default:
		return fmt.Errorf("%w: parameter %q has unknown position %q", ErrInvalidToolConfig, p.Name, p.Position)
	}

	if p.Position == PositionHeader && !isHTTPToken(p.Name) {
		return fmt.Errorf("%w: parameter %q is not a valid HTTP header name", ErrInvalidToolConfig, p.Name)
	}

	for _, v := range p.Enum {
		if err := p.checkType(v); err != nil {
			return fmt.Errorf("%w: parameter %q enum value %v does not match type %s",
				ErrInvalidToolConfig, p.Name, v, p.Type)
		}
	}

	if p.Default != nil {
		if err := p.CheckValue(p.Default); err != nil {
			return fmt.Errorf("%w: parameter %q default: %v", ErrInvalidToolConfig, p.Name, err)
		}
	}

	return nil
}

// CheckValue validates a supplied value against the declared type and, if an
// enum constraint is present, enum membership.
func (p *ParameterSchema) CheckValue(value any) error {
	if err := p.checkType(value); err != nil {
		return err
	}
	if len(p.Enum) > 0 {
		for _, allowed := range p.Enum {
			if jsonEqual(value, allowed) {
				return nil
			}
		}
		return fmt.Errorf("value %v is not in enum for parameter %q", value, p.Name)
	}
	return nil
}

func (p *ParameterSchema) checkType(value any) error {
	ok := false
	switch p.Type {
	case TypeString:
		_, ok = value.(string)
	case TypeNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64, json.Number:
			ok = true
		}
	case TypeBoolean:
		_, ok = value.(bool)
	case TypeObject:
		_, ok = value.(map[string]any)
	case TypeArray:
		_, ok = value.([]any)
	}
	if !ok {
		return fmt.Errorf("parameter %q expects type %s, got %T", p.Name, p.Type, value)
	}
	return nil
}

// jsonEqual compares two decoded JSON values. Numbers are compared by value
// so 2 and 2.0 match regardless of how they were decoded.
func jsonEqual(a, b any) bool {
	if na, aok := toFloat(a); aok {
		nb, bok := toFloat(b)
		return bok && na == nb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// isHTTPToken reports whether s is a valid RFC 7230 token, the grammar for
// HTTP header field names.
func isHTTPToken(s string) bool {
	if s == "" {
		return false
	}
	const tokenSpecials = "!#$%&'*+-.^_`|~"
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(tokenSpecials, r):
		default:
			return false
		}
	}
	return true
}
