// ABOUTME: Generates JSON Schema tool descriptors from declared parameter schemas.
// ABOUTME: Path parameters are excluded: they live in the URL, not the call payload.

package mcp

import "github.com/latchwork/latch-gateway/internal/model"

// ParametersToJSONSchema builds the inputSchema object for a tool descriptor.
// Path parameters never appear in properties because they are substituted
// into the URL rather than carried in the payload, but they still count
// toward required: the caller must supply them in arguments.
func ParametersToJSONSchema(params []model.ParameterSchema) map[string]any {
	properties := make(map[string]any)
	var required []string

	for i := range params {
		p := &params[i]
		if p.Required {
			required = append(required, p.Name)
		}
		if p.Position == model.PositionPath {
			continue
		}

		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
