package oracle

import (
	"encoding/json"

	"google.golang.org/genai"
)

// SchemaType is a JSON value type.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
)

// Schema describes the shape of a structured response.
// It converts to JSON Schema for OpenAI-compatible services and to
// genai.Schema for Gemini.
type Schema struct {
	Type        SchemaType
	Description string
	Enum        []string
	Properties  map[string]*Schema
	// Order lists property names in the order they should be generated.
	Order    []string
	Required []string
}

// Object builds an object schema whose properties are all required, in the
// given order.
func Object(props ...Property) *Schema {
	s := &Schema{
		Type:       TypeObject,
		Properties: make(map[string]*Schema, len(props)),
	}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
		s.Required = append(s.Required, p.Name)
	}
	return s
}

// Property is a named object member.
type Property struct {
	Name   string
	Schema *Schema
}

// String returns a string schema.
func String(description string, enum ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: enum}
}

// Integer returns an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// MarshalJSON renders the schema as strict JSON Schema.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Type == TypeObject {
		props := make(map[string]*Schema, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p
		}
		out["properties"] = props
		required := s.Required
		if required == nil {
			required = []string{}
		}
		out["required"] = required
		out["additionalProperties"] = false
	}
	return json.Marshal(out)
}

func (s *Schema) toGenai() *genai.Schema {
	if s == nil {
		return nil
	}

	gs := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}

	switch s.Type {
	case TypeObject:
		gs.Type = genai.TypeObject
	case TypeInteger:
		gs.Type = genai.TypeInteger
	default:
		gs.Type = genai.TypeString
	}

	if len(s.Enum) > 0 {
		gs.Format = "enum"
	}

	if len(s.Properties) > 0 {
		gs.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			gs.Properties[name] = p.toGenai()
		}
		gs.PropertyOrdering = s.Order
	}

	return gs
}
