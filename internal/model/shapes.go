package model

import (
	"github.com/goliatone/go-dynapi/internal/descriptor"
)

// IdentityField is the server-assigned primary key prepended to every record
// shape. Submitted schemas may not declare it themselves.
const IdentityField = "id"

// Shape is one derived data shape for an entity: the ordered field list used
// for persisted rows, creation input, or update input.
type Shape struct {
	Entity string                       `json:"entity"`
	Fields []descriptor.FieldDescriptor `json:"fields"`
}

// Field returns the descriptor for the named field.
func (s Shape) Field(name string) (descriptor.FieldDescriptor, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return descriptor.FieldDescriptor{}, false
}

// Names returns the field names in shape order.
func (s Shape) Names() []string {
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Name)
	}
	return out
}

// RequiredNames returns the names of mandatory fields in shape order.
func (s Shape) RequiredNames() []string {
	out := []string{}
	for _, field := range s.Fields {
		if field.Required {
			out = append(out, field.Name)
		}
	}
	return out
}

// JSONSchema renders the shape as a closed JSON Schema document. Optional
// fields accept null; unknown fields are rejected via additionalProperties.
func (s Shape) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := []any{}

	for _, field := range s.Fields {
		properties[field.Name] = fieldSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldSchema(field descriptor.FieldDescriptor) map[string]any {
	jsonType := field.Kind.JSONType()

	out := map[string]any{}
	if field.Nullable || !field.Required {
		out["type"] = []any{jsonType, "null"}
	} else {
		out["type"] = jsonType
	}
	if format := field.Kind.JSONFormat(); format != "" {
		out["format"] = format
	}
	if field.Kind == descriptor.KindArray {
		itemKind := field.ArrayItemKind
		if itemKind == "" {
			itemKind = descriptor.KindString
		}
		out["items"] = map[string]any{"type": itemKind.JSONType()}
	}
	if c := field.Constraints; c != nil {
		if c.MaxLength != nil {
			out["maxLength"] = *c.MaxLength
		}
		if c.Minimum != nil {
			out["minimum"] = *c.Minimum
		}
		if c.Maximum != nil {
			out["maximum"] = *c.Maximum
		}
		if len(c.Enum) > 0 {
			enum := append([]any(nil), c.Enum...)
			if field.Nullable || !field.Required {
				enum = append(enum, nil)
			}
			out["enum"] = enum
		}
	}
	return out
}

// Shapes bundles the three derived shapes for an entity. Every field in
// Create and Update exists in Record with the same kind.
type Shapes struct {
	Record Shape `json:"record"`
	Create Shape `json:"create"`
	Update Shape `json:"update"`
}
