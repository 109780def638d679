package descriptor

import (
	"encoding/json"
	"strings"
)

// Constraints carries the subset of JSON Schema keywords the storage and
// validation layers honour.
type Constraints struct {
	MaxLength *int     `json:"max_length,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
}

// FieldDescriptor is the normalized, kind-tagged representation of one schema
// property. Descriptors are plain data; validation and serialization logic
// interpret them generically.
type FieldDescriptor struct {
	Name          string       `json:"name"`
	Kind          Kind         `json:"kind"`
	Nullable      bool         `json:"nullable"`
	Required      bool         `json:"required"`
	Default       any          `json:"default,omitempty"`
	Constraints   *Constraints `json:"constraints,omitempty"`
	ArrayItemKind Kind         `json:"array_item_kind,omitempty"`
	// Degraded marks properties whose declared type was unsupported and fell
	// back to string. The original type is kept for diagnostics so callers
	// can see what was requested.
	Degraded bool   `json:"degraded,omitempty"`
	RawType  string `json:"raw_type,omitempty"`
}

// MapProperty converts one JSON Schema property into a field descriptor. The
// mapping is deterministic and never fails: unsupported types degrade to
// string with the raw value preserved, so a single odd property does not
// block an otherwise valid entity.
func MapProperty(name string, prop map[string]any) FieldDescriptor {
	desc := FieldDescriptor{
		Name: strings.TrimSpace(name),
		Kind: KindString,
	}
	if prop == nil {
		return desc
	}

	rawType, _ := prop["type"].(string)
	rawType = strings.ToLower(strings.TrimSpace(rawType))
	format, _ := prop["format"].(string)
	format = strings.ToLower(strings.TrimSpace(format))

	switch rawType {
	case "", "string":
		desc.Kind = mapStringFormat(format)
	case "integer":
		desc.Kind = KindInteger
	case "number":
		desc.Kind = KindNumber
	case "boolean":
		desc.Kind = KindBoolean
	case "array":
		desc.Kind = KindArray
		desc.ArrayItemKind = mapArrayItems(prop)
	case "object":
		desc.Kind = KindObject
	default:
		desc.Kind = KindString
		desc.Degraded = true
		desc.RawType = rawType
	}

	if value, ok := prop["default"]; ok {
		desc.Default = value
	}
	desc.Constraints = mapConstraints(prop)
	return desc
}

func mapStringFormat(format string) Kind {
	switch format {
	case "date-time", "datetime":
		return KindDateTime
	case "email":
		return KindEmail
	case "uuid":
		return KindUUID
	default:
		return KindString
	}
}

// SupportedStringFormat reports whether a `format` hint on a string property
// is one the mapper understands. Unknown formats are a schema defect rather
// than a degrade case: the property type itself is fine, the hint is not.
func SupportedStringFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "date-time", "datetime", "email", "uuid":
		return true
	default:
		return false
	}
}

func mapArrayItems(prop map[string]any) Kind {
	items, ok := prop["items"].(map[string]any)
	if !ok {
		return KindString
	}
	itemType, _ := items["type"].(string)
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "object":
		return KindObject
	case "string":
		format, _ := items["format"].(string)
		return mapStringFormat(strings.ToLower(strings.TrimSpace(format)))
	default:
		return KindString
	}
}

func mapConstraints(prop map[string]any) *Constraints {
	var c Constraints
	found := false

	if v, ok := asInt(prop["maxLength"]); ok {
		c.MaxLength = &v
		found = true
	}
	if v, ok := asFloat(prop["minimum"]); ok {
		c.Minimum = &v
		found = true
	}
	if v, ok := asFloat(prop["maximum"]); ok {
		c.Maximum = &v
		found = true
	}
	if values, ok := prop["enum"].([]any); ok && len(values) > 0 {
		c.Enum = append([]any(nil), values...)
		found = true
	}

	if !found {
		return nil
	}
	return &c
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed), true
		}
	}
	return 0, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
