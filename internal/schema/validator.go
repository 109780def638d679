package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/validation"
)

// reservedNames are property names the synthesizer assigns itself.
var reservedNames = map[string]bool{
	"id": true,
}

// Property pairs a schema property name with its raw definition.
type Property struct {
	Name   string
	Schema map[string]any
}

// ValidatedSchema is the normalized result of a successful validation:
// properties in a stable order and the resolved required set.
type ValidatedSchema struct {
	Properties []Property
	Required   []string
	Document   map[string]any
}

// IsRequired reports whether the named property appears in the required set.
func (v *ValidatedSchema) IsRequired(name string) bool {
	for _, req := range v.Required {
		if req == name {
			return true
		}
	}
	return false
}

// Validate checks a JSON Schema-like document for structural well-formedness
// and supported-feature compliance. It accumulates every violation found
// rather than failing on the first. Unknown `type` names are NOT violations:
// they degrade to string downstream, so a single odd property cannot block an
// otherwise valid entity.
func Validate(document map[string]any) (*ValidatedSchema, error) {
	issues := []validation.ValidationIssue{}

	if len(document) == 0 {
		issues = append(issues, validation.ValidationIssue{
			Message: "schema document is required",
		})
		return nil, &SchemaError{Issues: issues}
	}

	if rootType, ok := document["type"]; ok {
		typeName, isString := rootType.(string)
		if !isString || strings.ToLower(strings.TrimSpace(typeName)) != "object" {
			issues = append(issues, validation.ValidationIssue{
				Location: "/type",
				Message:  fmt.Sprintf("root type must be \"object\", got %v", rootType),
			})
		}
	}

	rawProps, ok := document["properties"]
	if !ok {
		issues = append(issues, validation.ValidationIssue{
			Location: "/properties",
			Message:  "schema must contain a properties mapping",
		})
		return nil, &SchemaError{Issues: issues}
	}
	props, ok := rawProps.(map[string]any)
	if !ok || len(props) == 0 {
		issues = append(issues, validation.ValidationIssue{
			Location: "/properties",
			Message:  "properties must be a non-empty object",
		})
		return nil, &SchemaError{Issues: issues}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make([]Property, 0, len(names))
	for _, name := range names {
		location := "/properties/" + name
		if !ValidFieldName(name) {
			issues = append(issues, validation.ValidationIssue{
				Location: location,
				Message:  "property name must be a lowercase identifier",
			})
		}
		if reservedNames[strings.ToLower(name)] {
			issues = append(issues, validation.ValidationIssue{
				Location: location,
				Message:  fmt.Sprintf("%q is reserved for the server-assigned identity field", name),
			})
		}

		prop, ok := props[name].(map[string]any)
		if !ok {
			issues = append(issues, validation.ValidationIssue{
				Location: location,
				Message:  "property definition must be an object",
			})
			continue
		}
		issues = append(issues, checkProperty(name, prop)...)
		properties = append(properties, Property{Name: name, Schema: prop})
	}

	required, requiredIssues := resolveRequired(document, props)
	issues = append(issues, requiredIssues...)

	if len(issues) > 0 {
		return nil, &SchemaError{Issues: issues}
	}

	normalized := normalizeDocument(properties, required)
	if err := validation.CompileCheck(normalized); err != nil {
		return nil, &SchemaError{Issues: validation.Issues(err)}
	}

	return &ValidatedSchema{
		Properties: properties,
		Required:   required,
		Document:   normalized,
	}, nil
}

func checkProperty(name string, prop map[string]any) []validation.ValidationIssue {
	issues := []validation.ValidationIssue{}
	location := "/properties/" + name

	rawType, hasType := prop["type"]
	typeName := ""
	if hasType {
		s, isString := rawType.(string)
		if !isString {
			issues = append(issues, validation.ValidationIssue{
				Location: location + "/type",
				Message:  fmt.Sprintf("type must be a string, got %T", rawType),
			})
		} else {
			typeName = strings.ToLower(strings.TrimSpace(s))
		}
	}

	if rawFormat, hasFormat := prop["format"]; hasFormat {
		format, isString := rawFormat.(string)
		switch {
		case !isString:
			issues = append(issues, validation.ValidationIssue{
				Location: location + "/format",
				Message:  fmt.Sprintf("format must be a string, got %T", rawFormat),
			})
		case (typeName == "" || typeName == "string") && !descriptor.SupportedStringFormat(format):
			issues = append(issues, validation.ValidationIssue{
				Location: location + "/format",
				Message:  fmt.Sprintf("unsupported format %q", format),
			})
		}
	}

	if typeName == "array" {
		if rawItems, hasItems := prop["items"]; hasItems {
			if _, isMap := rawItems.(map[string]any); !isMap {
				issues = append(issues, validation.ValidationIssue{
					Location: location + "/items",
					Message:  "items must be an object",
				})
			}
		}
	}

	if value, hasDefault := prop["default"]; hasDefault && value != nil {
		desc := descriptor.MapProperty(name, prop)
		if !desc.Kind.MatchesValue(value) {
			issues = append(issues, validation.ValidationIssue{
				Location: location + "/default",
				Message:  fmt.Sprintf("default %v does not match kind %s", value, desc.Kind),
			})
		}
	}

	return issues
}

func resolveRequired(document map[string]any, props map[string]any) ([]string, []validation.ValidationIssue) {
	issues := []validation.ValidationIssue{}

	rawRequired, ok := document["required"]
	if !ok {
		return nil, nil
	}

	entries, err := toStringSlice(rawRequired)
	if err != nil {
		return nil, []validation.ValidationIssue{{
			Location: "/required",
			Message:  "required must be a list of property names",
		}}
	}

	seen := map[string]bool{}
	required := make([]string, 0, len(entries))
	for _, entry := range entries {
		if seen[entry] {
			issues = append(issues, validation.ValidationIssue{
				Location: "/required",
				Message:  fmt.Sprintf("duplicate required entry %q", entry),
			})
			continue
		}
		seen[entry] = true
		if _, exists := props[entry]; !exists {
			issues = append(issues, validation.ValidationIssue{
				Location: "/required",
				Message:  fmt.Sprintf("required names unknown property %q", entry),
			})
			continue
		}
		required = append(required, entry)
	}
	sort.Strings(required)
	return required, issues
}

func toStringSlice(value any) ([]string, error) {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...), nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, entry := range typed {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("entry %v is not a string", entry)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %T is not a list", value)
	}
}

// normalizeDocument rebuilds the document with only the supported keywords in
// place, closed to unknown fields so payload validation rejects extras.
// Property types outside the supported set are rewritten to string here,
// mirroring the degrade policy, so the document always compiles.
func normalizeDocument(properties []Property, required []string) map[string]any {
	props := make(map[string]any, len(properties))
	for _, prop := range properties {
		props[prop.Name] = sanitizeProperty(prop.Schema)
	}
	normalized := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		normalized["required"] = append([]string(nil), required...)
	}
	return normalized
}

func sanitizeProperty(prop map[string]any) map[string]any {
	out := cloneMap(prop)
	typeName, _ := out["type"].(string)
	switch strings.ToLower(strings.TrimSpace(typeName)) {
	case "", "string", "integer", "number", "boolean", "array", "object":
	default:
		out["type"] = "string"
		delete(out, "format")
	}
	return out
}

// ValidFieldName reports whether the name is a lowercase identifier safe for
// both column naming and JSON keys.
func ValidFieldName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	if input == nil {
		return nil
	}
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
