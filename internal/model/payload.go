package model

import (
	"fmt"

	"github.com/goliatone/go-dynapi/internal/validation"
)

// ValidateCreate checks a creation payload against the create shape: required
// fields present, kinds correct, unknown fields rejected, and format kinds
// (email, uuid, datetime) shape-checked.
func ValidateCreate(shape Shape, payload map[string]any) error {
	if err := validation.ValidatePayload(shape.JSONSchema(), payload); err != nil {
		return err
	}
	return checkFormats(shape, payload)
}

// ValidateUpdate checks a partial update payload: only supplied fields are
// validated, nothing is mandatory, unknown fields are rejected.
func ValidateUpdate(shape Shape, payload map[string]any) error {
	if len(payload) == 0 {
		return &validation.PayloadValidationError{
			Issues: []validation.ValidationIssue{{Message: "update payload must carry at least one field"}},
		}
	}
	if err := validation.ValidatePayload(shape.JSONSchema(), payload); err != nil {
		return err
	}
	return checkFormats(shape, payload)
}

// ApplyDefaults returns a copy of the payload with declared defaults filled
// in for absent optional fields.
func ApplyDefaults(shape Shape, payload map[string]any) map[string]any {
	out := make(map[string]any, len(shape.Fields))
	for key, value := range payload {
		out[key] = value
	}
	for _, field := range shape.Fields {
		if _, present := out[field.Name]; present {
			continue
		}
		if field.Default != nil {
			out[field.Name] = field.Default
		}
	}
	return out
}

// checkFormats applies the per-kind value rules that plain JSON typing cannot
// express. Issues are accumulated across every offending field.
func checkFormats(shape Shape, payload map[string]any) error {
	issues := []validation.ValidationIssue{}
	for _, field := range shape.Fields {
		value, present := payload[field.Name]
		if !present || value == nil {
			continue
		}
		if err := field.Kind.CheckValue(value); err != nil {
			issues = append(issues, validation.ValidationIssue{
				Location: "/" + field.Name,
				Message:  fmt.Sprintf("invalid %s value", field.Kind),
			})
		}
	}
	if len(issues) > 0 {
		return &validation.PayloadValidationError{Issues: issues}
	}
	return nil
}
