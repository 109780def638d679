package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-dynapi/internal/schema"
)

func validDocument() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":     map[string]any{"type": "string"},
			"price":    map[string]any{"type": "number"},
			"in_stock": map[string]any{"type": "boolean", "default": true},
		},
		"required": []any{"name", "price"},
	}
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	validated, err := schema.Validate(validDocument())
	if err != nil {
		t.Fatalf("expected valid document: %v", err)
	}
	if len(validated.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(validated.Properties))
	}
	// Properties come back in a stable, sorted order.
	if validated.Properties[0].Name != "in_stock" || validated.Properties[2].Name != "price" {
		t.Fatalf("unexpected property order: %+v", validated.Properties)
	}
	if !validated.IsRequired("name") || !validated.IsRequired("price") {
		t.Fatal("required set not resolved")
	}
	if validated.IsRequired("in_stock") {
		t.Fatal("in_stock should not be required")
	}
}

func TestValidateRejectsNonObjectRoot(t *testing.T) {
	doc := validDocument()
	doc["type"] = "array"
	_, err := schema.Validate(doc)
	if !errors.Is(err, schema.ErrDocumentInvalid) {
		t.Fatalf("expected ErrDocumentInvalid, got %v", err)
	}
}

func TestValidateRequiresProperties(t *testing.T) {
	_, err := schema.Validate(map[string]any{"type": "object"})
	if !errors.Is(err, schema.ErrDocumentInvalid) {
		t.Fatalf("expected ErrDocumentInvalid, got %v", err)
	}

	_, err = schema.Validate(map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	if !errors.Is(err, schema.ErrDocumentInvalid) {
		t.Fatalf("expected rejection of empty properties, got %v", err)
	}
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":        map[string]any{"type": "integer"},
			"Bad-Name":  map[string]any{"type": "string"},
			"email":     map[string]any{"type": "string", "format": "postal"},
			"quantity":  map[string]any{"type": "integer", "default": "many"},
			"malformed": "not-a-map",
		},
		"required": []any{"ghost", "email", "email"},
	}

	_, err := schema.Validate(doc)
	var schemaErr *schema.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	// reserved id, bad name, bad format, default mismatch, malformed
	// definition, unknown required entry, duplicate required entry
	if len(schemaErr.Issues) < 6 {
		t.Fatalf("expected all violations reported, got %d: %v", len(schemaErr.Issues), schemaErr.Issues)
	}
}

func TestValidateRejectionIsIdempotent(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "integer"},
		},
	}
	_, first := schema.Validate(doc)
	_, second := schema.Validate(doc)
	if first == nil || second == nil {
		t.Fatal("expected both attempts to fail")
	}
	if first.Error() != second.Error() {
		t.Fatalf("rejection should be stable:\n%s\n%s", first.Error(), second.Error())
	}
}

func TestValidateAllowsUnknownTypeNames(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"payload": map[string]any{"type": "decimal128"},
			"name":    map[string]any{"type": "string"},
		},
	}
	validated, err := schema.Validate(doc)
	if err != nil {
		t.Fatalf("unknown type names must degrade, not reject: %v", err)
	}
	if len(validated.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(validated.Properties))
	}
}

func TestValidateRejectsNonStringType(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": 12},
		},
	}
	_, err := schema.Validate(doc)
	if err == nil || !strings.Contains(err.Error(), "type must be a string") {
		t.Fatalf("expected non-string type rejection, got %v", err)
	}
}

func TestValidFieldName(t *testing.T) {
	valid := []string{"name", "in_stock", "a1", "snake_case_2"}
	invalid := []string{"", "1name", "Name", "bad-name", "with space"}
	for _, name := range valid {
		if !schema.ValidFieldName(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if schema.ValidFieldName(name) {
			t.Fatalf("expected %q to be invalid", name)
		}
	}
}
