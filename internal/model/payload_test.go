package model_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/internal/validation"
)

func productShapes(t *testing.T) *model.Shapes {
	t.Helper()
	shapes, err := model.Synthesize("products", productFields(), []string{"name", "price"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	return shapes
}

func TestValidateCreateAcceptsValidPayload(t *testing.T) {
	shapes := productShapes(t)
	err := model.ValidateCreate(shapes.Create, map[string]any{
		"name":  "Laptop",
		"price": 999.99,
	})
	if err != nil {
		t.Fatalf("expected valid payload: %v", err)
	}
}

func TestValidateCreateRejectsMissingRequiredAndUnknown(t *testing.T) {
	shapes := productShapes(t)
	err := model.ValidateCreate(shapes.Create, map[string]any{
		"price":  "free",
		"rogue":  1,
		"rogue2": 2,
	})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if issues := validation.Issues(err); len(issues) < 3 {
		t.Fatalf("expected accumulated issues, got %v", issues)
	}
}

func TestValidateCreateChecksEmailShape(t *testing.T) {
	fields := []descriptor.FieldDescriptor{
		{Name: "contact", Kind: descriptor.KindEmail},
	}
	shapes, err := model.Synthesize("customers", fields, []string{"contact"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if err := model.ValidateCreate(shapes.Create, map[string]any{"contact": "a@example.com"}); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	err = model.ValidateCreate(shapes.Create, map[string]any{"contact": "not-an-email"})
	if err == nil {
		t.Fatal("expected email shape rejection")
	}
}

func TestValidateUpdateAllowsPartialPayloads(t *testing.T) {
	shapes := productShapes(t)
	if err := model.ValidateUpdate(shapes.Update, map[string]any{"price": 10.5}); err != nil {
		t.Fatalf("partial update rejected: %v", err)
	}
	if err := model.ValidateUpdate(shapes.Update, map[string]any{}); err == nil {
		t.Fatal("empty update payload must be rejected")
	}
	if err := model.ValidateUpdate(shapes.Update, map[string]any{"rogue": 1}); err == nil {
		t.Fatal("unknown update fields must be rejected")
	}
}

func TestApplyDefaultsFillsAbsentOptionals(t *testing.T) {
	shapes := productShapes(t)
	payload := model.ApplyDefaults(shapes.Create, map[string]any{
		"name":  "Laptop",
		"price": 999.99,
	})
	if payload["in_stock"] != true {
		t.Fatalf("expected default true for in_stock, got %v", payload["in_stock"])
	}

	// Explicit values win over defaults.
	payload = model.ApplyDefaults(shapes.Create, map[string]any{
		"name":     "Laptop",
		"price":    999.99,
		"in_stock": false,
	})
	if payload["in_stock"] != false {
		t.Fatalf("explicit value should win, got %v", payload["in_stock"])
	}
}

func TestShapeJSONSchemaRendersConstraints(t *testing.T) {
	maxLen := 80
	min := 0.0
	fields := []descriptor.FieldDescriptor{
		{Name: "title", Kind: descriptor.KindString, Constraints: &descriptor.Constraints{MaxLength: &maxLen}},
		{Name: "price", Kind: descriptor.KindNumber, Constraints: &descriptor.Constraints{Minimum: &min}},
		{Name: "tags", Kind: descriptor.KindArray, ArrayItemKind: descriptor.KindString},
	}
	shapes, err := model.Synthesize("items", fields, []string{"title"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if err := model.ValidateCreate(shapes.Create, map[string]any{
		"title": "ok",
		"price": -1,
	}); err == nil {
		t.Fatal("minimum constraint should reject negative price")
	}
	if err := model.ValidateCreate(shapes.Create, map[string]any{
		"title": "ok",
		"tags":  []any{"a", 1},
	}); err == nil {
		t.Fatal("array item type should be enforced")
	}
	if err := model.ValidateCreate(shapes.Create, map[string]any{
		"title": "ok",
		"tags":  []any{"a", "b"},
	}); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
}
