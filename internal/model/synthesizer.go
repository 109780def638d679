package model

import (
	"strings"

	"github.com/goliatone/go-dynapi/internal/descriptor"
)

// Synthesize derives the three runtime shapes for an entity from its mapped
// field descriptors and required set:
//
//   - Record: a server-assigned identity field plus every schema field.
//     Required fields are non-nullable, others nullable with their declared
//     default or null.
//   - Create: every field except identity; required fields mandatory,
//     others optional with declared default.
//   - Update: every field except identity; everything optional (partial
//     update semantics).
//
// Two fields whose names collide case-insensitively abort synthesis before
// any storage side effect.
func Synthesize(entity string, fields []descriptor.FieldDescriptor, required []string) (*Shapes, error) {
	requiredSet := make(map[string]bool, len(required))
	for _, name := range required {
		requiredSet[name] = true
	}

	seen := map[string]string{strings.ToLower(IdentityField): IdentityField}
	recordFields := make([]descriptor.FieldDescriptor, 0, len(fields)+1)
	createFields := make([]descriptor.FieldDescriptor, 0, len(fields))
	updateFields := make([]descriptor.FieldDescriptor, 0, len(fields))

	recordFields = append(recordFields, identityDescriptor())

	for _, field := range fields {
		normalized := strings.ToLower(strings.TrimSpace(field.Name))
		if other, dup := seen[normalized]; dup {
			return nil, &NameCollisionError{Entity: entity, Name: field.Name, Other: other}
		}
		seen[normalized] = field.Name

		isRequired := requiredSet[field.Name]

		record := field
		record.Required = isRequired
		record.Nullable = !isRequired
		recordFields = append(recordFields, record)

		create := field
		create.Required = isRequired
		create.Nullable = !isRequired
		createFields = append(createFields, create)

		update := field
		update.Required = false
		update.Nullable = true
		update.Default = nil
		updateFields = append(updateFields, update)
	}

	return &Shapes{
		Record: Shape{Entity: entity, Fields: recordFields},
		Create: Shape{Entity: entity, Fields: createFields},
		Update: Shape{Entity: entity, Fields: updateFields},
	}, nil
}

func identityDescriptor() descriptor.FieldDescriptor {
	return descriptor.FieldDescriptor{
		Name:     IdentityField,
		Kind:     descriptor.KindInteger,
		Nullable: false,
		Required: false,
	}
}
