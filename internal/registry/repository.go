package registry

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefinitionRepository persists registered definitions so the ledger can be
// restored across process restarts.
type DefinitionRepository interface {
	Create(ctx context.Context, def *Definition) (*Definition, error)
	GetByName(ctx context.Context, name string) (*Definition, error)
	List(ctx context.Context) ([]*Definition, error)
	Delete(ctx context.Context, def *Definition) error
}

// NewDefinitionRepository builds the generic bun-backed repository for
// definitions, keyed by id with name as the secondary identifier.
func NewDefinitionRepository(db *bun.DB) repository.Repository[*Definition] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Definition]{
		NewRecord: func() *Definition { return &Definition{} },
		GetID: func(d *Definition) uuid.UUID {
			return d.ID
		},
		SetID: func(d *Definition, id uuid.UUID) {
			d.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(d *Definition) string {
			return d.Name
		},
	})
}
