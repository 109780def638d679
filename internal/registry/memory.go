package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryDefinitionRepository is an in-memory DefinitionRepository for
// scaffolding and tests, and the persistence layer of record when definition
// persistence is disabled.
type MemoryDefinitionRepository struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*Definition
	nameIndex map[string]uuid.UUID
}

// NewMemoryDefinitionRepository creates an empty in-memory repository.
func NewMemoryDefinitionRepository() *MemoryDefinitionRepository {
	return &MemoryDefinitionRepository{
		records:   make(map[uuid.UUID]*Definition),
		nameIndex: make(map[string]uuid.UUID),
	}
}

// Create stores the supplied definition.
func (m *MemoryDefinitionRepository) Create(_ context.Context, def *Definition) (*Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nameIndex[def.Name]; exists {
		return nil, &ConflictError{Name: def.Name, cause: ErrAPIExists}
	}
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	copied := cloneDefinition(def)
	m.records[copied.ID] = copied
	m.nameIndex[copied.Name] = copied.ID
	return cloneDefinition(copied), nil
}

// GetByName resolves a definition by API name.
func (m *MemoryDefinitionRepository) GetByName(_ context.Context, name string) (*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.nameIndex[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return cloneDefinition(m.records[id]), nil
}

// List returns every stored definition sorted by name.
func (m *MemoryDefinitionRepository) List(_ context.Context) ([]*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Definition, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, cloneDefinition(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a stored definition.
func (m *MemoryDefinitionRepository) Delete(_ context.Context, def *Definition) error {
	if def == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.nameIndex[def.Name]
	if !ok {
		return &NotFoundError{Name: def.Name}
	}
	delete(m.records, id)
	delete(m.nameIndex, def.Name)
	return nil
}

func cloneDefinition(def *Definition) *Definition {
	if def == nil {
		return nil
	}
	copied := *def
	return &copied
}
