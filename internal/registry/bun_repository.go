package registry

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"
)

// BunDefinitionRepository persists definitions through go-repository-bun.
type BunDefinitionRepository struct {
	repo repository.Repository[*Definition]
}

// NewBunDefinitionRepository constructs the repository without caching.
func NewBunDefinitionRepository(db *bun.DB) *BunDefinitionRepository {
	return NewBunDefinitionRepositoryWithCache(db, nil, nil)
}

// NewBunDefinitionRepositoryWithCache constructs the repository with an
// optional read-through cache.
func NewBunDefinitionRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunDefinitionRepository {
	base := NewDefinitionRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunDefinitionRepository{repo: wrapped}
}

func (r *BunDefinitionRepository) Create(ctx context.Context, def *Definition) (*Definition, error) {
	created, err := r.repo.Create(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("definition repository error: %w", err)
	}
	return created, nil
}

func (r *BunDefinitionRepository) GetByName(ctx context.Context, name string) (*Definition, error) {
	result, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, name)
	}
	return result, nil
}

func (r *BunDefinitionRepository) List(ctx context.Context) ([]*Definition, error) {
	records, _, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("definition repository error: %w", err)
	}
	return records, nil
}

func (r *BunDefinitionRepository) Delete(ctx context.Context, def *Definition) error {
	if def == nil {
		return nil
	}
	if err := r.repo.Delete(ctx, def); err != nil {
		return mapRepositoryError(err, def.Name)
	}
	return nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Name: key}
	}
	return fmt.Errorf("definition repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
