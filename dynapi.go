// Package dynapi turns JSON Schema documents into live CRUD HTTP APIs at
// runtime: each registered schema gets a provisioned table, derived data
// shapes, and a set of routes served until the API is deleted.
package dynapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-dynapi/internal/apis"
	dynhttp "github.com/goliatone/go-dynapi/internal/http"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/logging/gologger"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/storage"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// Service exports the orchestration contract for consumers of the module.
type Service = apis.Service

// CreateRequest exports the creation payload.
type CreateRequest = apis.CreateRequest

// CreatedAPI exports the creation result.
type CreatedAPI = apis.CreatedAPI

// APIInfo exports the inspection view.
type APIInfo = apis.APIInfo

// ValidationReport exports the validation-only result.
type ValidationReport = apis.ValidationReport

// Options exports the per-API option set.
type Options = registry.Options

// OptionOverrides exports the request-level option patch applied over the
// option defaults at creation time.
type OptionOverrides = registry.OptionOverrides

// RouteFlags exports the per-verb toggles.
type RouteFlags = registry.RouteFlags

// Module is the top level runtime facade: it owns the registry, the storage
// layer, the orchestration service, and the HTTP surfaces.
type Module struct {
	config   Config
	db       *bun.DB
	provider interfaces.LoggerProvider

	registry    *registry.Registry
	provisioner *storage.Provisioner
	rows        *storage.RowStore
	binder      *dynhttp.Binder
	service     apis.Service
	management  *dynhttp.ManagementAPI
	repo        registry.DefinitionRepository
}

// Option overrides a Module dependency.
type Option func(*Module)

// WithLoggerProvider replaces the logging provider built from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		if provider != nil {
			m.provider = provider
		}
	}
}

// WithDefinitionRepository replaces the definitions persistence layer.
func WithDefinitionRepository(repo registry.DefinitionRepository) Option {
	return func(m *Module) {
		if repo != nil {
			m.repo = repo
		}
	}
}

// New constructs a module over the provided database handle.
func New(cfg Config, db *bun.DB, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("dynapi: database handle is required")
	}

	m := &Module{config: cfg, db: db}
	for _, opt := range opts {
		opt(m)
	}

	if m.provider == nil {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
		if err != nil {
			return nil, err
		}
		m.provider = provider
	}

	m.registry = registry.New(cfg.API.MaxAPIs)
	m.provisioner = storage.NewProvisioner(db,
		storage.WithTablePrefix(cfg.Storage.TablePrefix),
		storage.WithProvisionerLogger(logging.StorageLogger(m.provider)),
	)
	m.rows = storage.NewRowStore(db,
		storage.WithRowStoreLogger(logging.StorageLogger(m.provider)),
	)
	m.binder = dynhttp.NewBinder(m.registry, m.provisioner, m.rows,
		dynhttp.WithAPIBasePath(cfg.API.BasePath),
		dynhttp.WithPageSizes(cfg.Pagination.DefaultSize, cfg.Pagination.MaxSize),
		dynhttp.WithBinderLogger(logging.HTTPLogger(m.provider)),
	)

	if m.repo == nil && cfg.Storage.PersistDefinitions {
		if cfg.Storage.CacheDefinitions {
			cacheSvc, err := cache.NewCacheService(cache.DefaultConfig())
			if err != nil {
				return nil, fmt.Errorf("dynapi: definitions cache: %w", err)
			}
			m.repo = registry.NewBunDefinitionRepositoryWithCache(db, cacheSvc, cache.NewDefaultKeySerializer())
		} else {
			m.repo = registry.NewBunDefinitionRepository(db)
		}
	}

	serviceOpts := []apis.ServiceOption{
		apis.WithBinder(m.binder),
		apis.WithLogger(logging.RegistryLogger(m.provider)),
		apis.WithAPIBasePath(cfg.API.BasePath),
		apis.WithPageSizes(cfg.Pagination.DefaultSize, cfg.Pagination.MaxSize),
		apis.WithDropOnDelete(cfg.Storage.DropOnDelete),
	}
	if m.repo != nil {
		serviceOpts = append(serviceOpts, apis.WithRepository(m.repo))
	}
	if !cfg.Storage.PersistDefinitions {
		serviceOpts = append(serviceOpts, apis.WithoutPersistence())
	}
	m.service = apis.NewService(m.registry, m.provisioner, serviceOpts...)

	m.management = dynhttp.NewManagementAPI(
		dynhttp.WithManagementBasePath(cfg.Manage.BasePath),
		dynhttp.WithService(m.service),
		dynhttp.WithRegistry(m.registry),
		dynhttp.WithManagementLogger(logging.HTTPLogger(m.provider)),
	)

	return m, nil
}

// Start prepares persistence and reloads previously registered APIs. It must
// run before the module serves traffic.
func (m *Module) Start(ctx context.Context) error {
	if m.config.Storage.PersistDefinitions {
		if _, err := m.db.NewCreateTable().
			Model((*registry.Definition)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("dynapi: prepare definitions table: %w", err)
		}
	}
	return m.service.Restore(ctx)
}

// Register mounts the management endpoints and the dynamic dispatch routes.
func (m *Module) Register(mux *http.ServeMux) error {
	if err := m.management.Register(mux); err != nil {
		return err
	}
	return m.binder.Register(mux)
}

// Service exposes the orchestration service for host applications that drive
// the module programmatically or through commands.
func (m *Module) Service() apis.Service {
	return m.service
}

// Registry exposes the live API ledger.
func (m *Module) Registry() *registry.Registry {
	return m.registry
}

// Logger returns a module logger from the configured provider.
func (m *Module) Logger(name string) interfaces.Logger {
	return logging.ModuleLogger(m.provider, name)
}
