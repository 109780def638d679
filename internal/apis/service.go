package apis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/schema"
	"github.com/goliatone/go-dynapi/internal/storage"
	"github.com/goliatone/go-dynapi/internal/validation"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// reservedAPINames are entity names the management surface claims for itself.
var reservedAPINames = map[string]struct{}{
	"apis":     {},
	"health":   {},
	"manage":   {},
	"validate": {},
}

// CreateRequest is the input for provisioning a new dynamic API. Options
// only override the keys the caller sent; unset keys keep the defaults.
type CreateRequest struct {
	Name    string                    `json:"name"`
	Schema  map[string]any            `json:"schema"`
	Options *registry.OptionOverrides `json:"options,omitempty"`
}

// EndpointInfo describes one live route of a dynamic API.
type EndpointInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// CreatedAPI is the result of a successful creation.
type CreatedAPI struct {
	Name      string                       `json:"name"`
	Table     string                       `json:"table"`
	Fields    []descriptor.FieldDescriptor `json:"fields"`
	Options   registry.Options             `json:"options"`
	Endpoints []EndpointInfo               `json:"endpoints"`
	CreatedAt time.Time                    `json:"created_at"`
}

// APIInfo is the inspection view of a registered API.
type APIInfo struct {
	Name      string                       `json:"name"`
	Table     string                       `json:"table"`
	Schema    map[string]any               `json:"schema"`
	Fields    []descriptor.FieldDescriptor `json:"fields"`
	Options   registry.Options             `json:"options"`
	Endpoints []EndpointInfo               `json:"endpoints"`
	CreatedAt time.Time                    `json:"created_at"`
}

// ValidationReport is the outcome of a validation-only schema check.
type ValidationReport struct {
	Valid  bool                         `json:"valid"`
	Issues []validation.ValidationIssue `json:"issues,omitempty"`
	Fields []descriptor.FieldDescriptor `json:"fields,omitempty"`
}

// RouteBinder exposes dynamic route activation to the orchestration pipeline.
// The HTTP layer implements it; a no-op binder serves headless setups.
type RouteBinder interface {
	Bind(entity string, def *registry.Definition) error
	Unbind(entity string)
}

// NoopBinder satisfies RouteBinder without serving anything.
type NoopBinder struct{}

func (NoopBinder) Bind(string, *registry.Definition) error { return nil }
func (NoopBinder) Unbind(string)                           {}

// Service orchestrates the lifecycle of dynamic APIs.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreatedAPI, error)
	Delete(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*APIInfo, error)
	List(ctx context.Context) ([]*APIInfo, error)
	ValidateSchema(document map[string]any) *ValidationReport
	Restore(ctx context.Context) error
}

type service struct {
	registry    *registry.Registry
	provisioner *storage.Provisioner
	repo        registry.DefinitionRepository
	binder      RouteBinder
	logger      interfaces.Logger

	apiBasePath  string
	pageSize     int
	maxPageSize  int
	dropOnDelete bool
	persist      bool
}

// ServiceOption configures the orchestration service.
type ServiceOption func(*service)

// WithBinder attaches the route binder invoked on create and delete.
func WithBinder(binder RouteBinder) ServiceOption {
	return func(s *service) {
		if binder != nil {
			s.binder = binder
		}
	}
}

// WithRepository sets the definitions persistence layer.
func WithRepository(repo registry.DefinitionRepository) ServiceOption {
	return func(s *service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAPIBasePath overrides the public path prefix reported in endpoint info.
func WithAPIBasePath(base string) ServiceOption {
	return func(s *service) {
		if base != "" {
			s.apiBasePath = strings.TrimSuffix(base, "/")
		}
	}
}

// WithPageSizes sets the default and maximum list page sizes.
func WithPageSizes(def, max int) ServiceOption {
	return func(s *service) {
		if def > 0 {
			s.pageSize = def
		}
		if max > 0 {
			s.maxPageSize = max
		}
	}
}

// WithDropOnDelete controls whether deleting an API also drops its table.
// The default keeps the table and its data.
func WithDropOnDelete(drop bool) ServiceOption {
	return func(s *service) {
		s.dropOnDelete = drop
	}
}

// WithoutPersistence disables the definitions ledger; the registry is then
// purely in-memory and Restore is a no-op.
func WithoutPersistence() ServiceOption {
	return func(s *service) {
		s.persist = false
	}
}

// NewService wires the orchestration service over a registry and a storage
// provisioner.
func NewService(reg *registry.Registry, provisioner *storage.Provisioner, opts ...ServiceOption) Service {
	s := &service{
		registry:    reg,
		provisioner: provisioner,
		repo:        registry.NewMemoryDefinitionRepository(),
		binder:      NoopBinder{},
		logger:      logging.NoOp(),
		apiBasePath: "/api",
		pageSize:    20,
		maxPageSize: 100,
		persist:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeName canonicalizes a requested entity name: trimmed, slugged, and
// underscored so it is usable both as a path segment and a table suffix.
func NormalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrNameRequired
	}

	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return "", &NameError{Name: raw, cause: ErrNameInvalid}
	}
	normalized = strings.ReplaceAll(normalized, "-", "_")

	if !schema.ValidFieldName(normalized) {
		return "", &NameError{Name: raw, cause: ErrNameInvalid}
	}
	if _, reserved := reservedAPINames[normalized]; reserved {
		return "", &NameError{Name: raw, cause: ErrNameReserved}
	}
	return normalized, nil
}

// Create runs the provisioning pipeline: reserve the name, validate the
// schema, derive shapes, create the table, bind routes, persist, commit.
// Each completed step has a compensating action executed in reverse when a
// later step fails, so a failed creation leaves nothing behind.
func (s *service) Create(ctx context.Context, req CreateRequest) (*CreatedAPI, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	if len(req.Schema) == 0 {
		return nil, ErrSchemaRequired
	}

	// uniqueness and capacity are checked before any other work
	if err := s.registry.Reserve(name); err != nil {
		return nil, err
	}

	created, err := s.provision(ctx, name, req)
	if err != nil {
		s.registry.Release(name)
		return nil, err
	}
	return created, nil
}

func (s *service) provision(ctx context.Context, name string, req CreateRequest) (*CreatedAPI, error) {
	validated, err := schema.Validate(req.Schema)
	if err != nil {
		return nil, err
	}

	fields := make([]descriptor.FieldDescriptor, 0, len(validated.Properties))
	for _, prop := range validated.Properties {
		fields = append(fields, descriptor.MapProperty(prop.Name, prop.Schema))
	}

	shapes, err := model.Synthesize(name, fields, validated.Required)
	if err != nil {
		return nil, err
	}

	options := s.resolveOptions(req.Options)

	table, err := s.provisioner.Provision(ctx, name, shapes.Record)
	if err != nil {
		return nil, err
	}

	def := &registry.Definition{
		ID:        uuid.New(),
		Name:      name,
		Schema:    req.Schema,
		Options:   options,
		Fields:    shapes.Record.Fields,
		Shapes:    *shapes,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.binder.Bind(name, def); err != nil {
		s.rollbackTable(ctx, name)
		return nil, err
	}

	if s.persist {
		if _, err := s.repo.Create(ctx, def); err != nil {
			s.binder.Unbind(name)
			s.rollbackTable(ctx, name)
			return nil, err
		}
	}

	if err := s.registry.Commit(def); err != nil {
		// the reservation guarantees the slot; a commit failure is a bug
		s.binder.Unbind(name)
		s.rollbackTable(ctx, name)
		return nil, err
	}

	s.logger.Info("api created", "name", name, "table", table, "fields", len(fields))

	return &CreatedAPI{
		Name:      name,
		Table:     table,
		Fields:    def.Fields,
		Options:   options,
		Endpoints: s.endpoints(name, options.Routes),
		CreatedAt: def.CreatedAt,
	}, nil
}

func (s *service) rollbackTable(ctx context.Context, name string) {
	if err := s.provisioner.Drop(ctx, name); err != nil {
		s.logger.Error("rollback drop failed", "name", name, "error", err)
	}
}

// Delete tears an API down: unregister, unbind routes, remove the persisted
// definition, and drop the table when configured to.
func (s *service) Delete(ctx context.Context, name string) error {
	normalized, err := NormalizeName(name)
	if err != nil {
		return err
	}

	def, err := s.registry.Unregister(normalized)
	if err != nil {
		return err
	}

	s.binder.Unbind(normalized)

	if s.persist {
		if err := s.repo.Delete(ctx, def); err != nil && !errors.Is(err, registry.ErrAPINotFound) {
			s.logger.Error("definition delete failed", "name", normalized, "error", err)
			return err
		}
	}

	if s.dropOnDelete {
		if err := s.provisioner.Drop(ctx, normalized); err != nil {
			return err
		}
	} else {
		s.logger.Info("table kept after delete", "name", normalized, "table", s.provisioner.TableName(normalized))
	}

	s.logger.Info("api deleted", "name", normalized)
	return nil
}

// Get returns the inspection view for one API.
func (s *service) Get(_ context.Context, name string) (*APIInfo, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	def, err := s.registry.Get(normalized)
	if err != nil {
		return nil, err
	}
	return s.toInfo(def), nil
}

// List returns the inspection view for every registered API, sorted by name.
func (s *service) List(_ context.Context) ([]*APIInfo, error) {
	defs := s.registry.List()
	out := make([]*APIInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, s.toInfo(def))
	}
	return out, nil
}

// ValidateSchema checks a schema document and reports every defect found. It
// never creates anything.
func (s *service) ValidateSchema(document map[string]any) *ValidationReport {
	if len(document) == 0 {
		return &ValidationReport{
			Issues: []validation.ValidationIssue{{Location: "#", Message: ErrSchemaRequired.Error()}},
		}
	}

	validated, err := schema.Validate(document)
	if err != nil {
		var schemaErr *schema.SchemaError
		if errors.As(err, &schemaErr) {
			return &ValidationReport{Issues: schemaErr.Issues}
		}
		return &ValidationReport{Issues: validation.Issues(err)}
	}

	fields := make([]descriptor.FieldDescriptor, 0, len(validated.Properties))
	for _, prop := range validated.Properties {
		fields = append(fields, descriptor.MapProperty(prop.Name, prop.Schema))
	}
	return &ValidationReport{Valid: true, Fields: fields}
}

// Restore reloads persisted definitions into the registry and rebinds their
// routes. Tables already exist; only in-process state is rebuilt.
func (s *service) Restore(ctx context.Context) error {
	if !s.persist {
		return nil
	}

	defs, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := s.registry.Register(def); err != nil {
			if errors.Is(err, registry.ErrAPIExists) {
				continue
			}
			return err
		}
		if err := s.binder.Bind(def.Name, def); err != nil {
			return err
		}
		s.logger.Info("api restored", "name", def.Name)
	}
	return nil
}

func (s *service) resolveOptions(requested *registry.OptionOverrides) registry.Options {
	options := requested.Apply(registry.DefaultOptions(s.pageSize))
	if options.Pagination.Size <= 0 {
		options.Pagination.Size = s.pageSize
	}
	if options.Pagination.Size > s.maxPageSize {
		options.Pagination.Size = s.maxPageSize
	}
	return options
}

func (s *service) toInfo(def *registry.Definition) *APIInfo {
	return &APIInfo{
		Name:      def.Name,
		Table:     s.provisioner.TableName(def.Name),
		Schema:    def.Schema,
		Fields:    def.Fields,
		Options:   def.Options,
		Endpoints: s.endpoints(def.Name, def.Options.Routes),
		CreatedAt: def.CreatedAt,
	}
}

func (s *service) endpoints(name string, flags registry.RouteFlags) []EndpointInfo {
	collection := fmt.Sprintf("%s/%s", s.apiBasePath, name)
	item := collection + "/{id}"

	out := []EndpointInfo{}
	if flags.GetAll {
		out = append(out, EndpointInfo{Method: "GET", Path: collection, Description: "list records"})
	}
	if flags.GetOne {
		out = append(out, EndpointInfo{Method: "GET", Path: item, Description: "fetch one record"})
	}
	if flags.Create {
		out = append(out, EndpointInfo{Method: "POST", Path: collection, Description: "create a record"})
	}
	if flags.Update {
		out = append(out, EndpointInfo{Method: "PUT", Path: item, Description: "update a record"})
	}
	if flags.DeleteOne {
		out = append(out, EndpointInfo{Method: "DELETE", Path: item, Description: "delete one record"})
	}
	if flags.DeleteAll {
		out = append(out, EndpointInfo{Method: "DELETE", Path: collection, Description: "delete every record"})
	}
	return out
}
