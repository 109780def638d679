package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/storage"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// Binder activates and deactivates the CRUD routes of dynamic APIs. The mux
// patterns are mounted once as wildcards; every request resolves the binding
// and the registry entry fresh, so a deleted API turns into NotFound on the
// next request instead of serving a dropped table.
type Binder struct {
	mu       sync.RWMutex
	bindings map[string]registry.RouteFlags

	registry    *registry.Registry
	provisioner *storage.Provisioner
	rows        *storage.RowStore
	logger      interfaces.Logger

	basePath        string
	defaultPageSize int
	maxPageSize     int
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithAPIBasePath overrides the public path prefix (defaults to "/api").
func WithAPIBasePath(base string) BinderOption {
	return func(b *Binder) {
		if trimmed := strings.TrimSpace(base); trimmed != "" {
			b.basePath = trimmed
		}
	}
}

// WithPageSizes sets the default and maximum list page sizes.
func WithPageSizes(def, max int) BinderOption {
	return func(b *Binder) {
		if def > 0 {
			b.defaultPageSize = def
		}
		if max > 0 {
			b.maxPageSize = max
		}
	}
}

// WithBinderLogger attaches a logger.
func WithBinderLogger(logger interfaces.Logger) BinderOption {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBinder constructs a Binder over the registry and row store.
func NewBinder(reg *registry.Registry, provisioner *storage.Provisioner, rows *storage.RowStore, opts ...BinderOption) *Binder {
	b := &Binder{
		bindings:        make(map[string]registry.RouteFlags),
		registry:        reg,
		provisioner:     provisioner,
		rows:            rows,
		logger:          logging.NoOp(),
		basePath:        "/api",
		defaultPageSize: 20,
		maxPageSize:     100,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind activates the entity's routes. The verb table swap is a single map
// write, so a binding is never observable half-applied.
func (b *Binder) Bind(entity string, def *registry.Definition) error {
	if def == nil {
		return registry.ErrNameRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.bindings[entity]; exists {
		return &registry.ConflictError{Name: entity}
	}
	b.bindings[entity] = def.Options.Routes
	b.logger.Debug("routes bound", "entity", entity, "verbs", def.Options.Routes.Enabled())
	return nil
}

// Unbind deactivates the entity's routes. Unbinding an unbound entity is a
// no-op.
func (b *Binder) Unbind(entity string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bindings, entity)
}

// Bound reports whether the entity currently has active routes.
func (b *Binder) Bound(entity string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.bindings[entity]
	return ok
}

// Register mounts the wildcard CRUD patterns on the mux.
func (b *Binder) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}

	base := joinPath(b.basePath, "")
	collection := base + "/{entity}"
	item := collection + "/{id}"

	mux.HandleFunc("GET "+collection, b.handleList)
	mux.HandleFunc("POST "+collection, b.handleCreate)
	mux.HandleFunc("DELETE "+collection, b.handleDeleteAll)
	mux.HandleFunc("GET "+item, b.handleGetOne)
	mux.HandleFunc("PUT "+item, b.handleUpdate)
	mux.HandleFunc("DELETE "+item, b.handleDeleteOne)

	return nil
}

type verbSelector func(registry.RouteFlags) bool

// resolve looks the entity up in the verb table and the registry. Both
// lookups happen per request; nothing is cached across requests.
func (b *Binder) resolve(entity string, enabled verbSelector) (*registry.Definition, int, error) {
	b.mu.RLock()
	flags, bound := b.bindings[entity]
	b.mu.RUnlock()

	if !bound {
		return nil, http.StatusNotFound, &registry.NotFoundError{Name: entity}
	}
	if !enabled(flags) {
		return nil, http.StatusMethodNotAllowed, nil
	}

	def, err := b.registry.Get(entity)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	return def, http.StatusOK, nil
}

func (b *Binder) handleList(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.GetAll })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	limit := def.Options.Pagination.Size
	if limit <= 0 {
		limit = b.defaultPageSize
	}
	if !def.Options.Pagination.Enabled {
		limit = b.maxPageSize
	}
	limit = min(parseIntQuery(r.URL.Query().Get("limit"), limit), b.maxPageSize)
	offset := parseIntQuery(r.URL.Query().Get("offset"), 0)

	table := b.provisioner.TableName(entity)
	items, total, err := b.rows.List(r.Context(), table, def.Shapes.Record, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (b *Binder) handleGetOne(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.GetOne })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid record id"})
		return
	}

	row, err := b.rows.Get(r.Context(), b.provisioner.TableName(entity), def.Shapes.Record, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (b *Binder) handleCreate(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.Create })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	payload = model.ApplyDefaults(def.Shapes.Create, payload)
	if err := model.ValidateCreate(def.Shapes.Create, payload); err != nil {
		writeError(w, err)
		return
	}

	row, err := b.rows.Insert(r.Context(), b.provisioner.TableName(entity), def.Shapes.Record, coercePayload(def.Shapes.Record, payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (b *Binder) handleUpdate(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.Update })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid record id"})
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	if err := model.ValidateUpdate(def.Shapes.Update, payload); err != nil {
		writeError(w, err)
		return
	}

	row, err := b.rows.Update(r.Context(), b.provisioner.TableName(entity), def.Shapes.Record, id, coercePayload(def.Shapes.Record, payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (b *Binder) handleDeleteOne(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.DeleteOne })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid record id"})
		return
	}

	if err := b.rows.Delete(r.Context(), b.provisioner.TableName(entity), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (b *Binder) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	def, status, err := b.resolve(entity, func(f registry.RouteFlags) bool { return f.DeleteAll })
	if def == nil {
		b.reject(w, status, err)
		return
	}

	b.logger.Warn("bulk delete requested", "entity", entity)

	removed, err := b.rows.DeleteAll(r.Context(), b.provisioner.TableName(entity))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": removed})
}

func (b *Binder) reject(w http.ResponseWriter, status int, err error) {
	if status == http.StatusMethodNotAllowed {
		writeJSON(w, status, errorResponse{Error: "method_not_allowed", Message: "route disabled for this api"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, errorResponse{Error: "not_found"})
}

// coercePayload converts json.Number values into the Go numeric types the
// query builder can bind. Everything else passes through untouched.
func coercePayload(record model.Shape, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for name, value := range payload {
		field, ok := record.Field(name)
		if !ok {
			out[name] = coerceNumber(value)
			continue
		}
		switch v := value.(type) {
		case json.Number:
			if field.Kind == descriptor.KindInteger {
				if parsed, err := v.Int64(); err == nil {
					out[name] = parsed
					continue
				}
			}
			if parsed, err := v.Float64(); err == nil {
				out[name] = parsed
				continue
			}
			out[name] = v.String()
		default:
			out[name] = coerceNumber(value)
		}
	}
	return out
}

// coerceNumber walks nested containers so JSON columns serialize cleanly.
func coerceNumber(value any) any {
	switch v := value.(type) {
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return parsed
		}
		if parsed, err := v.Float64(); err == nil {
			return parsed
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = coerceNumber(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = coerceNumber(item)
		}
		return out
	default:
		return value
	}
}
