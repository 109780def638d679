package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// ManagementAPI registers the endpoints that create, inspect, and remove
// dynamic APIs.
type ManagementAPI struct {
	basePath string
	service  apis.Service
	registry *registry.Registry
	logger   interfaces.Logger
}

// ManagementOption mutates the ManagementAPI configuration.
type ManagementOption func(*ManagementAPI)

// NewManagementAPI constructs a ManagementAPI instance.
func NewManagementAPI(opts ...ManagementOption) *ManagementAPI {
	api := &ManagementAPI{
		basePath: "/manage",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithManagementBasePath overrides the base path (defaults to "/manage").
func WithManagementBasePath(path string) ManagementOption {
	return func(api *ManagementAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithService wires the orchestration service.
func WithService(service apis.Service) ManagementOption {
	return func(api *ManagementAPI) {
		if api != nil {
			api.service = service
		}
	}
}

// WithRegistry wires the registry consulted for capacity reporting.
func WithRegistry(reg *registry.Registry) ManagementOption {
	return func(api *ManagementAPI) {
		if api != nil {
			api.registry = reg
		}
	}
}

// WithManagementLogger attaches a logger.
func WithManagementLogger(logger interfaces.Logger) ManagementOption {
	return func(api *ManagementAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register mounts the management routes on the mux.
func (api *ManagementAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: management api is nil")
	}

	base := joinPath(api.basePath, "")
	root := joinPath(base, "apis")

	mux.HandleFunc("GET "+base, api.handleInfo)
	mux.HandleFunc("GET "+joinPath(base, "health"), api.handleHealth)
	mux.HandleFunc("GET "+root, api.handleList)
	mux.HandleFunc("POST "+root, api.handleCreate)
	mux.HandleFunc("POST "+root+"/validate", api.handleValidate)
	mux.HandleFunc("GET "+root+"/{name}", api.handleGet)
	mux.HandleFunc("DELETE "+root+"/{name}", api.handleDelete)

	return nil
}

func (api *ManagementAPI) handleInfo(w http.ResponseWriter, _ *http.Request) {
	base := joinPath(api.basePath, "")
	root := joinPath(base, "apis")

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "dynapi",
		"endpoints": []map[string]string{
			{"method": "GET", "path": root, "description": "list registered apis"},
			{"method": "POST", "path": root, "description": "create an api"},
			{"method": "POST", "path": root + "/validate", "description": "validate a schema document"},
			{"method": "GET", "path": root + "/{name}", "description": "inspect an api"},
			{"method": "DELETE", "path": root + "/{name}", "description": "delete an api"},
			{"method": "GET", "path": joinPath(base, "health"), "description": "health probe"},
		},
	})
}

func (api *ManagementAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if api.registry != nil {
		payload["apis"] = api.registry.Len()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (api *ManagementAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var req apis.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	created, err := api.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	api.logger.Info("api created", "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func (api *ManagementAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	infos, err := api.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	payload := map[string]any{
		"apis":  infos,
		"total": len(infos),
	}
	if api.registry != nil {
		payload["max_allowed"] = api.registry.Capacity()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (api *ManagementAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	info, err := api.service.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (api *ManagementAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	name := r.PathValue("name")
	if err := api.service.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	api.logger.Info("api deleted", "name", name)
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "deleted": true})
}

func (api *ManagementAPI) handleValidate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload struct {
		Schema map[string]any `json:"schema"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	writeJSON(w, http.StatusOK, api.service.ValidateSchema(payload.Schema))
}
