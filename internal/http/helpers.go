package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/schema"
	"github.com/goliatone/go-dynapi/internal/storage"
	"github.com/goliatone/go-dynapi/internal/validation"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// mapError translates the error taxonomy into HTTP statuses. Driver and
// storage details never reach the response body; only a generic message does.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var registryNotFound *registry.NotFoundError
	if errors.As(err, &registryNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: registryNotFound.Error(),
		}
	}

	var rowNotFound *storage.RowNotFoundError
	if errors.As(err, &rowNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "record not found",
		}
	}

	if errors.Is(err, registry.ErrAPIExists) ||
		errors.Is(err, registry.ErrRegistryFull) ||
		errors.Is(err, storage.ErrTableExists) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, schema.ErrDocumentInvalid) ||
		errors.Is(err, model.ErrNameCollision) ||
		errors.Is(err, validation.ErrSchemaInvalid) ||
		errors.Is(err, validation.ErrSchemaValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  issuesFrom(err),
		}
	}

	if errors.Is(err, apis.ErrNameRequired) ||
		errors.Is(err, apis.ErrNameInvalid) ||
		errors.Is(err, apis.ErrNameReserved) ||
		errors.Is(err, apis.ErrSchemaRequired) ||
		errors.Is(err, registry.ErrNameRequired) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	if errors.Is(err, storage.ErrProvisionFailed) {
		return http.StatusInternalServerError, errorResponse{
			Error:   "provision_failed",
			Message: "table provisioning failed",
		}
	}

	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusInternalServerError, errorResponse{
			Error:   "storage_error",
			Message: "storage operation failed",
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func issuesFrom(err error) []validation.ValidationIssue {
	var schemaErr *schema.SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr.Issues
	}
	return validation.Issues(err)
}

func parseID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("id required")
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

func parseIntQuery(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
