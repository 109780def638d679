package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/schema"
)

const (
	codeMessageInvalid = "API_MESSAGE_INVALID"
	codeAPIConflict    = "API_CONFLICT"
	codeAPINotFound    = "API_NOT_FOUND"
	codeSchemaRejected = "API_SCHEMA_REJECTED"
	codeCommandAborted = "API_COMMAND_ABORTED"
	codeCommandFailed  = "API_COMMAND_FAILED"
)

// classifyMessageError tags message-level validation failures before the
// lifecycle service ever runs.
func classifyMessageError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "api command message rejected").
		WithTextCode(codeMessageInvalid)
}

// classifyLifecycleError maps an API lifecycle failure to the category a bus
// consumer can branch on without unwrapping internal error types: conflicts
// for name or capacity clashes, not-found for missing APIs, validation for
// rejected definitions, command for everything else.
func classifyLifecycleError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "api command aborted").
			WithTextCode(codeCommandAborted)
	case errors.Is(err, registry.ErrAPIExists), errors.Is(err, registry.ErrRegistryFull):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "api name or capacity unavailable").
			WithTextCode(codeAPIConflict)
	case errors.Is(err, registry.ErrAPINotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "api is not registered").
			WithTextCode(codeAPINotFound)
	case errors.Is(err, schema.ErrDocumentInvalid),
		errors.Is(err, apis.ErrNameRequired),
		errors.Is(err, apis.ErrNameInvalid),
		errors.Is(err, apis.ErrNameReserved),
		errors.Is(err, apis.ErrSchemaRequired):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "api definition rejected").
			WithTextCode(codeSchemaRejected)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "api command failed").
			WithTextCode(codeCommandFailed)
	}
}
