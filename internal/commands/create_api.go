package commands

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

const createAPIMessageType = "dynapi.api.create"

// CreateAPICommand requests provisioning of a new dynamic API. Options
// override only the keys the message carries.
type CreateAPICommand struct {
	Name    string                    `json:"name"`
	Schema  map[string]any            `json:"schema"`
	Options *registry.OptionOverrides `json:"options,omitempty"`
}

// Type implements command.Message.
func (CreateAPICommand) Type() string { return createAPIMessageType }

// Validate ensures the message carries the required fields before reaching
// handlers. Name and schema get their deep checks in the apis service; this
// gate only rejects obviously empty messages.
func (m CreateAPICommand) Validate() error {
	errs := validation.Errors{}
	if err := validation.Validate(m.Name, validation.Required); err != nil {
		errs["name"] = validation.NewError("dynapi.api.create.name_required", "name is required")
	}
	if len(m.Schema) == 0 {
		errs["schema"] = validation.NewError("dynapi.api.create.schema_required", "schema is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CreateAPIHandler provisions APIs via the apis service using the shared
// handler foundation.
type CreateAPIHandler struct {
	inner *Handler[CreateAPICommand]
}

// NewCreateAPIHandler constructs a handler wired to the provided service.
func NewCreateAPIHandler(service apis.Service, logger interfaces.Logger, opts ...HandlerOption[CreateAPICommand]) *CreateAPIHandler {
	exec := func(ctx context.Context, msg CreateAPICommand) error {
		_, err := service.Create(ctx, apis.CreateRequest{
			Name:    msg.Name,
			Schema:  msg.Schema,
			Options: msg.Options,
		})
		return err
	}

	handlerOpts := []HandlerOption[CreateAPICommand]{
		WithLogger[CreateAPICommand](logger),
		WithAction[CreateAPICommand]("api.create"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateAPIHandler{
		inner: NewHandler[CreateAPICommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateAPICommand].Execute.
func (h *CreateAPIHandler) Execute(ctx context.Context, msg CreateAPICommand) error {
	return h.inner.Execute(ctx, msg)
}
