package commands

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

const deleteAPIMessageType = "dynapi.api.delete"

// DeleteAPICommand requests teardown of a dynamic API.
type DeleteAPICommand struct {
	Name string `json:"name"`
}

// Type implements command.Message.
func (DeleteAPICommand) Type() string { return deleteAPIMessageType }

// Validate ensures the message names an API.
func (m DeleteAPICommand) Validate() error {
	errs := validation.Errors{}
	if err := validation.Validate(m.Name, validation.Required); err != nil {
		errs["name"] = validation.NewError("dynapi.api.delete.name_required", "name is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DeleteAPIHandler tears APIs down via the apis service.
type DeleteAPIHandler struct {
	inner *Handler[DeleteAPICommand]
}

// NewDeleteAPIHandler constructs a handler wired to the provided service.
func NewDeleteAPIHandler(service apis.Service, logger interfaces.Logger, opts ...HandlerOption[DeleteAPICommand]) *DeleteAPIHandler {
	exec := func(ctx context.Context, msg DeleteAPICommand) error {
		return service.Delete(ctx, msg.Name)
	}

	handlerOpts := []HandlerOption[DeleteAPICommand]{
		WithLogger[DeleteAPICommand](logger),
		WithAction[DeleteAPICommand]("api.delete"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeleteAPIHandler{
		inner: NewHandler[DeleteAPICommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DeleteAPICommand].Execute.
func (h *DeleteAPIHandler) Execute(ctx context.Context, msg DeleteAPICommand) error {
	return h.inner.Execute(ctx, msg)
}
