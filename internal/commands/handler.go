package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

const defaultHandlerTimeout = 30 * time.Second

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs one API lifecycle command: it validates the message, bounds
// the execution time, and classifies whatever the service returns so bus
// consumers see categorised errors instead of internal types.
type Handler[T command.Message] struct {
	run     command.CommandFunc[T]
	logger  interfaces.Logger
	timeout time.Duration
	action  string
}

// NewHandler builds a handler satisfying go-command's Commander interface
// around the given lifecycle function.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		run:     fn,
		logger:  logging.NoOp(),
		timeout: defaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute implements command.Commander[T].
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return classifyMessageError(err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return classifyLifecycleError(err)
	}

	logger := logging.WithFields(h.logger, map[string]any{
		"command": command.GetMessageType(msg),
		"action":  h.action,
	})

	if err := h.run(ctx, msg); err != nil {
		wrapped := classifyLifecycleError(err)
		logger.Error("api command failed", "error", wrapped)
		return wrapped
	}

	logger.Info("api command applied")
	return nil
}

// WithTimeout overrides the default execution timeout. Zero or negative
// disables the bound entirely.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger == nil {
			h.logger = logging.NoOp()
			return
		}
		h.logger = logger
	}
}

// WithAction sets the lifecycle action name emitted with every log entry.
func WithAction[T command.Message](action string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.action = action
	}
}
