package handlers

import (
	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/registry"
	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
	"resty.dev/v3"
)

// Registry maps operation types to handlers. It is safe for concurrent use;
// registrations are expected before a run starts.
type Registry struct {
	handlers registry.Registry[Handler]
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: registry.New[Handler](),
		logger:   logging.GetLogger("handlers"),
	}
}

// DefaultOptions configures the built-in handlers.
type DefaultOptions struct {
	Runner *shell.Runner
	HTTP   *resty.Client

	// KubectlBinary overrides the kubectl executable.
	KubectlBinary string
}

// NewDefaultRegistry creates a registry with every built-in handler installed.
func NewDefaultRegistry() *Registry {
	return NewDefaultRegistryWithOptions(DefaultOptions{})
}

// NewDefaultRegistryWithOptions is NewDefaultRegistry with explicit dependencies.
func NewDefaultRegistryWithOptions(opts DefaultOptions) *Registry {
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewRunner()
	}
	client := opts.HTTP
	if client == nil {
		client = resty.New()
	}
	kubectl := Kubectl{Binary: opts.KubectlBinary, Runner: runner}

	r := NewRegistry()
	builtins := map[types.OperationType]Handler{
		types.OperationScriptExec:     NewScriptHandler(runner),
		types.OperationKubectlExec:    &KubectlExecHandler{Kubectl: kubectl},
		types.OperationKubectlRestart: &KubectlRestartHandler{Kubectl: kubectl},
		types.OperationKubectlApply:   &KubectlApplyHandler{Kubectl: kubectl},
		types.OperationKubectlDelete:  &KubectlDeleteHandler{Kubectl: kubectl},
		types.OperationHTTPRequest:    NewHTTPRequestHandler(client),
		types.OperationSkip:           SkipHandler{},
	}
	for opType, h := range builtins {
		registry.MustRegister(r.handlers, string(opType), h)
	}
	return r
}

// Register installs h for opType. A later registration for the same type
// overrides the earlier one.
func (r *Registry) Register(opType types.OperationType, h Handler) error {
	if h == nil {
		return errors.Newf(errors.ErrInvalidInput, "nil handler for operation type %q", opType)
	}
	replaced, err := r.handlers.Replace(string(opType), h)
	if err != nil {
		return err
	}
	r.logger.Debug().
		Str("type", string(opType)).
		Bool("replaced", replaced).
		Msg("Registered handler")
	return nil
}

// Get returns the handler for opType.
func (r *Registry) Get(opType types.OperationType) (Handler, error) {
	h, err := r.handlers.Get(string(opType))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrUnknownOperationType, "no handler registered for operation type %q", opType).
			WithDetail("type", string(opType))
	}
	return h, nil
}

// Has reports whether opType has a handler.
func (r *Registry) Has(opType types.OperationType) bool {
	return r.handlers.Has(string(opType))
}

// Unregister removes the handler for opType.
func (r *Registry) Unregister(opType types.OperationType) error {
	return r.handlers.Remove(string(opType))
}

// List lists the registered operation types in sorted order.
func (r *Registry) List() []types.OperationType {
	names := r.handlers.List()
	out := make([]types.OperationType, len(names))
	for i, n := range names {
		out[i] = types.OperationType(n)
	}
	return out
}
