package types

import (
	"fmt"
	"time"
)

// OperationType is the dispatch tag used to look up an operation's handler.
type OperationType string

const (
	OperationScriptExec     OperationType = "script_exec"
	OperationKubectlExec    OperationType = "kubectl_exec"
	OperationKubectlRestart OperationType = "kubectl_restart"
	OperationKubectlApply   OperationType = "kubectl_apply"
	OperationKubectlDelete  OperationType = "kubectl_delete"
	OperationHTTPRequest    OperationType = "http_request"
	OperationCustom         OperationType = "custom"
	OperationSkip           OperationType = "skip"
)

// Operation is a single executable step. Command is interpreted by the
// handler registered for Type.
type Operation struct {
	Command     string        `json:"command" yaml:"command" toml:"command"`
	Description string        `json:"description" yaml:"description" toml:"description"`
	Type        OperationType `json:"type" yaml:"type" toml:"type"`

	// Timeout bounds each attempt; zero means unbounded.
	Timeout    time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	RetryCount int           `json:"retry_count,omitempty" yaml:"retry_count,omitempty" toml:"retry_count,omitempty"`
	RetryDelay time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty" toml:"retry_delay,omitempty"`

	// SkipIf is a shell condition; exit status 0 skips the operation.
	SkipIf string `json:"skip_if,omitempty" yaml:"skip_if,omitempty" toml:"skip_if,omitempty"`

	// Cluster targeting, used by the kubectl handlers.
	Service      string `json:"service,omitempty" yaml:"service,omitempty" toml:"service,omitempty"`
	Container    string `json:"container,omitempty" yaml:"container,omitempty" toml:"container,omitempty"`
	Namespace    string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	WaitForReady bool   `json:"wait_for_ready,omitempty" yaml:"wait_for_ready,omitempty" toml:"wait_for_ready,omitempty"`

	// Post-attempt verification. A failed check fails the attempt.
	TestCommand    string `json:"test_command,omitempty" yaml:"test_command,omitempty" toml:"test_command,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty" yaml:"expected_output,omitempty" toml:"expected_output,omitempty"`

	// IgnoreFailure records a failure without failing the group. It is the
	// inverse of the fail_on_error configuration key, which defaults to true.
	IgnoreFailure bool `json:"-" yaml:"-" toml:"-"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// MaxAttempts is RetryCount+1, never less than one.
func (o Operation) MaxAttempts() int {
	if o.RetryCount < 0 {
		return 1
	}
	return o.RetryCount + 1
}

// NamespaceIn returns the operation's namespace override or the environment's.
func (o Operation) NamespaceIn(env Environment) string {
	if o.Namespace != "" {
		return o.Namespace
	}
	return env.Namespace
}

// Target describes where the operation acts, for logs and dry-run output.
func (o Operation) Target(env Environment) string {
	switch o.Type {
	case OperationKubectlExec, OperationKubectlRestart:
		target := fmt.Sprintf("%s/%s", o.NamespaceIn(env), o.Service)
		if o.Container != "" {
			target += "/" + o.Container
		}
		return target
	case OperationKubectlApply, OperationKubectlDelete:
		return o.NamespaceIn(env)
	case OperationScriptExec:
		return "local shell"
	}
	if env.Name != "" {
		return env.Name
	}
	return "-"
}

// Label is the description, falling back to the command.
func (o Operation) Label() string {
	if o.Description != "" {
		return o.Description
	}
	return o.Command
}
