package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
)

// DefaultKubectlBinary is the kubectl executable looked up on PATH.
const DefaultKubectlBinary = "kubectl"

// defaultRolloutTimeout bounds rollout status waits when the operation sets no timeout.
const defaultRolloutTimeout = 5 * time.Minute

// Kubectl holds what the kubectl handlers share: the binary and the runner
// that invokes it.
type Kubectl struct {
	Binary string
	Runner *shell.Runner
}

func (k Kubectl) binary() string {
	if k.Binary == "" {
		return DefaultKubectlBinary
	}
	return k.Binary
}

func (k Kubectl) runner() *shell.Runner {
	if k.Runner == nil {
		return shell.NewRunner()
	}
	return k.Runner
}

// args prefixes the cluster targeting flags shared by every kubectl call.
func (k Kubectl) args(op types.Operation, env types.Environment, rest ...string) []string {
	args := []string{k.binary()}
	if env.Context != "" {
		args = append(args, "--context", env.Context)
	}
	if ns := op.NamespaceIn(env); ns != "" {
		args = append(args, "-n", ns)
	}
	return append(args, rest...)
}

func (k Kubectl) run(ctx context.Context, op types.Operation, env types.Environment, stdin string, args []string) (shell.Result, error) {
	cmd := shell.Command{
		Args: args,
		Env:  shell.Environ(env, op),
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	return k.runner().Run(ctx, cmd)
}

func (k Kubectl) result(op types.Operation, res shell.Result, err error) types.ExecutionResult {
	result := succeeded(op, res.Output)
	if err != nil {
		result = failed(op, res.Output, err)
	}
	result.Metadata = map[string]interface{}{"exit_code": res.ExitCode}
	return result
}

func requireService(op types.Operation) error {
	if op.Service == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s operation %q requires a service", op.Type, op.Label())
	}
	return nil
}

// KubectlExecHandler runs the command inside the service's pod. Service is
// passed to kubectl as given, so "deployment/web" picks a pod of that
// deployment.
type KubectlExecHandler struct {
	Kubectl
}

func (h *KubectlExecHandler) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	if err := requireService(op); err != nil {
		return failed(op, "", err)
	}
	rest := []string{"exec", op.Service}
	if op.Container != "" {
		rest = append(rest, "-c", op.Container)
	}
	rest = append(rest, "--", "sh", "-c", op.Command)

	res, err := h.run(ctx, op, env, "", h.args(op, env, rest...))
	return h.result(op, res, err)
}

// KubectlRestartHandler performs a rollout restart of the service's
// deployment, optionally waiting for the rollout to become ready.
type KubectlRestartHandler struct {
	Kubectl
}

func (h *KubectlRestartHandler) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	if err := requireService(op); err != nil {
		return failed(op, "", err)
	}
	deployment := deploymentRef(op.Service)

	res, err := h.run(ctx, op, env, "", h.args(op, env, "rollout", "restart", deployment))
	if err != nil || !op.WaitForReady {
		return h.result(op, res, err)
	}

	wait := op.Timeout
	if wait <= 0 {
		wait = defaultRolloutTimeout
	}
	status, err := h.run(ctx, op, env, "", h.args(op, env,
		"rollout", "status", deployment, fmt.Sprintf("--timeout=%s", wait)))
	status.Output = res.Output + status.Output
	return h.result(op, status, err)
}

// KubectlApplyHandler applies a manifest. A command that looks like an
// inline manifest is piped on stdin; anything else is treated as a path.
type KubectlApplyHandler struct {
	Kubectl
}

func (h *KubectlApplyHandler) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	manifest, stdin := manifestSource(op.Command)
	res, err := h.run(ctx, op, env, stdin, h.args(op, env, "apply", "-f", manifest))
	return h.result(op, res, err)
}

// KubectlDeleteHandler deletes the resources named by the command, either a
// manifest or a "kind/name" reference. Missing resources are not an error.
type KubectlDeleteHandler struct {
	Kubectl
}

func (h *KubectlDeleteHandler) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	var rest []string
	stdin := ""
	switch {
	case isInlineManifest(op.Command), strings.HasSuffix(op.Command, ".yaml"),
		strings.HasSuffix(op.Command, ".yml"), strings.HasSuffix(op.Command, ".json"):
		var manifest string
		manifest, stdin = manifestSource(op.Command)
		rest = []string{"delete", "-f", manifest}
	default:
		rest = append([]string{"delete"}, strings.Fields(op.Command)...)
	}
	rest = append(rest, "--ignore-not-found")

	res, err := h.run(ctx, op, env, stdin, h.args(op, env, rest...))
	return h.result(op, res, err)
}

// deploymentRef qualifies a bare service name as a deployment. Names that
// already carry a resource kind are kept.
func deploymentRef(service string) string {
	if strings.Contains(service, "/") {
		return service
	}
	return "deployment/" + service
}

func isInlineManifest(command string) bool {
	trimmed := strings.TrimSpace(command)
	return strings.HasPrefix(trimmed, "{") ||
		strings.HasPrefix(trimmed, "---") ||
		strings.HasPrefix(trimmed, "apiVersion:")
}

// manifestSource returns the -f argument and the stdin payload for a command.
func manifestSource(command string) (string, string) {
	if isInlineManifest(command) {
		return "-", command
	}
	return strings.TrimSpace(command), ""
}
