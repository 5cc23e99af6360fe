package validators

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/arthur-debert/phazr/pkg/shell"
	"resty.dev/v3"
)

// Status is the outcome of one validator.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Check is a single probe within a validator.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// Result is what a validator reports.
type Result struct {
	Validator string
	Status    Status
	Checks    []Check
}

func (r *Result) add(name string, passed bool, message string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Message: message})
}

// degrade lowers the status to s unless it is already worse.
func (r *Result) degrade(s Status) {
	if r.Status == StatusFailed {
		return
	}
	if s == StatusFailed || r.Status == StatusPassed {
		r.Status = s
	}
}

// Validator checks one prerequisite.
type Validator interface {
	Name() string
	Validate(ctx context.Context) Result
}

func runner(r *shell.Runner) *shell.Runner {
	if r == nil {
		return shell.NewRunner()
	}
	return r
}

// ToolValidator checks that a command-line tool is installed. Presence on
// PATH decides the outcome; the version line is only reported.
type ToolValidator struct {
	Tool string

	// Binary is looked up instead of Tool when set.
	Binary string

	// VersionArgs defaults to "--version".
	VersionArgs []string
	Timeout     time.Duration
	Runner      *shell.Runner
}

func (v *ToolValidator) Name() string {
	return "tool:" + v.Tool
}

func (v *ToolValidator) Validate(ctx context.Context) Result {
	result := Result{Validator: v.Name(), Status: StatusPassed}

	binary := v.Binary
	if binary == "" {
		binary = v.Tool
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		result.degrade(StatusFailed)
		result.add("available", false, fmt.Sprintf("%s is not available: %v", v.Tool, err))
		return result
	}

	version := v.version(ctx, path)
	if version == "" {
		version = path
	}
	result.add("available", true, fmt.Sprintf("%s is available (%s)", v.Tool, version))
	return result
}

// version returns the first output line of the version command, or "" when
// it fails. Tools such as dash have no version flag at all.
func (v *ToolValidator) version(ctx context.Context, path string) string {
	args := v.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := runner(v.Runner).Run(ctx, shell.Command{Args: append([]string{path}, args...)})
	if err != nil {
		return ""
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		out = strings.TrimSpace(res.Stderr)
	}
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}

// KubernetesValidator checks cluster connectivity, namespace access and pod
// permissions. Only connectivity is fatal.
type KubernetesValidator struct {
	Namespace string
	Context   string
	Binary    string
	Timeout   time.Duration
	Runner    *shell.Runner
}

func (v *KubernetesValidator) Name() string {
	return "kubernetes"
}

func (v *KubernetesValidator) kubectl(ctx context.Context, args ...string) (shell.Result, error) {
	bin := v.Binary
	if bin == "" {
		bin = "kubectl"
	}
	argv := []string{bin}
	if v.Context != "" {
		argv = append(argv, "--context", v.Context)
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return runner(v.Runner).Run(ctx, shell.Command{Args: append(argv, args...)})
}

func (v *KubernetesValidator) Validate(ctx context.Context) Result {
	result := Result{Validator: v.Name(), Status: StatusPassed}

	if res, err := v.kubectl(ctx, "cluster-info"); err != nil {
		result.degrade(StatusFailed)
		result.add("cluster_connectivity", false, "cannot connect to cluster: "+strings.TrimSpace(res.Stderr))
		return result
	}
	result.add("cluster_connectivity", true, "connected to cluster")

	if _, err := v.kubectl(ctx, "get", "namespace", v.Namespace); err != nil {
		result.degrade(StatusWarning)
		result.add("namespace_access", false, fmt.Sprintf("cannot access namespace %s", v.Namespace))
	} else {
		result.add("namespace_access", true, fmt.Sprintf("namespace %s is accessible", v.Namespace))
	}

	if _, err := v.kubectl(ctx, "auth", "can-i", "list", "pods", "-n", v.Namespace); err != nil {
		result.degrade(StatusWarning)
		result.add("pod_permissions", false, "cannot list pods")
	} else {
		result.add("pod_permissions", true, "can list pods")
	}
	return result
}

// FileSystemValidator checks that paths exist. Missing paths are warnings.
type FileSystemValidator struct {
	Paths []string
}

func (v *FileSystemValidator) Name() string {
	return "filesystem"
}

func (v *FileSystemValidator) Validate(_ context.Context) Result {
	result := Result{Validator: v.Name(), Status: StatusPassed}
	for _, path := range v.Paths {
		info, err := os.Stat(path)
		if err != nil {
			result.degrade(StatusWarning)
			result.add(path, false, fmt.Sprintf("path %s does not exist", path))
			continue
		}
		kind := "file"
		if info.IsDir() {
			kind = "directory"
		}
		result.add(path, true, kind)
	}
	return result
}

// NetworkValidator checks that HTTP endpoints answer. Any response counts as
// reachable; transport errors are warnings.
type NetworkValidator struct {
	Endpoints []string
	Timeout   time.Duration
	Client    *resty.Client
}

func (v *NetworkValidator) Name() string {
	return "network"
}

func (v *NetworkValidator) Validate(ctx context.Context) Result {
	result := Result{Validator: v.Name(), Status: StatusPassed}
	client := v.Client
	if client == nil {
		client = resty.New()
		defer client.Close()
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	for _, endpoint := range v.Endpoints {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := client.R().SetContext(reqCtx).Head(endpoint)
		cancel()
		if err != nil {
			result.degrade(StatusWarning)
			result.add(endpoint, false, "endpoint not reachable: "+err.Error())
			continue
		}
		result.add(endpoint, true, fmt.Sprintf("status %d", resp.StatusCode()))
	}
	return result
}
