package validators

import (
	"context"
	"fmt"

	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

// Report aggregates the results of a prerequisite pass.
type Report struct {
	AllPassed   bool
	HasWarnings bool
	Results     []Result
}

// Failed counts validators that failed.
func (r *Report) Failed() int {
	return r.count(StatusFailed)
}

// Warnings counts validators that passed with warnings.
func (r *Report) Warnings() int {
	return r.count(StatusWarning)
}

func (r *Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Summary is a one-line description of the report.
func (r *Report) Summary() string {
	switch {
	case !r.AllPassed:
		return fmt.Sprintf("%d prerequisites failed validation", r.Failed())
	case r.HasWarnings:
		return fmt.Sprintf("Prerequisites passed with %d warnings", r.Warnings())
	default:
		return "All prerequisites validated successfully"
	}
}

// Options configures a PrerequisiteValidator.
type Options struct {
	Runner        *shell.Runner
	HTTP          *resty.Client
	KubectlBinary string
	Logger        *zerolog.Logger

	// Version is the selected version; its operation types add implicit
	// tool requirements.
	Version types.Version
}

// RequiredTools returns the configured tools plus those implied by the
// operations of version: any kubectl_* operation requires kubectl.
func RequiredTools(settings types.ExecutionSettings, version types.Version) []string {
	seen := make(map[string]bool)
	var tools []string
	add := func(tool string) {
		if tool != "" && !seen[tool] {
			seen[tool] = true
			tools = append(tools, tool)
		}
	}
	for _, tool := range settings.RequiredTools {
		add(tool)
	}
	for _, ops := range version.Groups {
		for _, op := range ops {
			switch op.Type {
			case types.OperationKubectlExec, types.OperationKubectlRestart,
				types.OperationKubectlApply, types.OperationKubectlDelete:
				add("kubectl")
			}
		}
	}
	return tools
}

// PrerequisiteValidator runs a set of validators concurrently.
type PrerequisiteValidator struct {
	validators []Validator
	logger     zerolog.Logger
}

// New builds the validator set implied by the execution settings and the
// selected version: one tool check per required tool, a cluster check when
// kubectl is required, and path and endpoint checks when any are listed.
func New(env types.Environment, settings types.ExecutionSettings, opts Options) *PrerequisiteValidator {
	p := &PrerequisiteValidator{logger: logging.GetLogger("validators")}
	if opts.Logger != nil {
		p.logger = opts.Logger.With().Str("component", "validators").Logger()
	}

	needsKubectl := false
	for _, tool := range RequiredTools(settings, opts.Version) {
		v := &ToolValidator{Tool: tool, Runner: opts.Runner}
		if tool == "kubectl" {
			needsKubectl = true
			v.Binary = opts.KubectlBinary
			v.VersionArgs = []string{"version", "--client"}
		}
		p.Add(v)
	}
	if needsKubectl {
		p.Add(&KubernetesValidator{
			Namespace: env.Namespace,
			Context:   env.Context,
			Binary:    opts.KubectlBinary,
			Runner:    opts.Runner,
		})
	}
	if len(settings.RequiredPaths) > 0 {
		p.Add(&FileSystemValidator{Paths: settings.RequiredPaths})
	}
	if len(settings.Endpoints) > 0 {
		p.Add(&NetworkValidator{Endpoints: settings.Endpoints, Client: opts.HTTP})
	}
	return p
}

// Add appends a validator.
func (p *PrerequisiteValidator) Add(v Validator) {
	p.validators = append(p.validators, v)
}

// Validators returns the configured validators in order.
func (p *PrerequisiteValidator) Validators() []Validator {
	return p.validators
}

// Validate runs every validator. Results keep the order validators were
// added in.
func (p *PrerequisiteValidator) Validate(ctx context.Context) *Report {
	results := make([]Result, len(p.validators))
	var g errgroup.Group
	for i, v := range p.validators {
		g.Go(func() error {
			results[i] = v.Validate(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{AllPassed: true, Results: results}
	for _, res := range results {
		event := p.logger.Debug()
		switch res.Status {
		case StatusFailed:
			report.AllPassed = false
			event = p.logger.Warn()
		case StatusWarning:
			report.HasWarnings = true
		}
		event.Str("validator", res.Validator).Str("status", string(res.Status)).Msg("Prerequisite checked")
	}
	p.logger.Info().
		Bool("all_passed", report.AllPassed).
		Bool("has_warnings", report.HasWarnings).
		Msg(report.Summary())
	return report
}
