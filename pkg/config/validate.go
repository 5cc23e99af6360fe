package config

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/arthur-debert/phazr/pkg/dag"
	"github.com/arthur-debert/phazr/pkg/types"
)

// Validate returns human-readable issues with cfg. An empty result means the
// configuration is structurally sound; handler registration is checked by
// the orchestrator.
func Validate(cfg *types.Config) []string {
	var issues []string

	if len(cfg.Versions) == 0 {
		issues = append(issues, "No versions defined in configuration")
	}

	for _, label := range cfg.VersionLabels() {
		v := cfg.Versions[label]
		if len(v.Groups) == 0 {
			issues = append(issues, fmt.Sprintf("Version %s has no operation groups", label))
		}
		for _, group := range sortedGroups(v) {
			for i, op := range v.Groups[group] {
				issues = append(issues, operationIssues(label, group, i, op)...)
			}
		}
	}

	if cfg.Environment.Namespace == "" {
		issues = append(issues, "No namespace specified in environment configuration")
	}

	if cfg.Execution.MaxParallel < 0 {
		issues = append(issues, "execution.max_parallel must not be negative")
	}

	if _, err := dag.Build(cfg.Phases); err != nil {
		issues = append(issues, err.Error())
	}

	for _, p := range cfg.Phases {
		if len(p.Groups) == 0 {
			issues = append(issues, fmt.Sprintf("Phase '%s' has no groups", p.Name))
		}
		for _, group := range p.Groups {
			if !groupDefined(cfg, group) {
				issues = append(issues, fmt.Sprintf("Phase '%s' references non-existent group '%s'", p.Name, group))
			}
		}
	}

	if cfg.Execution.DefaultVersion != "" {
		if _, ok := cfg.Versions[cfg.Execution.DefaultVersion]; !ok {
			issues = append(issues, fmt.Sprintf("Default version '%s' is not defined", cfg.Execution.DefaultVersion))
		}
	}

	return issues
}

func operationIssues(label, group string, i int, op types.Operation) []string {
	var issues []string
	where := fmt.Sprintf("Operation %d in %s (%s)", i, group, label)

	if op.Type == "" {
		issues = append(issues, where+" has no type")
	}
	if op.Command == "" && op.Type != types.OperationKubectlRestart && op.Type != types.OperationSkip {
		issues = append(issues, where+" has no command")
	}
	switch op.Type {
	case types.OperationKubectlExec, types.OperationKubectlRestart:
		if op.Service == "" {
			issues = append(issues, fmt.Sprintf("%s is %s but missing service", where, op.Type))
		}
	}
	if op.RetryCount < 0 {
		issues = append(issues, where+" has a negative retry_count")
	}
	if op.Timeout < 0 || op.RetryDelay < 0 {
		issues = append(issues, where+" has a negative duration")
	}
	if op.ExpectedOutput != "" {
		if _, err := regexp.Compile(op.ExpectedOutput); err != nil {
			issues = append(issues, fmt.Sprintf("%s has an invalid expected_output pattern: %v", where, err))
		}
	}
	return issues
}

// groupDefined reports whether any version defines group.
func groupDefined(cfg *types.Config, group string) bool {
	for _, v := range cfg.Versions {
		if _, ok := v.Groups[group]; ok {
			return true
		}
	}
	return false
}

func sortedGroups(v types.Version) []string {
	names := make([]string, 0, len(v.Groups))
	for name := range v.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
