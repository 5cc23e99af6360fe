package config

import (
	"github.com/arthur-debert/phazr/pkg/types"
)

// fileConfig is the on-disk shape of a configuration file. The same tags
// drive decoding (through koanf) and encoding (yaml.v3, json, go-toml).
type fileConfig struct {
	Phases      []filePhase             `yaml:"phases" json:"phases" toml:"phases"`
	Versions    map[string]fileVersion  `yaml:"versions" json:"versions" toml:"versions"`
	Environment types.Environment       `yaml:"environment" json:"environment" toml:"environment"`
	Execution   types.ExecutionSettings `yaml:"execution" json:"execution" toml:"execution"`
	Metadata    map[string]interface{}  `yaml:"metadata,omitempty" json:"metadata,omitempty" toml:"metadata,omitempty"`
}

type filePhase struct {
	Name            string   `yaml:"name" json:"name" toml:"name"`
	Description     string   `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Icon            string   `yaml:"icon,omitempty" json:"icon,omitempty" toml:"icon,omitempty"`
	Groups          []string `yaml:"groups" json:"groups" toml:"groups"`
	DependsOn       []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty" toml:"depends_on,omitempty"`
	ParallelGroups  bool     `yaml:"parallel_groups,omitempty" json:"parallel_groups,omitempty" toml:"parallel_groups,omitempty"`
	ContinueOnError bool     `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty" toml:"continue_on_error,omitempty"`

	// Enabled defaults to true when absent.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty" toml:"enabled,omitempty"`
}

// fileVersion maps group names to operation lists. The reserved key
// "metadata" holds version metadata instead of a group.
type fileVersion map[string]interface{}

const metadataKey = "metadata"

type fileOperation struct {
	Command        string            `yaml:"command" json:"command" toml:"command"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Type           string            `yaml:"type" json:"type" toml:"type"`
	Timeout        Duration          `yaml:"timeout,omitempty" json:"timeout,omitempty" toml:"timeout,omitempty"`
	RetryCount     int               `yaml:"retry_count,omitempty" json:"retry_count,omitempty" toml:"retry_count,omitempty"`
	RetryDelay     Duration          `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty" toml:"retry_delay,omitempty"`
	SkipIf         string            `yaml:"skip_if,omitempty" json:"skip_if,omitempty" toml:"skip_if,omitempty"`
	Service        string            `yaml:"service,omitempty" json:"service,omitempty" toml:"service,omitempty"`
	Container      string            `yaml:"container,omitempty" json:"container,omitempty" toml:"container,omitempty"`
	Namespace      string            `yaml:"namespace,omitempty" json:"namespace,omitempty" toml:"namespace,omitempty"`
	WaitForReady   bool              `yaml:"wait_for_ready,omitempty" json:"wait_for_ready,omitempty" toml:"wait_for_ready,omitempty"`
	TestCommand    string            `yaml:"test_command,omitempty" json:"test_command,omitempty" toml:"test_command,omitempty"`
	ExpectedOutput string            `yaml:"expected_output,omitempty" json:"expected_output,omitempty" toml:"expected_output,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty" toml:"metadata,omitempty"`

	// FailOnError defaults to true when absent.
	FailOnError *bool `yaml:"fail_on_error,omitempty" json:"fail_on_error,omitempty" toml:"fail_on_error,omitempty"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func boolPtr(b bool) *bool {
	return &b
}

func (p filePhase) model() types.Phase {
	return types.Phase{
		Name:            p.Name,
		Description:     p.Description,
		Icon:            p.Icon,
		Groups:          p.Groups,
		DependsOn:       p.DependsOn,
		ParallelGroups:  p.ParallelGroups,
		ContinueOnError: p.ContinueOnError,
		Enabled:         boolOr(p.Enabled, true),
	}
}

func phaseFile(p types.Phase) filePhase {
	fp := filePhase{
		Name:            p.Name,
		Description:     p.Description,
		Icon:            p.Icon,
		Groups:          p.Groups,
		DependsOn:       p.DependsOn,
		ParallelGroups:  p.ParallelGroups,
		ContinueOnError: p.ContinueOnError,
	}
	if !p.Enabled {
		fp.Enabled = boolPtr(false)
	}
	return fp
}

func (o fileOperation) model() types.Operation {
	return types.Operation{
		Command:        o.Command,
		Description:    o.Description,
		Type:           types.OperationType(o.Type),
		Timeout:        o.Timeout.Std(),
		RetryCount:     o.RetryCount,
		RetryDelay:     o.RetryDelay.Std(),
		SkipIf:         o.SkipIf,
		Service:        o.Service,
		Container:      o.Container,
		Namespace:      o.Namespace,
		WaitForReady:   o.WaitForReady,
		TestCommand:    o.TestCommand,
		ExpectedOutput: o.ExpectedOutput,
		IgnoreFailure:  !boolOr(o.FailOnError, true),
		Metadata:       o.Metadata,
	}
}

func operationFile(op types.Operation) fileOperation {
	fo := fileOperation{
		Command:        op.Command,
		Description:    op.Description,
		Type:           string(op.Type),
		Timeout:        Duration(op.Timeout),
		RetryCount:     op.RetryCount,
		RetryDelay:     Duration(op.RetryDelay),
		SkipIf:         op.SkipIf,
		Service:        op.Service,
		Container:      op.Container,
		Namespace:      op.Namespace,
		WaitForReady:   op.WaitForReady,
		TestCommand:    op.TestCommand,
		ExpectedOutput: op.ExpectedOutput,
		Metadata:       op.Metadata,
	}
	if op.IgnoreFailure {
		fo.FailOnError = boolPtr(false)
	}
	return fo
}

// document converts the model back to its on-disk shape.
func document(cfg *types.Config) fileConfig {
	doc := fileConfig{
		Phases:      make([]filePhase, len(cfg.Phases)),
		Versions:    make(map[string]fileVersion, len(cfg.Versions)),
		Environment: cfg.Environment,
		Execution:   cfg.Execution,
		Metadata:    cfg.Metadata,
	}
	for i, p := range cfg.Phases {
		doc.Phases[i] = phaseFile(p)
	}
	for label, v := range cfg.Versions {
		fv := make(fileVersion, len(v.Groups)+1)
		for name, ops := range v.Groups {
			fops := make([]fileOperation, len(ops))
			for i, op := range ops {
				fops[i] = operationFile(op)
			}
			fv[name] = fops
		}
		if len(v.Metadata) > 0 {
			fv[metadataKey] = v.Metadata
		}
		doc.Versions[label] = fv
	}
	return doc
}
