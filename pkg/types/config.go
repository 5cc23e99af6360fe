package types

import (
	"sort"

	"github.com/arthur-debert/phazr/pkg/errors"
)

// ExecutionSettings are run-wide knobs from the execution block.
type ExecutionSettings struct {
	DryRun         bool     `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	MaxParallel    int      `json:"max_parallel" yaml:"max_parallel" toml:"max_parallel"`
	DefaultVersion string   `json:"default_version,omitempty" yaml:"default_version,omitempty" toml:"default_version,omitempty"`
	Verbose        bool     `json:"verbose" yaml:"verbose" toml:"verbose"`
	LockFile       string   `json:"lock_file,omitempty" yaml:"lock_file,omitempty" toml:"lock_file,omitempty"`
	RequiredTools  []string `json:"required_tools,omitempty" yaml:"required_tools,omitempty" toml:"required_tools,omitempty"`
	RequiredPaths  []string `json:"required_paths,omitempty" yaml:"required_paths,omitempty" toml:"required_paths,omitempty"`
	Endpoints      []string `json:"endpoints,omitempty" yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
}

// Config is the validated in-memory model the engine runs from.
type Config struct {
	Phases      []Phase                `json:"phases" yaml:"phases" toml:"phases"`
	Versions    map[string]Version     `json:"versions" yaml:"versions" toml:"versions"`
	Environment Environment            `json:"environment" yaml:"environment" toml:"environment"`
	Execution   ExecutionSettings      `json:"execution" yaml:"execution" toml:"execution"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// VersionLabels returns the version labels in sorted order.
func (c *Config) VersionLabels() []string {
	labels := make([]string, 0, len(c.Versions))
	for label := range c.Versions {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Phase looks a phase up by name.
func (c *Config) Phase(name string) (Phase, bool) {
	for _, p := range c.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// SelectVersion resolves a version label. An empty label falls back to the
// execution default_version, then to the first label in sorted order.
func (c *Config) SelectVersion(label string) (Version, error) {
	if len(c.Versions) == 0 {
		return Version{}, errors.New(errors.ErrVersionNotFound, "no versions defined in configuration")
	}
	if label == "" {
		label = c.Execution.DefaultVersion
	}
	if label == "" {
		label = c.VersionLabels()[0]
	}
	v, ok := c.Versions[label]
	if !ok {
		return Version{}, errors.Newf(errors.ErrVersionNotFound, "version %q not found in configuration", label).
			WithDetail("version", label).
			WithDetail("available", c.VersionLabels())
	}
	v.Label = label
	return v, nil
}
