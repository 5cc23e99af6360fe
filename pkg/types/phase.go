package types

// Phase is a named unit of work placed in the dependency graph. Its groups
// are resolved against the selected version when the phase runs.
type Phase struct {
	Name            string   `json:"name" yaml:"name" toml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Icon            string   `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Groups          []string `json:"groups" yaml:"groups" toml:"groups"`
	DependsOn       []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	ParallelGroups  bool     `json:"parallel_groups" yaml:"parallel_groups" toml:"parallel_groups"`
	ContinueOnError bool     `json:"continue_on_error" yaml:"continue_on_error" toml:"continue_on_error"`
	Enabled         bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Title returns the phase name prefixed by its icon, if any.
func (p Phase) Title() string {
	if p.Icon == "" {
		return p.Name
	}
	return p.Icon + " " + p.Name
}

// Version maps group names to their ordered operations for one version label.
type Version struct {
	Label    string                 `json:"-" yaml:"-" toml:"-"`
	Groups   map[string][]Operation `json:"groups" yaml:"groups" toml:"groups"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// Group returns the operations of the named group.
func (v Version) Group(name string) ([]Operation, bool) {
	ops, ok := v.Groups[name]
	return ops, ok
}

// OperationCount returns the number of operations across all groups.
func (v Version) OperationCount() int {
	n := 0
	for _, ops := range v.Groups {
		n += len(ops)
	}
	return n
}

// Environment is the target environment handed to every handler.
type Environment struct {
	Name      string                 `json:"name" yaml:"name" toml:"name"`
	Namespace string                 `json:"namespace" yaml:"namespace" toml:"namespace"`
	Context   string                 `json:"context,omitempty" yaml:"context,omitempty" toml:"context,omitempty"`
	Cluster   string                 `json:"cluster,omitempty" yaml:"cluster,omitempty" toml:"cluster,omitempty"`
	Variables map[string]string      `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}
