package shell

import (
	"os"
	"sort"
	"strings"

	"github.com/arthur-debert/phazr/pkg/types"
)

// Environ builds the process environment for an operation: the current
// process environment, then the target environment, then environment
// variables, then operation metadata as OP_<KEY>. Later entries win.
func Environ(env types.Environment, op types.Operation) []string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	vars["ENVIRONMENT"] = env.Name
	vars["NAMESPACE"] = op.NamespaceIn(env)
	if env.Context != "" {
		vars["KUBE_CONTEXT"] = env.Context
	}
	if env.Cluster != "" {
		vars["CLUSTER"] = env.Cluster
	}
	for k, v := range env.Variables {
		vars[k] = v
	}
	for k, v := range op.Metadata {
		vars["OP_"+envKey(k)] = v
	}

	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func envKey(k string) string {
	k = strings.ToUpper(k)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, k)
}
