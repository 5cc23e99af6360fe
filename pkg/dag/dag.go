package dag

import (
	"sort"
	"strings"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/types"
)

// Graph is an immutable, validated phase dependency graph.
type Graph struct {
	phases []types.Phase
	index  map[string]int

	// deps[i] holds the indices phase i depends on; dependents[i] the
	// indices that depend on phase i. Both are sorted.
	deps       [][]int
	dependents [][]int

	layers  [][]int
	layerOf []int
}

// Build validates the dependency declarations of phases and computes the
// layering. It fails on duplicate names, unknown dependencies and cycles.
func Build(phases []types.Phase) (*Graph, error) {
	g := &Graph{
		phases:     make([]types.Phase, len(phases)),
		index:      make(map[string]int, len(phases)),
		deps:       make([][]int, len(phases)),
		dependents: make([][]int, len(phases)),
	}
	copy(g.phases, phases)

	for i, p := range g.phases {
		if p.Name == "" {
			return nil, errors.Newf(errors.ErrConfigInvalid, "phase at position %d has no name", i)
		}
		if _, exists := g.index[p.Name]; exists {
			return nil, errors.Newf(errors.ErrDuplicatePhase, "phase %q is defined more than once", p.Name).
				WithDetail("phase", p.Name)
		}
		g.index[p.Name] = i
	}

	for i, p := range g.phases {
		seen := make(map[int]bool, len(p.DependsOn))
		for _, dep := range p.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, errors.Newf(errors.ErrUnknownDependency, "phase %q depends on unknown phase %q", p.Name, dep).
					WithDetails(map[string]interface{}{"phase": p.Name, "dependency": dep})
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}
	for i := range g.phases {
		sort.Ints(g.deps[i])
		sort.Ints(g.dependents[i])
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, errors.Newf(errors.ErrDependencyCycle, "dependency cycle detected: %s", strings.Join(cycle, " → ")).
			WithDetail("cycle", cycle)
	}

	g.layers, g.layerOf = g.kahn()
	return g, nil
}

// findCycle runs a three-colour depth-first search along depends_on edges
// and returns the first cycle found as a closed path of phase names.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	colour := make([]int, len(g.phases))
	var stack []int

	var visit func(i int) []string
	visit = func(i int) []string {
		colour[i] = grey
		stack = append(stack, i)
		for _, j := range g.deps[i] {
			switch colour[j] {
			case grey:
				start := 0
				for k, n := range stack {
					if n == j {
						start = k
						break
					}
				}
				path := make([]string, 0, len(stack)-start+1)
				for _, n := range stack[start:] {
					path = append(path, g.phases[n].Name)
				}
				return append(path, g.phases[j].Name)
			case white:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[i] = black
		return nil
	}

	for i := range g.phases {
		if colour[i] == white {
			if cycle := visit(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// kahn assumes an acyclic graph.
func (g *Graph) kahn() ([][]int, []int) {
	remaining := make([]int, len(g.phases))
	for i := range g.phases {
		remaining[i] = len(g.deps[i])
	}
	layerOf := make([]int, len(g.phases))

	var current []int
	for i := range g.phases {
		if remaining[i] == 0 {
			current = append(current, i)
		}
	}

	var layers [][]int
	for len(current) > 0 {
		layers = append(layers, current)
		var next []int
		for _, i := range current {
			layerOf[i] = len(layers) - 1
			for _, d := range g.dependents[i] {
				remaining[d]--
				if remaining[d] == 0 {
					next = append(next, d)
				}
			}
		}
		sort.Ints(next)
		current = next
	}
	return layers, layerOf
}

// Len returns the number of phases.
func (g *Graph) Len() int {
	return len(g.phases)
}

// Phases returns the phases in configuration order.
func (g *Graph) Phases() []types.Phase {
	out := make([]types.Phase, len(g.phases))
	copy(out, g.phases)
	return out
}

// Phase returns the named phase.
func (g *Graph) Phase(name string) (types.Phase, bool) {
	i, ok := g.index[name]
	if !ok {
		return types.Phase{}, false
	}
	return g.phases[i], true
}

// Index returns the configuration position of the named phase, or -1.
func (g *Graph) Index(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	return -1
}

// Layers returns the layering as phase names.
func (g *Graph) Layers() [][]string {
	out := make([][]string, len(g.layers))
	for l, layer := range g.layers {
		out[l] = g.names(layer)
	}
	return out
}

// LayerOf returns the layer index of the named phase, or -1.
func (g *Graph) LayerOf(name string) int {
	if i, ok := g.index[name]; ok {
		return g.layerOf[i]
	}
	return -1
}

// Dependencies returns the direct dependencies of the named phase.
func (g *Graph) Dependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.names(g.deps[i])
}

// Dependents returns the phases that directly depend on the named phase.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.names(g.dependents[i])
}

// Descendants returns every phase that transitively depends on the named
// phase, in configuration order.
func (g *Graph) Descendants(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	seen := make([]bool, len(g.phases))
	queue := append([]int(nil), g.dependents[i]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, g.dependents[n]...)
	}

	var out []string
	for n, ok := range seen {
		if ok {
			out = append(out, g.phases[n].Name)
		}
	}
	return out
}

func (g *Graph) names(indices []int) []string {
	out := make([]string, len(indices))
	for k, i := range indices {
		out[k] = g.phases[i].Name
	}
	return out
}
