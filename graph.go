package locator

import (
	"slices"

	"github.com/xraph/go-utils/di"
)

// DependencyGraph holds declared service dependencies.
type DependencyGraph struct {
	nodes map[string]*node
	order []string // Preserve insertion order
}

type node struct {
	name string
	deps []di.Dep
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with eager dependencies.
// Adding an existing node merges the new dependencies into it.
func (g *DependencyGraph) AddNode(name string, dependencies ...string) {
	g.AddNodeWithDeps(name, di.DepsFromNames(dependencies))
}

// AddNodeWithDeps is AddNode with explicit modes; lazy edges are skipped by
// TopologicalSortEagerOnly.
func (g *DependencyGraph) AddNodeWithDeps(name string, deps []di.Dep) {
	n, ok := g.nodes[name]
	if !ok {
		n = &node{name: name}
		g.nodes[name] = n
		g.order = append(g.order, name)
	}

	for _, dep := range deps {
		if !slices.ContainsFunc(n.deps, func(d di.Dep) bool { return d.Name == dep.Name }) {
			n.deps = append(n.deps, dep)
		}
	}
}

// Dependencies returns the dependency names for a node.
func (g *DependencyGraph) Dependencies(name string) []string {
	if n, ok := g.nodes[name]; ok {
		return di.DepNames(n.deps)
	}

	return nil
}

// Deps returns the full Dep specs for a node.
func (g *DependencyGraph) Deps(name string) []di.Dep {
	if n, ok := g.nodes[name]; ok {
		return n.deps
	}

	return nil
}

// HasNode reports whether name was added.
func (g *DependencyGraph) HasNode(name string) bool {
	_, ok := g.nodes[name]

	return ok
}

// Nodes returns node names in insertion order.
func (g *DependencyGraph) Nodes() []string {
	return slices.Clone(g.order)
}

// TopologicalSort orders nodes so every dependency precedes its dependents.
// Independent nodes keep insertion order. A cycle is reported with its full
// path.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	return g.sort(func(di.Dep) bool { return true })
}

// TopologicalSortEagerOnly ignores lazy edges: a lazy dependency is resolved
// after construction and cannot deadlock it.
func (g *DependencyGraph) TopologicalSortEagerOnly() ([]string, error) {
	return g.sort(func(d di.Dep) bool { return !d.Mode.IsLazy() })
}

func (g *DependencyGraph) sort(follow func(di.Dep) bool) ([]string, error) {
	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	for _, name := range g.order {
		if err := g.visit(name, follow, visited, nil, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal. stack is the current path, used both as the
// visiting set and to report the cycle.
func (g *DependencyGraph) visit(name string, follow func(di.Dep) bool, visited map[string]bool, stack []string, result *[]string) error {
	if visited[name] {
		return nil
	}

	if i := slices.Index(stack, name); i >= 0 {
		cycle := append(slices.Clone(stack[i:]), name)

		return ErrCircularDependency(cycle)
	}

	n := g.nodes[name]
	if n == nil {
		// Not declared; Validate reports missing names separately.
		return nil
	}

	stack = append(stack, name)

	for _, dep := range n.deps {
		if !follow(dep) {
			continue
		}

		if err := g.visit(dep.Name, follow, visited, stack, result); err != nil {
			return err
		}
	}

	visited[name] = true
	*result = append(*result, name)

	return nil
}
