package usecase

import (
	"fmt"
	"slices"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// BuildPlan turns a manifest into a deterministic deployment order
type BuildPlan struct{}

// NewBuildPlan creates a new plan builder
func NewBuildPlan() *BuildPlan {
	return &BuildPlan{}
}

// Build validates the manifest and returns the topologically ordered plan.
// Among components that are ready at the same time, manifest declaration
// order wins, so the same manifest always yields the same plan.
func (b *BuildPlan) Build(manifest *models.Manifest) (*models.DeploymentPlan, error) {
	if manifest == nil || len(manifest.Components) == 0 {
		return nil, fmt.Errorf("%w: manifest declares no components", domain.ErrGraph)
	}

	graph, err := NewDependencyGraph(manifest)
	if err != nil {
		return nil, err
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	plan := &models.DeploymentPlan{Manifest: manifest.Name}
	for i, idx := range order {
		spec := manifest.Components[idx]
		plan.Steps = append(plan.Steps, &models.PlanStep{
			Index:        i,
			Spec:         spec,
			Dependencies: graph.deps[idx],
		})
	}
	return plan, nil
}

// DependencyGraph represents a directed graph of components where an edge
// A -> B means A's arguments reference B
type DependencyGraph struct {
	names      []string
	index      map[string]int
	deps       [][]string // node -> names it references, first-seen order
	dependents [][]int    // node -> indexes of nodes referencing it
}

// NewDependencyGraph creates a new dependency graph from the manifest
func NewDependencyGraph(manifest *models.Manifest) (*DependencyGraph, error) {
	g := &DependencyGraph{
		names:      make([]string, len(manifest.Components)),
		index:      make(map[string]int, len(manifest.Components)),
		deps:       make([][]string, len(manifest.Components)),
		dependents: make([][]int, len(manifest.Components)),
	}

	for i, c := range manifest.Components {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: component #%d has no name", domain.ErrGraph, i+1)
		}
		if _, exists := g.index[c.Name]; exists {
			return nil, &domain.DuplicateComponentError{Name: c.Name}
		}
		g.index[c.Name] = i
		g.names[i] = c.Name
	}

	for i, c := range manifest.Components {
		for _, ref := range c.References() {
			j, exists := g.index[ref]
			if !exists {
				return nil, &domain.UnknownReferenceError{
					From:        c.Name,
					To:          ref,
					Suggestions: suggestNames(ref, g.names),
				}
			}
			g.deps[i] = append(g.deps[i], ref)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	return g, nil
}

// TopologicalSort returns node indexes in deployment order, or a
// CycleDetectedError naming every component that sits on a cycle
func (g *DependencyGraph) TopologicalSort() ([]int, error) {
	inDegree := make([]int, len(g.names))
	for i := range g.names {
		inDegree[i] = len(g.deps[i])
	}

	// Ready set kept sorted by declaration index
	var ready []int
	for i, d := range inDegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(g.names))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for _, dependent := range g.dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				pos, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, pos, dependent)
			}
		}
	}

	if len(order) != len(g.names) {
		return nil, &domain.CycleDetectedError{Members: g.cycleMembers()}
	}
	return order, nil
}

// cycleMembers returns the components that belong to a strongly connected
// component of size > 1 or reference themselves, in declaration order.
// Components that merely depend on a cycle are not members.
func (g *DependencyGraph) cycleMembers() []string {
	var (
		counter int
		stack   []int
		onStack = make([]bool, len(g.names))
		indexOf = make([]int, len(g.names))
		lowlink = make([]int, len(g.names))
		visited = make([]bool, len(g.names))
		member  = make([]bool, len(g.names))
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		visited[v] = true
		indexOf[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, dep := range g.deps[v] {
			w := g.index[dep]
			if !visited[w] {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indexOf[w])
			}
		}

		if lowlink[v] != indexOf[v] {
			return
		}
		var scc []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || lo.Contains(g.deps[v], g.names[v]) {
			for _, w := range scc {
				member[w] = true
			}
		}
	}

	for v := range g.names {
		if !visited[v] {
			strongConnect(v)
		}
	}

	var members []string
	for i, name := range g.names {
		if member[i] {
			members = append(members, name)
		}
	}
	return members
}

// suggestNames returns up to three close matches for a mistyped name
func suggestNames(target string, candidates []string) []string {
	matches := fuzzy.Find(target, candidates)
	if len(matches) == 0 {
		// fuzzy matching is subsequence based; also try the other direction
		// so that "Tokenn" still suggests "Token"
		for _, c := range candidates {
			if len(fuzzy.Find(c, []string{target})) > 0 {
				return []string{c}
			}
		}
		return nil
	}
	return lo.Map(lo.Slice(matches, 0, 3), func(m fuzzy.Match, _ int) string { return m.Str })
}
