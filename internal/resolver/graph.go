package resolver

import (
	"fmt"
	"sort"
	"strings"
)

// aliasGraph is a directed graph of alias keys. An edge a -> b means the
// target of a is itself rewritten by alias b.
type aliasGraph struct {
	dependencies map[string][]string
	nodes        []string
}

func buildAliasGraph(alias map[string]string) *aliasGraph {
	g := &aliasGraph{dependencies: make(map[string][]string)}
	for key := range alias {
		g.nodes = append(g.nodes, key)
	}
	sort.Strings(g.nodes)

	for _, key := range g.nodes {
		if dep, ok := matchAlias(g.nodes, alias[key]); ok && dep != key {
			g.dependencies[key] = append(g.dependencies[key], dep)
		}
	}
	return g
}

// findCycle returns the cycle path if one exists, or nil if no cycle
func (g *aliasGraph) findCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, node := range g.nodes {
		if cycle := g.findCycleDFS(node, visited, recStack, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *aliasGraph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		for i, n := range path {
			if n == node {
				return append(path[i:], node)
			}
		}
		panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.dependencies[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// topologicalSort returns alias keys with dependencies first
func (g *aliasGraph) topologicalSort() ([]string, error) {
	if cycle := g.findCycle(); cycle != nil {
		return nil, &CircularAliasError{Cycle: cycle}
	}

	visited := make(map[string]bool)
	var result []string
	for _, node := range g.nodes {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}
	return result, nil
}

func (g *aliasGraph) topologicalSortDFS(node string, visited map[string]bool, stack *[]string) {
	visited[node] = true
	for _, dep := range g.dependencies[node] {
		if !visited[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}
	*stack = append(*stack, node)
}

// matchAlias returns the longest key that equals specifier or prefixes it at
// a path boundary.
func matchAlias(keys []string, specifier string) (string, bool) {
	best := ""
	for _, key := range keys {
		if key == "" || len(key) <= len(best) {
			continue
		}
		if specifier == key || strings.HasPrefix(specifier, key+"/") {
			best = key
		}
	}
	return best, best != ""
}
