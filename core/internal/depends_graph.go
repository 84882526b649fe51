package internal

import (
	"fmt"
	"sort"
)

type Node struct {
	ID           string
	Dependencies []string
}

type Graph map[string]*Node

func NewDependsGraph() Graph {
	return make(Graph)
}

func (g Graph) AddNode(id string, dependencies ...string) {
	g[id] = &Node{
		ID:           id,
		Dependencies: dependencies,
	}
}

// Build orders the nodes so every node follows its dependencies.
// Independent nodes keep a stable, alphabetical order.
func (g Graph) Build() ([]string, error) {
	visited := make(map[string]bool)
	visitedStack := make(map[string]bool)
	result := make([]string, 0, len(g))

	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := g.process(id, visited, visitedStack, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (g Graph) process(id string, visited, visitedStack map[string]bool, result *[]string) error {
	if visitedStack[id] {
		return fmt.Errorf("cycle detected for node: %s", id)
	}

	if visited[id] {
		return nil
	}

	node, ok := g[id]
	if !ok {
		return fmt.Errorf("dependency not found: %s", id)
	}

	visitedStack[id] = true
	for _, dep := range node.Dependencies {
		if err := g.process(dep, visited, visitedStack, result); err != nil {
			return err
		}
	}
	visited[id] = true
	visitedStack[id] = false
	*result = append(*result, id)

	return nil
}
