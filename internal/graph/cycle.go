package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is returned when the dependency graph is not acyclic. A
// cyclic graph is a hard stop: no timing pass runs on it.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError carries the offending cycle as an ordered list of task ids
// so callers can present it.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle.Error(), strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// DFS colors. A gray node is on the current traversal path; reaching a
// gray node again closes a cycle.
const (
	white = iota
	gray
	black
)

// HasCycle reports whether the graph contains a dependency cycle.
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns one cycle as an ordered list of task ids, or nil if
// the graph is acyclic. The traversal is an iterative three-color DFS
// with an explicit stack, so deep graphs cannot blow the call stack.
// Task ids are visited in sorted order for deterministic output.
func (g *Graph) FindCycle() []string {
	color := make(map[string]int, len(g.Tasks))
	parent := make(map[string]string, len(g.Tasks))

	// frame tracks how far into a node's successor list the traversal is.
	type frame struct {
		id   string
		next int
	}

	for _, start := range g.TaskIDs() {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := g.Successors(top.id)
			if top.next >= len(succs) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := succs[top.next]
			top.next++

			switch color[next] {
			case white:
				color[next] = gray
				parent[next] = top.id
				stack = append(stack, frame{id: next})
			case gray:
				// Back edge top.id -> next closes the cycle. Walk parents
				// from top.id back to next to reconstruct it.
				cycle := []string{next}
				for cur := top.id; cur != next; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				// Reverse into forward (dependency) order.
				for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
		}
	}
	return nil
}
