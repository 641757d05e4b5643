package graph

import (
	"errors"
	"testing"
)

func TestFindCycle_Acyclic(t *testing.T) {
	g := mustBuild(t,
		[]*Task{task("a", 1), task("b", 1), task("c", 1)},
		[]Edge{fs("a", "b"), fs("b", "c"), fs("a", "c")},
	)
	if cycle := g.FindCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
	if g.HasCycle() {
		t.Error("HasCycle on acyclic graph")
	}
}

func TestFindCycle_Simple(t *testing.T) {
	g := mustBuild(t,
		[]*Task{task("a", 1), task("b", 1)},
		[]Edge{fs("a", "b"), fs("b", "a")},
	)
	cycle := g.FindCycle()
	if len(cycle) != 2 {
		t.Fatalf("expected 2-node cycle, got %v", cycle)
	}
}

func TestFindCycle_LongPath(t *testing.T) {
	tasks := []*Task{task("a", 1), task("b", 1), task("c", 1), task("d", 1)}
	edges := []Edge{fs("a", "b"), fs("b", "c"), fs("c", "d"), fs("d", "b")}
	g := mustBuild(t, tasks, edges)

	cycle := g.FindCycle()
	if len(cycle) != 3 {
		t.Fatalf("expected 3-node cycle, got %v", cycle)
	}
	// The cycle must be closed: each node's successor set contains the
	// next, wrapping around.
	for i, id := range cycle {
		next := cycle[(i+1)%len(cycle)]
		found := false
		for _, s := range g.Successors(id) {
			if s == next {
				found = true
			}
		}
		if !found {
			t.Errorf("cycle %v broken at %s -> %s", cycle, id, next)
		}
	}
}

func TestFindCycle_DeepChainDoesNotRecurse(t *testing.T) {
	// A long chain with a back edge at the end. The iterative traversal
	// must handle depth well past any default recursion comfort zone.
	const n = 20000
	tasks := make([]*Task, n)
	edges := make([]Edge, 0, n)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = nodeID(i)
		tasks[i] = task(ids[i], 1)
		if i > 0 {
			edges = append(edges, fs(ids[i-1], ids[i]))
		}
	}
	edges = append(edges, fs(ids[n-1], ids[0]))

	g := mustBuild(t, tasks, edges)
	cycle := g.FindCycle()
	if len(cycle) != n {
		t.Fatalf("expected cycle of %d nodes, got %d", n, len(cycle))
	}
}

func nodeID(i int) string {
	// Zero-padded so lexical order matches numeric order.
	const digits = "0123456789"
	buf := []byte{'t', '0', '0', '0', '0', '0'}
	for pos := len(buf) - 1; i > 0 && pos > 0; pos-- {
		buf[pos] = digits[i%10]
		i /= 10
	}
	return string(buf)
}

func TestCycleError_Unwrap(t *testing.T) {
	err := &CycleError{Cycle: []string{"a", "b"}}
	if !errors.Is(err, ErrCycle) {
		t.Error("CycleError should unwrap to ErrCycle")
	}
}
