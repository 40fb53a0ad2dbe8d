package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openfroyo/confsync/pkg/model"
)

// Graph is the dependency graph of a set of operations. Operations are
// addressed by their position in the working set; an edge i -> j means
// operation i must be applied before operation j.
//
// An edge is added when operation j's entity references the entity of
// operation i and operation i is a Create. References to entities that
// already exist remotely impose no order.
type Graph struct {
	// operations is the working set, in position order
	operations []*Operation

	// dependents maps a position to the positions that depend on it
	dependents [][]int

	// dependencies maps a position to the positions it depends on
	dependencies [][]int
}

// BuildGraph links the operations by reference.
func BuildGraph(operations []*Operation) *Graph {
	g := &Graph{
		operations:   operations,
		dependents:   make([][]int, len(operations)),
		dependencies: make([][]int, len(operations)),
	}

	creates := make(map[model.Reference]int)
	for i, op := range operations {
		if op.Type == OperationCreate {
			creates[op.Ref()] = i
		}
	}

	for j, op := range operations {
		for _, ref := range op.Entity.References() {
			i, ok := creates[ref]
			if !ok {
				continue
			}
			g.dependents[i] = append(g.dependents[i], j)
			g.dependencies[j] = append(g.dependencies[j], i)
		}
	}

	for i := range operations {
		sort.Ints(g.dependents[i])
		sort.Ints(g.dependencies[i])
	}
	return g
}

// Operations returns the working set in position order.
func (g *Graph) Operations() []*Operation {
	return g.operations
}

// Len returns the number of operations.
func (g *Graph) Len() int {
	return len(g.operations)
}

// Dependents returns the positions that must follow position i.
func (g *Graph) Dependents(i int) []int {
	return g.dependents[i]
}

// Dependencies returns the positions that must precede position i.
func (g *Graph) Dependencies(i int) []int {
	return g.dependencies[i]
}

// Cycles returns every strongly connected component that contains a cycle,
// as sorted positions. Components are ordered by their first position.
func (g *Graph) Cycles() [][]int {
	t := &tarjan{
		graph:   g,
		index:   make([]int, len(g.operations)),
		lowlink: make([]int, len(g.operations)),
		onStack: make([]bool, len(g.operations)),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := range g.operations {
		if t.index[i] < 0 {
			t.strongConnect(i)
		}
	}

	var cycles [][]int
	for _, component := range t.components {
		if len(component) > 1 || g.hasSelfEdge(component[0]) {
			sort.Ints(component)
			cycles = append(cycles, component)
		}
	}
	sort.Slice(cycles, func(a, b int) bool { return cycles[a][0] < cycles[b][0] })
	return cycles
}

// HasCycle reports whether the graph contains a cycle.
func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}

func (g *Graph) hasSelfEdge(i int) bool {
	for _, j := range g.dependents[i] {
		if j == i {
			return true
		}
	}
	return false
}

// tarjan holds the state of Tarjan's strongly connected components
// algorithm.
type tarjan struct {
	graph      *Graph
	counter    int
	index      []int
	lowlink    []int
	onStack    []bool
	stack      []int
	components [][]int
}

func (t *tarjan) strongConnect(v int) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph.dependents[v] {
		if t.index[w] < 0 {
			t.strongConnect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var component []int
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, component)
}

// Sort returns the operations in a topological order. Among operations that
// are ready at the same time the one with the lowest position comes first,
// so the order is reproducible.
func (g *Graph) Sort() ([]*Operation, error) {
	inDegree := make([]int, len(g.operations))
	var ready []int
	for i := range g.operations {
		inDegree[i] = len(g.dependencies[i])
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	sorted := make([]*Operation, 0, len(g.operations))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, g.operations[next])

		for _, dependent := range g.dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				at := sort.SearchInts(ready, dependent)
				ready = append(ready, 0)
				copy(ready[at+1:], ready[at:])
				ready[at] = dependent
			}
		}
	}

	// Should never happen once cycles have been ruled out.
	if len(sorted) != len(g.operations) {
		return nil, NewPermanentError("failed to order all operations - possible cycle", nil).
			WithCode(ErrCodeInternal)
	}
	return sorted, nil
}

// BreakCycles replaces every Create taking part in a cycle whose entity has a
// bare variant with a Create of the bare variant, at the same position, and
// an UpdateReference of the original entity appended after the working set.
// Operations without a bare variant are kept as they are. It returns the new
// working set and the number of operations split; an acyclic working set is
// returned unchanged.
func BreakCycles(operations []*Operation) ([]*Operation, int) {
	cycles := BuildGraph(operations).Cycles()
	if len(cycles) == 0 {
		return operations, 0
	}

	cyclic := make(map[int]bool)
	for _, cycle := range cycles {
		for _, i := range cycle {
			cyclic[i] = true
		}
	}

	working := make([]*Operation, 0, len(operations)+len(cyclic))
	var deferred []*Operation
	for i, op := range operations {
		if cyclic[i] && op.Type == OperationCreate {
			if bare, ok := op.Entity.Bare(); ok {
				working = append(working, &Operation{Type: OperationCreate, Entity: bare})
				deferred = append(deferred, &Operation{Type: OperationUpdateReference, Entity: op.Entity})
				continue
			}
		}
		working = append(working, op)
	}
	return append(working, deferred...), len(deferred)
}

// Linearize builds the dependency graph of operations, breaks cycles once
// and returns the final acyclic graph with the number of operations split.
// A cycle surviving the breaking pass is returned as a *CycleError.
func Linearize(operations []*Operation) (*Graph, int, error) {
	graph := BuildGraph(operations)
	if !graph.HasCycle() {
		return graph, 0, nil
	}

	working, split := BreakCycles(operations)
	graph = BuildGraph(working)
	if cycles := graph.Cycles(); len(cycles) > 0 {
		return nil, split, graph.cycleError(cycles)
	}
	return graph, split, nil
}

func (g *Graph) cycleError(cycles [][]int) *CycleError {
	err := &CycleError{Cycles: make([][]model.Reference, len(cycles))}
	for i, cycle := range cycles {
		refs := make([]model.Reference, len(cycle))
		for k, position := range cycle {
			refs[k] = g.operations[position].Ref()
		}
		err.Cycles[i] = refs
	}
	return err
}

// ToDOT generates a DOT format representation of the graph for
// visualization. The output can be rendered with Graphviz tools.
func (g *Graph) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph OperationGraph {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=\"filled,rounded\"];\n\n")

	for i, op := range g.operations {
		sb.WriteString(fmt.Sprintf("  op%d [label=\"%s\\n%s\", fillcolor=\"%s\"];\n",
			i, op.Type.Label(), escapeDOT(op.Ref().String()), getOperationColor(op.Type)))
	}
	if len(g.operations) > 0 {
		sb.WriteString("\n")
	}

	for i := range g.operations {
		for _, j := range g.dependents[i] {
			sb.WriteString(fmt.Sprintf("  op%d -> op%d;\n", i, j))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// getOperationColor returns a color for visualizing operation types.
func getOperationColor(op OperationType) string {
	switch op {
	case OperationCreate:
		return "lightgreen"
	case OperationUpdate:
		return "lightyellow"
	case OperationUpdateReference:
		return "lightblue"
	default:
		return "lightgray"
	}
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
