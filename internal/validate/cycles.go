package validate

import "opencm/domain/model"

// FindCycle runs a depth-first search over the edge graph tracking the
// recursion stack. On revisiting a stack member it returns the cycle as the
// ordered vertex list from the revisited node back to itself (first == last);
// nil means the graph is a DAG. Roots are visited in declaration order and
// adjacency in edge order, so the reported cycle is deterministic.
func FindCycle(order []string, edges []model.EdgeDef) []string {
	adjacency := map[string][]string{}
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := map[string]int{}
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		state[node] = onStack
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			switch state[next] {
			case onStack:
				// Walk the stack back to the revisited node.
				start := len(stack) - 1
				for start >= 0 && stack[start] != next {
					start--
				}
				cycle = append(append([]string{}, stack[start:]...), next)
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = done
		return false
	}

	for _, root := range order {
		if state[root] == unvisited {
			if visit(root) {
				return cycle
			}
		}
	}
	return nil
}

// FindCycleInModel re-checks acyclicity over a built model's edges. Used by
// the lens engine's defensive re-check and by composition, which must reject
// a merge that introduces a cycle.
func FindCycleInModel(m *model.CausalModel) []string {
	order := make([]string, 0, len(m.VariableOrder))
	for _, id := range m.VariableOrder {
		order = append(order, id.String())
	}
	edges := make([]model.EdgeDef, 0, len(m.Edges))
	for _, e := range m.Edges {
		edges = append(edges, model.EdgeDef{Source: e.Source.String(), Target: e.Target.String()})
	}
	return FindCycle(order, edges)
}
