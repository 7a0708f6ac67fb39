// Package lens implements the simulation engine: a Lens binds a validated
// causal model into an active evaluation context with a cached topological
// order, and Simulate runs Monte Carlo draws over it under interventions.
package lens

import (
	"opencm/domain/core"
	"opencm/domain/expr"
	"opencm/domain/model"
	"opencm/internal/validate"
)

// Lens is a validated model bound for simulation. The topological order is
// computed once at Apply time; the underlying model is never mutated, so any
// number of lenses and simulations may share it concurrently.
type Lens struct {
	Model   *model.CausalModel
	Session core.SessionID

	order []core.VariableID
	// identifiers actually used by each equation, precomputed so the
	// per-sample walk does not re-walk ASTs.
	equationIdents map[core.VariableID][]core.VariableID
}

// Apply computes and caches the model's topological evaluation order using
// Kahn's algorithm, breaking ties by variable declaration order so the walk
// is deterministic. A model whose edges do not form a DAG (possible only if
// the caller skipped validation) is rejected with a cycle error.
func Apply(m *model.CausalModel) (*Lens, error) {
	// Defensive re-check: Apply trusts nobody about acyclicity.
	if cycle := validate.FindCycleInModel(m); cycle != nil {
		return nil, core.NewCycleError(cycle)
	}

	indegree := make(map[core.VariableID]int, len(m.Variables))
	for _, id := range m.VariableOrder {
		indegree[id] = 0
	}
	for _, e := range m.Edges {
		indegree[e.Target]++
	}

	order := make([]core.VariableID, 0, len(m.Variables))
	processed := make(map[core.VariableID]bool, len(m.Variables))
	for len(order) < len(m.VariableOrder) {
		// Pick the first zero-indegree variable in declaration order.
		picked := false
		for _, id := range m.VariableOrder {
			if !processed[id] && indegree[id] == 0 {
				order = append(order, id)
				processed[id] = true
				for _, e := range m.Edges {
					if e.Source == id {
						indegree[e.Target]--
					}
				}
				picked = true
				break
			}
		}
		if !picked {
			// Unreachable after the cycle re-check above.
			return nil, core.NewCycleError(nil)
		}
	}

	idents := make(map[core.VariableID][]core.VariableID, len(m.Equations))
	for target, eq := range m.Equations {
		for _, name := range expr.Identifiers(eq.AST) {
			idents[target] = append(idents[target], core.VariableID(name))
		}
	}

	return &Lens{
		Model:          m,
		Session:        core.NewSessionID(),
		order:          order,
		equationIdents: idents,
	}, nil
}

// Order returns a copy of the cached topological evaluation order.
func (l *Lens) Order() []core.VariableID {
	return append([]core.VariableID(nil), l.order...)
}
