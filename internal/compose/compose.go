// Package compose merges validated causal models into a new model. The
// merge is deterministic and order-sensitive: for a fixed input order the
// result is always identical, and collisions resolve by explicit
// first-wins / highest-confidence rules rather than set semantics.
package compose

import (
	"fmt"
	"strings"

	"opencm/domain/core"
	"opencm/domain/model"
	"opencm/internal/validate"
)

// Compose merges models left to right into a new CausalModel:
//
//   - variables union by id, earliest model wins a collision
//   - edges union by (source, target), higher confidence wins, ties to the
//     earliest model
//   - equations union by target, earliest model wins
//   - assumptions concatenate in input order, each prefixed with its
//     originating model id
//
// Inputs are never mutated. A cycle introduced purely by the union fails
// the whole merge; partial merges are never returned.
func Compose(models []*model.CausalModel) (*model.CausalModel, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models to compose", core.ErrComposition)
	}
	if len(models) == 1 {
		return clone(models[0]), nil
	}

	merged := &model.CausalModel{
		ID:          compositeID(models),
		Name:        compositeName(models),
		Version:     "1.0.0",
		Domain:      models[0].Domain,
		Description: fmt.Sprintf("Composition of %d models", len(models)),
		Variables:   make(map[core.VariableID]model.Variable),
		Equations:   make(map[core.VariableID]model.StructuralEquation),
	}

	// Variables: first declaration wins. Shared ids become join points
	// bridging the input structures; the union alone is the bookkeeping.
	for _, m := range models {
		for _, id := range m.VariableOrder {
			if _, taken := merged.Variables[id]; taken {
				continue
			}
			merged.Variables[id] = m.Variables[id]
			merged.VariableOrder = append(merged.VariableOrder, id)
		}
	}

	// Edges: keyed by (source, target); keep the higher-confidence edge,
	// earliest model on ties. Order-preserving so the result is stable.
	edgeIndex := map[[2]core.VariableID]int{}
	for _, m := range models {
		for _, e := range m.Edges {
			key := [2]core.VariableID{e.Source, e.Target}
			if at, seen := edgeIndex[key]; seen {
				if e.Confidence > merged.Edges[at].Confidence {
					merged.Edges[at] = e
				}
				continue
			}
			edgeIndex[key] = len(merged.Edges)
			merged.Edges = append(merged.Edges, e)
		}
	}

	// Equations: earliest model wins per target.
	for _, m := range models {
		for target, eq := range m.Equations {
			if _, taken := merged.Equations[target]; taken {
				continue
			}
			merged.Equations[target] = eq
		}
	}

	// Assumptions carry provenance prefixes, in input order.
	for _, m := range models {
		for _, a := range m.Assumptions {
			merged.Assumptions = append(merged.Assumptions, fmt.Sprintf("[%s] %s", m.ID, a))
		}
	}

	merged.Metadata = &model.Metadata{
		CreatedAt:       core.Now().String(),
		AdaptationNotes: fmt.Sprintf("composed from: %s", compositeID(models)),
	}

	// Re-run referential integrity and cycle detection over the union.
	if err := checkMerged(merged); err != nil {
		return nil, err
	}

	merged.Fingerprint = merged.ComputeFingerprint()
	return merged, nil
}

// clone copies a model deeply enough that mutating the result cannot reach
// the input. Fingerprint carries over unchanged since structure is identical.
func clone(m *model.CausalModel) *model.CausalModel {
	out := *m
	out.Variables = make(map[core.VariableID]model.Variable, len(m.Variables))
	for id, v := range m.Variables {
		out.Variables[id] = v
	}
	out.VariableOrder = append([]core.VariableID(nil), m.VariableOrder...)
	out.Edges = append([]model.Edge(nil), m.Edges...)
	out.Equations = make(map[core.VariableID]model.StructuralEquation, len(m.Equations))
	for target, eq := range m.Equations {
		out.Equations[target] = eq
	}
	out.Assumptions = append([]string(nil), m.Assumptions...)
	if m.Validation != nil {
		v := *m.Validation
		out.Validation = &v
	}
	if m.Metadata != nil {
		md := *m.Metadata
		out.Metadata = &md
	}
	return &out
}

// checkMerged re-validates the merged graph: every edge endpoint must still
// resolve and the union must still be a DAG.
func checkMerged(m *model.CausalModel) error {
	for _, e := range m.Edges {
		if !m.HasVariable(e.Source) {
			return fmt.Errorf("%w: %w: edge source %q missing from merged variables", core.ErrComposition, core.ErrReferential, e.Source)
		}
		if !m.HasVariable(e.Target) {
			return fmt.Errorf("%w: %w: edge target %q missing from merged variables", core.ErrComposition, core.ErrReferential, e.Target)
		}
	}
	if cycle := validate.FindCycleInModel(m); cycle != nil {
		return fmt.Errorf("%w: union introduces a cycle: %v", core.ErrComposition, cycle)
	}
	return nil
}

// compositeID joins the input ids with "__", which keeps the result inside
// the model id slug grammar.
func compositeID(models []*model.CausalModel) core.ModelID {
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID.String()
	}
	return core.ModelID(strings.Join(ids, "__"))
}

func compositeName(models []*model.CausalModel) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return strings.Join(names, " + ")
}
