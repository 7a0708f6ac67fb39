package registry

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"opencm/domain/core"
	"opencm/internal/lens"
	"opencm/internal/validate"
)

// ComparisonResult is the outcome of running one intervention across
// several lenses. SharedVariables is the intersection of all compared
// models' variable ids; estimates and diagnostics are keyed by model id.
type ComparisonResult struct {
	SharedVariables []core.VariableID                                         `json:"shared_variables"`
	Estimates       map[core.ModelID]map[core.VariableID]lens.EffectEstimate `json:"estimates"`
	Diagnostics     map[core.ModelID][]validate.Diagnostic                   `json:"diagnostics,omitempty"`
}

// CompareLenses loads each named model as a lens, applies the subset of the
// intervention whose keys the model declares (missing keys are skipped with
// a warning, since lenses need not share variables), and simulates them
// concurrently. Each lens reads its own immutable model, so the per-model
// simulations run in parallel without locking.
func (r *Registry) CompareLenses(ctx context.Context, ids []core.ModelID, intervention map[core.VariableID]float64, opts lens.Options) (*ComparisonResult, error) {
	if len(ids) == 0 {
		return nil, core.NewSimulationError("no models to compare")
	}

	lenses := make([]*lens.Lens, len(ids))
	for i, id := range ids {
		m, err := r.Get(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", core.ErrModelNotFound, id)
		}
		l, err := lens.Apply(m)
		if err != nil {
			return nil, err
		}
		lenses[i] = l
	}

	result := &ComparisonResult{
		SharedVariables: sharedVariables(lenses),
		Estimates:       make(map[core.ModelID]map[core.VariableID]lens.EffectEstimate, len(ids)),
		Diagnostics:     make(map[core.ModelID][]validate.Diagnostic, len(ids)),
	}

	type outcome struct {
		id    core.ModelID
		est   map[core.VariableID]lens.EffectEstimate
		diags []validate.Diagnostic
	}
	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lenses {
		g.Go(func() error {
			applied, skipDiags := filterIntervention(l, intervention)
			est, diags, err := lens.Simulate(gctx, l, applied, opts)
			if err != nil {
				return fmt.Errorf("lens %q: %w", l.Model.ID, err)
			}
			outcomes[i] = outcome{id: l.Model.ID, est: est, diags: append(skipDiags, diags...)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		result.Estimates[o.id] = o.est
		if len(o.diags) > 0 {
			result.Diagnostics[o.id] = o.diags
		}
	}
	return result, nil
}

// filterIntervention keeps only the intervention keys the lens's model
// declares, emitting a warning diagnostic per skipped key. Keys are walked
// in sorted order so the warnings come out in a stable order.
func filterIntervention(l *lens.Lens, intervention map[core.VariableID]float64) (map[core.VariableID]float64, []validate.Diagnostic) {
	keys := make([]core.VariableID, 0, len(intervention))
	for id := range intervention {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	applied := make(map[core.VariableID]float64, len(intervention))
	var diags []validate.Diagnostic
	for _, id := range keys {
		if l.Model.HasVariable(id) {
			applied[id] = intervention[id]
			continue
		}
		diags = append(diags, validate.Diagnostic{
			Severity: validate.SeverityWarning,
			Code:     validate.CodeInterventionSkipped,
			Message:  fmt.Sprintf("model %q does not declare %q; intervention key skipped", l.Model.ID, id),
		})
	}
	return applied, diags
}

// sharedVariables is the sorted intersection of all lenses' variable ids.
func sharedVariables(lenses []*lens.Lens) []core.VariableID {
	counts := map[core.VariableID]int{}
	for _, l := range lenses {
		for id := range l.Model.Variables {
			counts[id]++
		}
	}
	var shared []core.VariableID
	for id, n := range counts {
		if n == len(lenses) {
			shared = append(shared, id)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}
