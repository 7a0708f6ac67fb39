package lens

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"opencm/domain/core"
	"opencm/domain/expr"
	"opencm/domain/model"
	"opencm/internal/validate"
	"opencm/ports"
)

// Options configure one simulation run.
type Options struct {
	// Samples is the number of independent Monte Carlo draws (>= 1).
	Samples int
	// Seed is the base seed for noise streams. Zero means draw a fresh
	// seed from the RNG port's entropy source.
	Seed int64
	// Workers bounds concurrent sample evaluation; 0 means GOMAXPROCS.
	Workers int
	// KeepSamples retains each variable's raw sample sequence on its
	// estimate.
	KeepSamples bool
	// RNG supplies deterministic noise streams.
	RNG ports.RNG
}

// Simulate walks the lens's topological order once per sample, applies the
// do-operator for intervened variables, and aggregates per-variable effect
// estimates. Samples are embarrassingly parallel: each draw gets its own
// deterministic RNG stream, so concurrent and serial runs agree for a fixed
// seed.
//
// A math domain error during one sample invalidates that sample for the
// failing variable and its descendants only; it escalates to an error
// diagnostic only when it exhausts every sample for a variable.
func Simulate(ctx context.Context, l *Lens, intervention map[core.VariableID]float64, opts Options) (map[core.VariableID]EffectEstimate, []validate.Diagnostic, error) {
	if opts.Samples < 1 {
		return nil, nil, core.NewSimulationError(fmt.Sprintf("n_samples must be >= 1, got %d", opts.Samples))
	}
	if opts.RNG == nil {
		return nil, nil, core.NewSimulationError("no RNG configured")
	}
	for id := range intervention {
		if !l.Model.HasVariable(id) {
			return nil, nil, fmt.Errorf("%w: intervention references %q", core.ErrVariableNotFound, id)
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = opts.RNG.Seed()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Row-per-sample matrix; NaN marks an invalid value. Workers write
	// disjoint rows, so no locking is needed.
	matrix := make([][]float64, opts.Samples)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Samples; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := opts.RNG.Stream(seed, l.Model.ID.String(), strconv.Itoa(i))
			row, err := l.runSample(intervention, src)
			if err != nil {
				return err
			}
			matrix[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	estimates := make(map[core.VariableID]EffectEstimate, len(l.order))
	var diags []validate.Diagnostic

	for pos, id := range l.order {
		if pin, ok := intervention[id]; ok {
			estimates[id] = pinned(pin, opts.Samples)
			continue
		}

		valid := make([]float64, 0, opts.Samples)
		for _, row := range matrix {
			if !math.IsNaN(row[pos]) {
				valid = append(valid, row[pos])
			}
		}

		dropped := opts.Samples - len(valid)
		if dropped > 0 && len(valid) > 0 {
			diags = append(diags, validate.Diagnostic{
				Severity: validate.SeverityWarning,
				Code:     validate.CodeSampleDomainError,
				Message:  fmt.Sprintf("variable %q: %d of %d samples dropped after math domain errors", id, dropped, opts.Samples),
			})
		}
		if len(valid) == 0 {
			diags = append(diags, validate.Diagnostic{
				Severity: validate.SeverityError,
				Code:     validate.CodeEstimateUndefined,
				Message:  fmt.Sprintf("variable %q: all %d samples invalid, estimate undefined", id, opts.Samples),
			})
		}

		estimates[id] = aggregate(valid, opts.KeepSamples)
	}

	return estimates, diags, nil
}

// runSample evaluates every variable once, in topological order. The
// returned row is indexed by position in the cached order; NaN marks a value
// invalidated by a math domain error in the variable's own equation or in an
// ancestor's.
func (l *Lens) runSample(intervention map[core.VariableID]float64, src rand.Source) ([]float64, error) {
	m := l.Model
	row := make([]float64, len(l.order))
	values := make(map[string]float64, len(l.order))
	invalid := make(map[core.VariableID]bool)

	for pos, id := range l.order {
		// Do-operator: a pinned variable ignores its equation and edges,
		// as if every incoming edge were severed.
		if pin, ok := intervention[id]; ok {
			row[pos] = pin
			values[id.String()] = pin
			continue
		}

		variable := m.Variables[id]
		eq, hasEquation := m.Equations[id]
		incoming := m.IncomingEdges(id)

		switch {
		case !hasEquation && len(incoming) == 0:
			// Exogenous: declared default or domain midpoint, constant
			// across samples unless intervened.
			v := variable.StartValue()
			row[pos] = v
			values[id.String()] = v

		case hasEquation:
			if l.anyInvalid(invalid, l.equationIdents[id]) {
				invalid[id] = true
				row[pos] = math.NaN()
				continue
			}
			v, err := expr.Eval(eq.AST, values)
			if core.IsDomainError(err) {
				invalid[id] = true
				row[pos] = math.NaN()
				continue
			}
			if err != nil {
				// Unbound identifiers cannot survive validation; anything
				// else here is a programming error worth surfacing.
				return nil, err
			}
			v += drawNoise(eq.Noise, src)
			v = variable.Domain.Clip(v)
			row[pos] = v
			values[id.String()] = v

		default:
			// Endogenous without an equation: fallback linear combination
			// over incoming edges, signed by edge type.
			sum := 0.0
			bad := false
			for _, e := range incoming {
				if invalid[e.Source] {
					bad = true
					break
				}
				sum += model.SignFor(e.Type, e.Strength) * values[e.Source.String()]
			}
			if bad {
				invalid[id] = true
				row[pos] = math.NaN()
				continue
			}
			v := variable.Domain.Clip(sum)
			row[pos] = v
			values[id.String()] = v
		}
	}

	return row, nil
}

func (l *Lens) anyInvalid(invalid map[core.VariableID]bool, ids []core.VariableID) bool {
	for _, id := range ids {
		if invalid[id] {
			return true
		}
	}
	return false
}

// drawNoise samples one noise term. Zero-width distributions draw nothing,
// keeping zero-noise runs exactly deterministic.
func drawNoise(n model.Noise, src rand.Source) float64 {
	switch n.Distribution {
	case model.NoiseUniform:
		if n.Low >= n.High {
			return n.Low
		}
		return distuv.Uniform{Min: n.Low, Max: n.High, Src: src}.Rand()
	default:
		if n.Std == 0 {
			return n.Mean
		}
		return distuv.Normal{Mu: n.Mean, Sigma: n.Std, Src: src}.Rand()
	}
}
