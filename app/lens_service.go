package app

import (
	"context"
	"fmt"
	"log"

	"opencm/domain/core"
	"opencm/domain/model"
	"opencm/internal/compose"
	"opencm/internal/lens"
	"opencm/internal/registry"
	"opencm/internal/validate"
	"opencm/ports"
)

// LensService is the facade collaborators call: it owns the frozen registry
// and orchestrates validate, compose, simulate, and compare. It embeds no
// rendering or I/O beyond the injected ports.
type LensService struct {
	source ports.ModelSource
	rng    ports.RNG

	registry *registry.Registry
}

// NewLensService wires the service. Discover must run before any
// registry-backed operation.
func NewLensService(source ports.ModelSource, rng ports.RNG) *LensService {
	return &LensService{source: source, rng: rng}
}

// Discover scans the source and freezes the registry. It is the only
// mutating phase; once it returns, the service is safe for concurrent use.
func (s *LensService) Discover(ctx context.Context) error {
	r, err := registry.Discover(ctx, s.source)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	s.registry = r
	return nil
}

// Registry exposes the frozen index.
func (s *LensService) Registry() (*registry.Registry, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("registry not built; call Discover first")
	}
	return s.registry, nil
}

// Validate parses and validates a raw document.
func (s *LensService) Validate(data []byte) (*model.CausalModel, []validate.Diagnostic) {
	return validate.ValidateBytes(data)
}

// SimulateOptions configure a single-lens simulation request.
type SimulateOptions struct {
	Samples     int
	Seed        int64
	Workers     int
	KeepSamples bool
}

// Simulate loads one registered model as a lens and runs the intervention.
func (s *LensService) Simulate(ctx context.Context, id core.ModelID, intervention map[core.VariableID]float64, opts SimulateOptions) (map[core.VariableID]lens.EffectEstimate, []validate.Diagnostic, error) {
	r, err := s.Registry()
	if err != nil {
		return nil, nil, err
	}
	m, err := r.Get(id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", core.ErrModelNotFound, id)
	}

	l, err := lens.Apply(m)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[LensService] applying lens %s (session %s)", m.ID, l.Session)

	return lens.Simulate(ctx, l, intervention, lens.Options{
		Samples:     opts.Samples,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		KeepSamples: opts.KeepSamples,
		RNG:         s.rng,
	})
}

// Compose merges the named registered models, in order, into a new model.
func (s *LensService) Compose(ctx context.Context, ids []core.ModelID) (*model.CausalModel, error) {
	r, err := s.Registry()
	if err != nil {
		return nil, err
	}
	models := make([]*model.CausalModel, len(ids))
	for i, id := range ids {
		m, err := r.Get(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", core.ErrModelNotFound, id)
		}
		models[i] = m
	}
	merged, err := compose.Compose(models)
	if err != nil {
		return nil, err
	}
	log.Printf("[LensService] composed %d models into %s", len(ids), merged.ID)
	return merged, nil
}

// Compare runs one intervention across several lenses.
func (s *LensService) Compare(ctx context.Context, ids []core.ModelID, intervention map[core.VariableID]float64, opts SimulateOptions) (*registry.ComparisonResult, error) {
	r, err := s.Registry()
	if err != nil {
		return nil, err
	}
	return r.CompareLenses(ctx, ids, intervention, lens.Options{
		Samples:     opts.Samples,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		KeepSamples: opts.KeepSamples,
		RNG:         s.rng,
	})
}
