// Package registry loads a collection of models once and exposes them
// through read-only indexes, plus the multi-lens comparison facility.
package registry

import (
	"context"
	"log"
	"sort"

	"opencm/domain/core"
	"opencm/domain/model"
	"opencm/internal/validate"
	"opencm/ports"
)

// SkippedModel records a document that failed validation during discovery.
type SkippedModel struct {
	Origin      string                `json:"origin"`
	Diagnostics []validate.Diagnostic `json:"diagnostics"`
}

// Registry is a frozen id -> model index with a domain secondary index.
// Discovery is the only phase that mutates it; once Discover returns, the
// registry is read-only and safe for unrestricted concurrent lookups.
type Registry struct {
	models   map[core.ModelID]*model.CausalModel
	byDomain map[string][]core.ModelID
	ids      []core.ModelID
	skipped  []SkippedModel
}

// Discover scans every document the source lists, validates each, and
// builds the index. Invalid documents are skipped and recorded, not fatal;
// duplicate model ids keep the first occurrence. The returned registry is
// frozen.
func Discover(ctx context.Context, source ports.ModelSource) (*Registry, error) {
	raws, err := source.List(ctx)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		models:   make(map[core.ModelID]*model.CausalModel, len(raws)),
		byDomain: make(map[string][]core.ModelID),
	}

	for _, raw := range raws {
		m, diags := validate.ValidateBytes(raw.Data)
		if m == nil {
			log.Printf("[Registry] skipping %s: %d validation error(s)", raw.Origin, len(validate.Errors(diags)))
			r.skipped = append(r.skipped, SkippedModel{Origin: raw.Origin, Diagnostics: diags})
			continue
		}
		if _, dup := r.models[m.ID]; dup {
			log.Printf("[Registry] skipping %s: duplicate model id %q", raw.Origin, m.ID)
			continue
		}
		r.models[m.ID] = m
		r.byDomain[m.Domain] = append(r.byDomain[m.Domain], m.ID)
		r.ids = append(r.ids, m.ID)
	}

	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	for _, ids := range r.byDomain {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	log.Printf("[Registry] discovered %d model(s), skipped %d", len(r.ids), len(r.skipped))
	return r, nil
}

// Get returns the model for an id.
func (r *Registry) Get(id core.ModelID) (*model.CausalModel, error) {
	m, ok := r.models[id]
	if !ok {
		return nil, core.ErrModelNotFound
	}
	return m, nil
}

// IDs returns all indexed model ids, sorted.
func (r *Registry) IDs() []core.ModelID {
	return append([]core.ModelID(nil), r.ids...)
}

// ByDomain returns the ids registered under a domain tag, sorted.
func (r *Registry) ByDomain(domain string) []core.ModelID {
	return append([]core.ModelID(nil), r.byDomain[domain]...)
}

// Len returns the number of indexed models.
func (r *Registry) Len() int { return len(r.models) }

// Skipped returns the documents rejected during discovery.
func (r *Registry) Skipped() []SkippedModel {
	return append([]SkippedModel(nil), r.skipped...)
}
