package model

import (
	"encoding/json"
	"fmt"

	"opencm/domain/core"
)

// MarshalJSON encodes a range as the document's [min, max] pair.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

// UnmarshalJSON decodes a [min, max] pair.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: domain must be [min, max]: %v", core.ErrSchema, err)
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// Serialize exports a validated model back to document form. The output
// round-trips: parsing and validating it reproduces an equivalent model.
func Serialize(m *CausalModel) *Document {
	doc := &Document{
		OpenCMVersion: FormatVersion,
		Model: ModelSection{
			ID:          m.ID.String(),
			Name:        m.Name,
			Version:     m.Version,
			Domain:      m.Domain,
			Description: m.Description,
		},
		Variables:   make(map[string]VariableDef, len(m.Variables)),
		Assumptions: m.Assumptions,
		Validation:  m.Validation,
		Metadata:    m.Metadata,
	}

	for _, id := range m.VariableOrder {
		v := m.Variables[id]
		domain := [2]float64{v.Domain.Min, v.Domain.Max}
		observed := v.Observed
		doc.Variables[id.String()] = VariableDef{
			Type:         string(v.Type),
			Domain:       &domain,
			Unit:         v.Unit,
			Description:  v.Description,
			Observed:     &observed,
			DefaultValue: v.DefaultValue,
			Categories:   v.Categories,
		}
		doc.VariableOrder = append(doc.VariableOrder, id.String())
	}

	for _, e := range m.Edges {
		strength := e.Strength
		def := EdgeDef{
			Source:      e.Source.String(),
			Target:      e.Target.String(),
			Type:        string(e.Type),
			Strength:    &strength,
			Description: e.Description,
			IsLearned:   e.IsLearned,
		}
		// Confidence 1.0 is the default and stays implicit, matching how
		// hand-written documents are usually authored.
		if e.Confidence != 1.0 {
			confidence := e.Confidence
			def.Confidence = &confidence
		}
		doc.Edges = append(doc.Edges, def)
	}

	if len(m.Equations) > 0 {
		doc.Equations = make(map[string]EquationDef, len(m.Equations))
		for target, eq := range m.Equations {
			def := EquationDef{
				Type:       string(eq.Type),
				Expression: eq.Expression,
			}
			if eq.Noise != DefaultNoise() {
				def.NoiseDistribution = string(eq.Noise.Distribution)
				switch eq.Noise.Distribution {
				case NoiseUniform:
					def.NoiseParams = map[string]float64{"low": eq.Noise.Low, "high": eq.Noise.High}
				default:
					def.NoiseParams = map[string]float64{"mean": eq.Noise.Mean, "std": eq.Noise.Std}
				}
			}
			doc.Equations[target.String()] = def
		}
	}

	return doc
}

// Encode renders a document as indented UTF-8 JSON, the conventional
// on-disk form of an .opencm.json file.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
