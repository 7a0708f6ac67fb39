package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"opencm/domain/core"
)

// Document is the raw, schema-level form of an OpenCM JSON document. Field
// presence and defaults are resolved here; semantic rules are the
// validator's job. The engine accepts in-memory documents only; reading
// files is the collaborator's responsibility.
type Document struct {
	OpenCMVersion string                 `json:"opencm_version"`
	Model         ModelSection           `json:"model"`
	Variables     map[string]VariableDef `json:"variables"`
	Edges         []EdgeDef              `json:"edges"`
	Equations     map[string]EquationDef `json:"structural_equations,omitempty"`
	Assumptions   []string               `json:"assumptions,omitempty"`
	Validation    *ValidationConfig      `json:"validation,omitempty"`
	Metadata      *Metadata              `json:"metadata,omitempty"`

	// VariableOrder preserves the declaration order of the variables object,
	// which JSON maps otherwise discard.
	VariableOrder []string `json:"-"`

	present map[string]bool
}

// Has reports whether the named top-level field appeared in the source JSON.
func (d *Document) Has(field string) bool {
	return d.present[field]
}

// ModelSection is the identity block of a document.
type ModelSection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

// VariableDef is a raw variable definition. Pointer fields distinguish
// absent from zero so defaults apply only when a field is omitted.
type VariableDef struct {
	Type         string      `json:"type,omitempty"`
	Domain       *[2]float64 `json:"domain,omitempty"`
	Unit         string      `json:"unit,omitempty"`
	Description  string      `json:"description,omitempty"`
	Observed     *bool       `json:"observed,omitempty"`
	DefaultValue *float64    `json:"default_value,omitempty"`
	Categories   []string    `json:"categories,omitempty"`
}

// EdgeDef is a raw edge definition.
type EdgeDef struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Type        string   `json:"type,omitempty"`
	Strength    *float64 `json:"strength,omitempty"`
	Description string   `json:"description,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	IsLearned   bool     `json:"is_learned,omitempty"`
}

// EquationDef is a raw structural equation. A document may use the short
// string form ("0.6 - 0.15*SupplierPower") or the structured object form.
type EquationDef struct {
	Type              string             `json:"type,omitempty"`
	Expression        string             `json:"expression"`
	NoiseDistribution string             `json:"noise_distribution,omitempty"`
	NoiseParams       map[string]float64 `json:"noise_params,omitempty"`
}

// UnmarshalJSON accepts both the string and the object equation forms.
func (e *EquationDef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*e = EquationDef{Expression: s}
		return nil
	}
	type plain EquationDef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = EquationDef(p)
	return nil
}

// MarshalJSON emits the short string form for plain linear equations with
// default normal noise, the structured form otherwise.
func (e EquationDef) MarshalJSON() ([]byte, error) {
	simple := (e.Type == "" || e.Type == string(EquationLinear)) &&
		(e.NoiseDistribution == "" || e.NoiseDistribution == string(NoiseNormal)) &&
		e.NoiseParams == nil
	if simple {
		return json.Marshal(e.Expression)
	}
	type plain EquationDef
	return json.Marshal(plain(e))
}

// ParseDocument decodes raw JSON into a Document, recording top-level field
// presence and the declaration order of the variables object.
func ParseDocument(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: document is not a JSON object: %v", core.ErrSchema, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSchema, err)
	}

	doc.present = make(map[string]bool, len(top))
	for k := range top {
		doc.present[k] = true
	}

	if raw, ok := top["variables"]; ok {
		order, err := objectKeyOrder(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: variables must be an object: %v", core.ErrSchema, err)
		}
		doc.VariableOrder = order
	}

	return &doc, nil
}

// objectKeyOrder walks a JSON object's tokens and returns its top-level keys
// in source order.
func objectKeyOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		keys = append(keys, key)

		// Skip the key's value entirely.
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
