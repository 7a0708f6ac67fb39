package model

import (
	"fmt"

	"opencm/domain/core"
	"opencm/domain/expr"
)

// FormatVersion is the OpenCM interchange version this engine implements.
const FormatVersion = "1.0"

// FileExtension is the conventional extension for OpenCM documents.
const FileExtension = ".opencm.json"

// VariableType classifies a variable's value space.
type VariableType string

const (
	VariableContinuous  VariableType = "continuous"
	VariableDiscrete    VariableType = "discrete"
	VariableBinary      VariableType = "binary"
	VariableCategorical VariableType = "categorical"
)

// ValidVariableTypes is the closed set of accepted variable types.
var ValidVariableTypes = map[VariableType]bool{
	VariableContinuous:  true,
	VariableDiscrete:    true,
	VariableBinary:      true,
	VariableCategorical: true,
}

// EdgeType classifies the causal relationship an edge encodes.
type EdgeType string

const (
	EdgeCauses     EdgeType = "causes"
	EdgeInhibits   EdgeType = "inhibits"
	EdgeCorrelates EdgeType = "correlates"
	EdgeMediates   EdgeType = "mediates"
	EdgeModerates  EdgeType = "moderates"
)

// ValidEdgeTypes is the closed set of accepted edge types.
var ValidEdgeTypes = map[EdgeType]bool{
	EdgeCauses:     true,
	EdgeInhibits:   true,
	EdgeCorrelates: true,
	EdgeMediates:   true,
	EdgeModerates:  true,
}

// EquationType classifies how a structural equation was derived or shaped.
type EquationType string

const (
	EquationLinear      EquationType = "linear"
	EquationPolynomial  EquationType = "polynomial"
	EquationExponential EquationType = "exponential"
	EquationLogistic    EquationType = "logistic"
	EquationInteraction EquationType = "interaction"
	EquationSynergy     EquationType = "synergy"
	EquationCustom      EquationType = "custom"
)

// ValidEquationTypes is the closed set of accepted equation types.
var ValidEquationTypes = map[EquationType]bool{
	EquationLinear:      true,
	EquationPolynomial:  true,
	EquationExponential: true,
	EquationLogistic:    true,
	EquationInteraction: true,
	EquationSynergy:     true,
	EquationCustom:      true,
}

// NoiseDistribution names a supported noise term distribution.
type NoiseDistribution string

const (
	NoiseNormal  NoiseDistribution = "normal"
	NoiseUniform NoiseDistribution = "uniform"
)

// ValidDomainTags is the advisory set of known model domain tags. Unknown
// tags validate with a warning, not an error.
var ValidDomainTags = map[string]bool{
	"strategy": true, "marketing": true, "finance": true,
	"operations": true, "organization": true, "technology": true,
	"economics": true, "psychology": true, "healthcare": true,
	"supply_chain": true, "general": true,
}

// Range is a variable's [min, max] value range.
type Range struct {
	Min float64
	Max float64
}

// Clip clamps x to the range.
func (r Range) Clip(x float64) float64 {
	if x < r.Min {
		return r.Min
	}
	if x > r.Max {
		return r.Max
	}
	return x
}

// Midpoint returns the center of the range.
func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Variable is a node in the structural causal model.
type Variable struct {
	ID           core.VariableID `json:"id"`
	Type         VariableType    `json:"type"`
	Domain       Range           `json:"domain"`
	Unit         string          `json:"unit,omitempty"`
	Description  string          `json:"description,omitempty"`
	Observed     bool            `json:"observed"`
	DefaultValue *float64        `json:"default_value,omitempty"`
	Categories   []string        `json:"categories,omitempty"`
}

// StartValue is the value an exogenous variable takes when not intervened:
// its declared default, else the midpoint of its domain.
func (v Variable) StartValue() float64 {
	if v.DefaultValue != nil {
		return *v.DefaultValue
	}
	return v.Domain.Midpoint()
}

// Edge is a directed causal relationship between two variables.
type Edge struct {
	Source      core.VariableID `json:"source"`
	Target      core.VariableID `json:"target"`
	Type        EdgeType        `json:"type"`
	Strength    float64         `json:"strength"`
	Description string          `json:"description,omitempty"`
	Confidence  float64         `json:"confidence"`
	IsLearned   bool            `json:"is_learned,omitempty"`
}

// SignFor maps an edge type and strength to the signed coefficient the
// fallback linear-combination model uses. An inhibits edge auto-negates a
// positive strength; every other type passes strength through unchanged.
func SignFor(t EdgeType, strength float64) float64 {
	if t == EdgeInhibits {
		if strength < 0 {
			return strength
		}
		return -strength
	}
	return strength
}

// Noise is a structural equation's noise term.
type Noise struct {
	Distribution NoiseDistribution `json:"distribution"`
	Mean         float64           `json:"mean,omitempty"` // normal
	Std          float64           `json:"std,omitempty"`  // normal
	Low          float64           `json:"low,omitempty"`  // uniform
	High         float64           `json:"high,omitempty"` // uniform
}

// DefaultNoise is the noise term applied when a document omits one.
func DefaultNoise() Noise {
	return Noise{Distribution: NoiseNormal, Mean: 0, Std: 0.05}
}

// StructuralEquation defines how a target variable is generated from its
// parents. AST is the parsed form of Expression; both are kept so the model
// can round-trip back to document form.
type StructuralEquation struct {
	Target     core.VariableID `json:"target"`
	Type       EquationType    `json:"type"`
	Expression string          `json:"expression"`
	AST        *expr.Node      `json:"-"`
	Noise      Noise           `json:"noise"`
}

// ValidationConfig carries data-fitting requirements declared by the model.
type ValidationConfig struct {
	MinDataPoints     int      `json:"min_data_points"`
	RequiredVariables []string `json:"required_variables,omitempty"`
	SuggestedDatasets []string `json:"suggested_datasets,omitempty"`
}

// Metadata carries model provenance.
type Metadata struct {
	Author          string   `json:"author,omitempty"`
	Citation        string   `json:"citation,omitempty"`
	License         string   `json:"license,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
	SourceURL       string   `json:"source_url,omitempty"`
	AdaptationNotes string   `json:"adaptation_notes,omitempty"`
}

// CausalModel is the validated in-memory representation of an OpenCM
// document. Models are immutable once validated: composition produces a new
// model, and any number of lenses may read one concurrently.
type CausalModel struct {
	ID          core.ModelID
	Name        string
	Version     string
	Domain      string
	Description string

	Variables map[core.VariableID]Variable
	// VariableOrder preserves document declaration order; topological ties
	// during simulation break on it for determinism.
	VariableOrder []core.VariableID
	Edges         []Edge
	Equations     map[core.VariableID]StructuralEquation

	Assumptions []string
	Validation  *ValidationConfig
	Metadata    *Metadata

	Fingerprint core.ModelFingerprint
}

// HasVariable reports whether the model declares the given variable.
func (m *CausalModel) HasVariable(id core.VariableID) bool {
	_, ok := m.Variables[id]
	return ok
}

// Parents returns the source ids of the target's incoming edges, in edge
// declaration order.
func (m *CausalModel) Parents(target core.VariableID) []core.VariableID {
	var parents []core.VariableID
	for _, e := range m.Edges {
		if e.Target == target {
			parents = append(parents, e.Source)
		}
	}
	return parents
}

// IncomingEdges returns the target's incoming edges in declaration order.
func (m *CausalModel) IncomingEdges(target core.VariableID) []Edge {
	var in []Edge
	for _, e := range m.Edges {
		if e.Target == target {
			in = append(in, e)
		}
	}
	return in
}

// VariableCount returns the number of declared variables.
func (m *CausalModel) VariableCount() int { return len(m.Variables) }

// EdgeCount returns the number of declared edges.
func (m *CausalModel) EdgeCount() int { return len(m.Edges) }

// EquationCount returns the number of structural equations.
func (m *CausalModel) EquationCount() int { return len(m.Equations) }

// Summary returns a one-line human-readable summary.
func (m *CausalModel) Summary() string {
	return fmt.Sprintf("%s (%s): %d vars, %d edges", m.Name, m.Domain, m.VariableCount(), m.EdgeCount())
}

// ComputeFingerprint derives the model's structural fingerprint from its
// current contents.
func (m *CausalModel) ComputeFingerprint() core.ModelFingerprint {
	varIDs := make([]string, 0, len(m.Variables))
	for id := range m.Variables {
		varIDs = append(varIDs, id.String())
	}
	pairs := make([][2]string, 0, len(m.Edges))
	for _, e := range m.Edges {
		pairs = append(pairs, [2]string{e.Source.String(), e.Target.String()})
	}
	targets := make([]string, 0, len(m.Equations))
	for id := range m.Equations {
		targets = append(targets, id.String())
	}
	return core.ComputeModelFingerprint(m.ID.String(), m.Version, varIDs, pairs, targets)
}
