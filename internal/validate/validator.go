package validate

import (
	"fmt"
	"sort"

	"opencm/domain/core"
	"opencm/domain/expr"
	"opencm/domain/model"
)

// Defaults applied when a document omits a field.
const (
	defaultStrength   = 0.5
	defaultConfidence = 1.0
)

// Validate runs the ordered validation pipeline over a parsed document and,
// when no error-severity diagnostic is produced, builds the immutable
// CausalModel. Diagnostics from every phase that can structurally run are
// accumulated so the caller gets a complete report in one pass; the model
// return is nil whenever errors were found.
func Validate(doc *model.Document) (*model.CausalModel, []Diagnostic) {
	v := &validator{doc: doc}

	v.checkRequiredFields()
	v.checkIdentity()

	haveVars := doc.Has("variables")
	if haveVars {
		v.checkVariables()
	}

	edgesOK := false
	if doc.Has("edges") && haveVars {
		edgesOK = v.checkEdges()
	}

	// Cycle detection needs a well-formed adjacency list, so it only runs
	// once referential and structural edge checks passed.
	if edgesOK {
		v.checkCycles()
	}

	if haveVars {
		v.checkEquations()
	}

	v.checkAdvisory()

	if HasErrors(v.diags) {
		return nil, v.diags
	}
	return v.build(), v.diags
}

// ValidateBytes parses raw JSON and validates it in one call.
func ValidateBytes(data []byte) (*model.CausalModel, []Diagnostic) {
	doc, err := model.ParseDocument(data)
	if err != nil {
		return nil, []Diagnostic{{
			Severity: SeverityError,
			Code:     CodeMissingField,
			Message:  err.Error(),
		}}
	}
	return Validate(doc)
}

type validator struct {
	doc   *model.Document
	diags []Diagnostic

	// equationASTs holds expressions parsed during the equation phase so
	// build() does not parse twice.
	equationASTs map[string]*expr.Node
}

func (v *validator) errorf(code Code, path, format string, args ...interface{}) {
	v.diags = append(v.diags, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

func (v *validator) warnf(code Code, path, format string, args ...interface{}) {
	v.diags = append(v.diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// Phase 1: required top-level fields.
func (v *validator) checkRequiredFields() {
	for _, field := range []string{"opencm_version", "model", "variables", "edges"} {
		if !v.doc.Has(field) {
			v.errorf(CodeMissingField, "/"+field, "missing required field %q", field)
		}
	}
	if v.doc.Has("opencm_version") && v.doc.OpenCMVersion != model.FormatVersion {
		v.warnf(CodeVersionMismatch, "/opencm_version",
			"document uses OpenCM version %q, engine implements %q", v.doc.OpenCMVersion, model.FormatVersion)
	}
}

// Phase 2: model identity.
func (v *validator) checkIdentity() {
	if !v.doc.Has("model") {
		return
	}
	if !core.IsValidModelID(v.doc.Model.ID) {
		v.errorf(CodeBadModelID, "/model/id",
			"model id must be lowercase alphanumeric with underscores, got %q", v.doc.Model.ID)
	}
	if v.doc.Model.Name == "" {
		v.errorf(CodeEmptyName, "/model/name", "model name must be non-empty")
	}
}

// Phase 3: per-variable checks.
func (v *validator) checkVariables() {
	if len(v.doc.Variables) == 0 {
		v.errorf(CodeNoVariables, "/variables", "model must declare at least one variable")
		return
	}

	for _, name := range v.doc.VariableOrder {
		def := v.doc.Variables[name]
		path := "/variables/" + name

		varType := def.Type
		if varType == "" {
			varType = string(model.VariableContinuous)
		}
		if !model.ValidVariableTypes[model.VariableType(varType)] {
			v.errorf(CodeBadVariableType, path+"/type",
				"variable %q has invalid type %q", name, varType)
		}

		if def.Domain != nil && def.Domain[0] >= def.Domain[1] {
			v.errorf(CodeBadDomain, path+"/domain",
				"variable %q domain min (%g) must be < max (%g)", name, def.Domain[0], def.Domain[1])
		}

		if model.VariableType(varType) == model.VariableCategorical && len(def.Categories) == 0 {
			v.warnf(CodeMissingCategories, path,
				"categorical variable %q should declare its categories", name)
		}
	}
}

// Phases 4 and 5: referential integrity and structural edge checks.
// Returns true when every edge is well-formed, which gates cycle detection.
func (v *validator) checkEdges() bool {
	ok := true
	seen := map[[2]string]bool{}

	for i, e := range v.doc.Edges {
		path := fmt.Sprintf("/edges/%d", i)

		if e.Source == "" {
			v.errorf(CodeUnknownEdgeSource, path+"/source", "edge %d missing source", i)
			ok = false
		} else if _, exists := v.doc.Variables[e.Source]; !exists {
			v.errorf(CodeUnknownEdgeSource, path+"/source",
				"edge %d source %q is not a declared variable", i, e.Source)
			ok = false
		}

		if e.Target == "" {
			v.errorf(CodeUnknownEdgeTarget, path+"/target", "edge %d missing target", i)
			ok = false
		} else if _, exists := v.doc.Variables[e.Target]; !exists {
			v.errorf(CodeUnknownEdgeTarget, path+"/target",
				"edge %d target %q is not a declared variable", i, e.Target)
			ok = false
		}

		if e.Source != "" && e.Source == e.Target {
			v.errorf(CodeSelfLoop, path, "edge %d is a self-loop on %q", i, e.Source)
			ok = false
		}

		key := [2]string{e.Source, e.Target}
		if seen[key] {
			v.errorf(CodeDuplicateEdge, path,
				"duplicate edge %q -> %q", e.Source, e.Target)
			ok = false
		}
		seen[key] = true

		if e.Strength != nil && (*e.Strength < -1 || *e.Strength > 1) {
			v.errorf(CodeStrengthOutOfRange, path+"/strength",
				"edge %d strength must be in [-1, 1], got %g", i, *e.Strength)
		}
		if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
			v.errorf(CodeConfidenceOutOfRange, path+"/confidence",
				"edge %d confidence must be in [0, 1], got %g", i, *e.Confidence)
		}
	}
	return ok
}

// Phase 6: cycle detection over the edge graph.
func (v *validator) checkCycles() {
	if cycle := FindCycle(v.doc.VariableOrder, v.doc.Edges); cycle != nil {
		v.errorf(CodeCycle, "/edges", "causal graph contains a cycle: %v", cycle)
	}
}

// Phase 7: structural equation checks. Every identifier an equation uses
// must be a declared parent of its target; unused parents are allowed.
func (v *validator) checkEquations() {
	v.equationASTs = make(map[string]*expr.Node, len(v.doc.Equations))

	parents := map[string]map[string]bool{}
	for _, e := range v.doc.Edges {
		if parents[e.Target] == nil {
			parents[e.Target] = map[string]bool{}
		}
		parents[e.Target][e.Source] = true
	}

	for _, target := range sortedKeys(v.doc.Equations) {
		def := v.doc.Equations[target]
		path := "/structural_equations/" + target

		if _, exists := v.doc.Variables[target]; !exists {
			v.errorf(CodeUnknownEquationTarget, path,
				"equation target %q is not a declared variable", target)
		}

		if def.Type != "" && !model.ValidEquationTypes[model.EquationType(def.Type)] {
			v.warnf(CodeUnknownEquationType, path+"/type",
				"equation for %q has unknown type %q", target, def.Type)
		}

		v.checkNoise(target, def, path)

		ast, err := expr.Parse(def.Expression)
		if err != nil {
			v.errorf(CodeExpressionParse, path+"/expression",
				"equation for %q does not parse: %v", target, err)
			continue
		}
		v.equationASTs[target] = ast

		for _, ident := range expr.Identifiers(ast) {
			if !parents[target][ident] {
				v.errorf(CodeUndeclaredParent, path+"/expression",
					"equation for %q references %q, which is not a declared parent", target, ident)
			}
		}
	}
}

func (v *validator) checkNoise(target string, def model.EquationDef, path string) {
	switch def.NoiseDistribution {
	case "", string(model.NoiseNormal):
		if std, ok := def.NoiseParams["std"]; ok && std < 0 {
			v.errorf(CodeNoiseOutOfRange, path+"/noise_params",
				"equation for %q has negative noise std %g", target, std)
		}
	case string(model.NoiseUniform):
		low, high := def.NoiseParams["low"], def.NoiseParams["high"]
		if low > high {
			v.errorf(CodeNoiseOutOfRange, path+"/noise_params",
				"equation for %q has uniform noise low (%g) > high (%g)", target, low, high)
		}
	default:
		v.errorf(CodeBadNoise, path+"/noise_distribution",
			"equation for %q has unknown noise distribution %q", target, def.NoiseDistribution)
	}
}

// Phase 8: advisory warnings.
func (v *validator) checkAdvisory() {
	if v.doc.Has("model") && v.doc.Model.Domain != "" && !model.ValidDomainTags[v.doc.Model.Domain] {
		v.warnf(CodeUnknownDomainTag, "/model/domain",
			"unknown domain %q", v.doc.Model.Domain)
	}
	if len(v.doc.Assumptions) == 0 {
		v.warnf(CodeNoAssumptions, "/assumptions",
			"no assumptions listed; models should be transparent about their assumptions")
	}
	for i, e := range v.doc.Edges {
		if e.Type != "" && !model.ValidEdgeTypes[model.EdgeType(e.Type)] {
			v.warnf(CodeUnknownEdgeType, fmt.Sprintf("/edges/%d/type", i),
				"edge %d has unknown type %q", i, e.Type)
		}
	}
}

// build constructs the CausalModel once the pipeline found no errors.
func (v *validator) build() *model.CausalModel {
	doc := v.doc
	m := &model.CausalModel{
		ID:          core.ModelID(doc.Model.ID),
		Name:        doc.Model.Name,
		Version:     orDefault(doc.Model.Version, "1.0.0"),
		Domain:      orDefault(doc.Model.Domain, "general"),
		Description: doc.Model.Description,
		Variables:   make(map[core.VariableID]model.Variable, len(doc.Variables)),
		Equations:   make(map[core.VariableID]model.StructuralEquation, len(doc.Equations)),
		Assumptions: doc.Assumptions,
		Validation:  doc.Validation,
		Metadata:    doc.Metadata,
	}

	for _, name := range doc.VariableOrder {
		def := doc.Variables[name]
		id := core.VariableID(name)

		domain := model.Range{Min: 0, Max: 1}
		if def.Domain != nil {
			domain = model.Range{Min: def.Domain[0], Max: def.Domain[1]}
		}
		observed := true
		if def.Observed != nil {
			observed = *def.Observed
		}

		m.Variables[id] = model.Variable{
			ID:           id,
			Type:         model.VariableType(orDefault(def.Type, string(model.VariableContinuous))),
			Domain:       domain,
			Unit:         def.Unit,
			Description:  def.Description,
			Observed:     observed,
			DefaultValue: def.DefaultValue,
			Categories:   def.Categories,
		}
		m.VariableOrder = append(m.VariableOrder, id)
	}

	for _, def := range doc.Edges {
		strength := defaultStrength
		if def.Strength != nil {
			strength = *def.Strength
		}
		confidence := defaultConfidence
		if def.Confidence != nil {
			confidence = *def.Confidence
		}
		m.Edges = append(m.Edges, model.Edge{
			Source:      core.VariableID(def.Source),
			Target:      core.VariableID(def.Target),
			Type:        model.EdgeType(orDefault(def.Type, string(model.EdgeCauses))),
			Strength:    strength,
			Description: def.Description,
			Confidence:  confidence,
			IsLearned:   def.IsLearned,
		})
	}

	for target, def := range doc.Equations {
		// An omitted distribution means normal; declared params are kept
		// either way, and the default noise term applies only when the
		// document gave no params at all.
		noise := model.DefaultNoise()
		switch def.NoiseDistribution {
		case string(model.NoiseUniform):
			noise = model.Noise{
				Distribution: model.NoiseUniform,
				Low:          def.NoiseParams["low"],
				High:         def.NoiseParams["high"],
			}
		case "", string(model.NoiseNormal):
			if def.NoiseParams != nil {
				noise = model.Noise{
					Distribution: model.NoiseNormal,
					Mean:         def.NoiseParams["mean"],
					Std:          def.NoiseParams["std"],
				}
			}
		}

		id := core.VariableID(target)
		m.Equations[id] = model.StructuralEquation{
			Target:     id,
			Type:       model.EquationType(orDefault(def.Type, string(model.EquationLinear))),
			Expression: def.Expression,
			AST:        v.equationASTs[target],
			Noise:      noise,
		}
	}

	m.Fingerprint = m.ComputeFingerprint()
	return m
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys(m map[string]model.EquationDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
