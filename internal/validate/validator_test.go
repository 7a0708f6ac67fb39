package validate

import (
	"strings"
	"testing"

	"opencm/internal/testkit"
)

func TestValidate_GoodDocument(t *testing.T) {
	m, diags := ValidateBytes(testkit.PorterFiveForces())
	if HasErrors(diags) {
		t.Fatalf("expected no errors, got: %v", Errors(diags))
	}
	if m == nil {
		t.Fatal("expected a model")
	}

	if m.VariableCount() != 6 {
		t.Errorf("variable count = %d, want 6", m.VariableCount())
	}
	if m.EdgeCount() != 5 {
		t.Errorf("edge count = %d, want 5", m.EdgeCount())
	}
	if m.EquationCount() != 1 {
		t.Errorf("equation count = %d, want 1", m.EquationCount())
	}
	if m.ID != "porters_five_forces" {
		t.Errorf("model id = %q", m.ID)
	}
	if m.Fingerprint.String() == "" {
		t.Error("model fingerprint should be computed")
	}

	eq, ok := m.Equations["IndustryProfitability"]
	if !ok {
		t.Fatal("expected equation for IndustryProfitability")
	}
	if eq.AST == nil {
		t.Error("equation AST should be parsed during validation")
	}
}

func TestValidate_PreservesDeclarationOrder(t *testing.T) {
	m, diags := ValidateBytes(testkit.PorterFiveForces())
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	want := []string{
		"SupplierPower", "BuyerPower", "CompetitiveRivalry",
		"PricingPower", "MarketShare", "IndustryProfitability",
	}
	if len(m.VariableOrder) != len(want) {
		t.Fatalf("order length = %d, want %d", len(m.VariableOrder), len(want))
	}
	for i, id := range want {
		if m.VariableOrder[i].String() != id {
			t.Errorf("VariableOrder[%d] = %q, want %q", i, m.VariableOrder[i], id)
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
		code Code
	}{
		{
			"missing top-level field",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				delete(doc, "edges")
			}),
			CodeMissingField,
		},
		{
			"bad model id",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				doc["model"].(map[string]interface{})["id"] = "Simple-Chain"
			}),
			CodeBadModelID,
		},
		{
			"empty model name",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				doc["model"].(map[string]interface{})["name"] = ""
			}),
			CodeEmptyName,
		},
		{
			"inverted domain",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				vars := doc["variables"].(map[string]interface{})
				vars["a"].(map[string]interface{})["domain"] = []interface{}{1.0, 0.0}
			}),
			CodeBadDomain,
		},
		{
			"bad variable type",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				vars := doc["variables"].(map[string]interface{})
				vars["a"].(map[string]interface{})["type"] = "fuzzy"
			}),
			CodeBadVariableType,
		},
		{
			"unknown edge source",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				edges[0].(map[string]interface{})["source"] = "ghost"
			}),
			CodeUnknownEdgeSource,
		},
		{
			"self-loop",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				edges[0].(map[string]interface{})["source"] = "b"
			}),
			CodeSelfLoop,
		},
		{
			"strength out of range",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				edges[0].(map[string]interface{})["strength"] = 1.5
			}),
			CodeStrengthOutOfRange,
		},
		{
			"confidence out of range",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				edges[0].(map[string]interface{})["confidence"] = -0.1
			}),
			CodeConfidenceOutOfRange,
		},
		{
			"duplicate edge",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				doc["edges"] = append(edges, map[string]interface{}{
					"source": "a", "target": "b",
				})
			}),
			CodeDuplicateEdge,
		},
		{
			"unknown equation target",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				eqs := doc["structural_equations"].(map[string]interface{})
				eqs["ghost"] = "1 + 1"
			}),
			CodeUnknownEquationTarget,
		},
		{
			"equation parse failure",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				eqs := doc["structural_equations"].(map[string]interface{})
				eqs["b"] = "0.1 + * a"
			}),
			CodeExpressionParse,
		},
		{
			"undeclared parent",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				eqs := doc["structural_equations"].(map[string]interface{})
				eqs["b"] = "0.1 + 0.8*c"
			}),
			CodeUndeclaredParent,
		},
		{
			"negative noise std",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				eqs := doc["structural_equations"].(map[string]interface{})
				eqs["b"].(map[string]interface{})["noise_params"] = map[string]interface{}{"mean": 0, "std": -1}
			}),
			CodeNoiseOutOfRange,
		},
		{
			"unknown noise distribution",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				eqs := doc["structural_equations"].(map[string]interface{})
				eqs["b"].(map[string]interface{})["noise_distribution"] = "poisson"
			}),
			CodeBadNoise,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, diags := ValidateBytes(tc.doc)
			if m != nil {
				t.Error("model should be nil when errors are present")
			}
			if !hasCode(diags, tc.code, SeverityError) {
				t.Errorf("expected error code %s, got: %v", tc.code, diags)
			}
		})
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	doc := testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
		edges := doc["edges"].([]interface{})
		doc["edges"] = append(edges, map[string]interface{}{
			"source": "c", "target": "a", "strength": 0.5,
		})
	})

	m, diags := ValidateBytes(doc)
	if m != nil {
		t.Error("cyclic model should not build")
	}
	if !hasCode(diags, CodeCycle, SeverityError) {
		t.Fatalf("expected cycle error, got: %v", diags)
	}

	// The cycle path names the closing edge's endpoints.
	var msg string
	for _, d := range diags {
		if d.Code == CodeCycle {
			msg = d.Message
		}
	}
	for _, v := range []string{"a", "b", "c"} {
		if !strings.Contains(msg, v) {
			t.Errorf("cycle message %q should mention %q", msg, v)
		}
	}
}

func TestValidate_CycleSkippedWhenEdgesMalformed(t *testing.T) {
	// An edge referencing an unknown variable means no well-formed
	// adjacency list, so cycle detection must not run (and not panic).
	doc := testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
		edges := doc["edges"].([]interface{})
		edges[0].(map[string]interface{})["target"] = "ghost"
	})

	_, diags := ValidateBytes(doc)
	if !hasCode(diags, CodeUnknownEdgeTarget, SeverityError) {
		t.Fatalf("expected referential error, got: %v", diags)
	}
	if hasCode(diags, CodeCycle, SeverityError) {
		t.Error("cycle detection should be skipped when edges are malformed")
	}
}

func TestValidate_Warnings(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
		code Code
	}{
		{
			"unknown domain tag",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				doc["model"].(map[string]interface{})["domain"] = "astrology"
			}),
			CodeUnknownDomainTag,
		},
		{
			"missing assumptions",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				delete(doc, "assumptions")
			}),
			CodeNoAssumptions,
		},
		{
			"unknown edge type",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				edges := doc["edges"].([]interface{})
				edges[0].(map[string]interface{})["type"] = "entangles"
			}),
			CodeUnknownEdgeType,
		},
		{
			"categorical without categories",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				vars := doc["variables"].(map[string]interface{})
				vars["a"].(map[string]interface{})["type"] = "categorical"
			}),
			CodeMissingCategories,
		},
		{
			"version mismatch",
			testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
				doc["opencm_version"] = "0.9"
			}),
			CodeVersionMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, diags := ValidateBytes(tc.doc)
			if !hasCode(diags, tc.code, SeverityWarning) {
				t.Errorf("expected warning code %s, got: %v", tc.code, diags)
			}
			if m == nil {
				t.Error("warnings must not block model construction")
			}
		})
	}
}

func TestValidate_StringEquationForm(t *testing.T) {
	doc := testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
		eqs := doc["structural_equations"].(map[string]interface{})
		eqs["b"] = "0.1 + 0.8*a"
	})

	m, diags := ValidateBytes(doc)
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	eq := m.Equations["b"]
	if eq.Expression != "0.1 + 0.8*a" {
		t.Errorf("expression = %q", eq.Expression)
	}
	// String-form equations get the default noise term.
	if eq.Noise.Distribution != "normal" || eq.Noise.Std != 0.05 {
		t.Errorf("expected default noise, got %+v", eq.Noise)
	}
}

func TestValidate_NoiseParamsWithoutDistribution(t *testing.T) {
	// Omitting noise_distribution means normal; the declared params must
	// survive rather than being replaced by the default noise term.
	doc := testkit.MutateDoc(testkit.SimpleChain(), func(doc map[string]interface{}) {
		eqs := doc["structural_equations"].(map[string]interface{})
		eq := eqs["b"].(map[string]interface{})
		delete(eq, "noise_distribution")
		eq["noise_params"] = map[string]interface{}{"mean": 0, "std": 0}
	})

	m, diags := ValidateBytes(doc)
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	noise := m.Equations["b"].Noise
	if noise.Distribution != "normal" {
		t.Errorf("distribution = %q, want normal", noise.Distribution)
	}
	if noise.Mean != 0 || noise.Std != 0 {
		t.Errorf("noise = (mean %g, std %g), want the declared (0, 0)", noise.Mean, noise.Std)
	}
}

func hasCode(diags []Diagnostic, code Code, sev Severity) bool {
	for _, d := range diags {
		if d.Code == code && d.Severity == sev {
			return true
		}
	}
	return false
}
