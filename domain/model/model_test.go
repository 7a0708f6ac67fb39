package model

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

const sampleDoc = `{
  "opencm_version": "1.0",
  "model": {"id": "pricing", "name": "Pricing", "version": "0.2.0", "domain": "economics"},
  "variables": {
    "zeta": {"type": "continuous", "domain": [0, 1]},
    "alpha": {"type": "continuous", "domain": [0, 10], "default_value": 2.5},
    "mid": {"type": "continuous", "domain": [-1, 3]}
  },
  "edges": [
    {"source": "zeta", "target": "mid", "type": "inhibits", "strength": 0.4}
  ],
  "structural_equations": {
    "mid": "1.0 - 0.4*zeta",
    "alpha": {
      "type": "linear",
      "expression": "0.5 + 0.2*zeta",
      "noise_distribution": "uniform",
      "noise_params": {"low": -0.1, "high": 0.1}
    }
  },
  "assumptions": ["prices respond within one quarter"]
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	t.Run("variable order follows declaration", func(t *testing.T) {
		want := []string{"zeta", "alpha", "mid"}
		if !reflect.DeepEqual(doc.VariableOrder, want) {
			t.Errorf("VariableOrder = %v, want %v", doc.VariableOrder, want)
		}
	})

	t.Run("field presence is recorded", func(t *testing.T) {
		for _, field := range []string{"opencm_version", "model", "variables", "edges", "assumptions"} {
			if !doc.Has(field) {
				t.Errorf("Has(%q) = false, want true", field)
			}
		}
		if doc.Has("metadata") {
			t.Error("Has(metadata) = true for a document without metadata")
		}
	})

	t.Run("string equation form", func(t *testing.T) {
		eq := doc.Equations["mid"]
		if eq.Expression != "1.0 - 0.4*zeta" {
			t.Errorf("expression = %q", eq.Expression)
		}
		if eq.Type != "" || eq.NoiseDistribution != "" {
			t.Errorf("string form should leave type and noise empty, got %+v", eq)
		}
	})

	t.Run("object equation form", func(t *testing.T) {
		eq := doc.Equations["alpha"]
		if eq.NoiseDistribution != "uniform" {
			t.Errorf("noise distribution = %q, want uniform", eq.NoiseDistribution)
		}
		if eq.NoiseParams["high"] != 0.1 {
			t.Errorf("noise params = %v", eq.NoiseParams)
		}
	})

	t.Run("rejects non-object document", func(t *testing.T) {
		if _, err := ParseDocument([]byte(`[1, 2]`)); err == nil {
			t.Fatal("expected an error for a JSON array")
		}
	})
}

func TestEquationDefMarshal(t *testing.T) {
	t.Run("plain linear collapses to string", func(t *testing.T) {
		data, err := json.Marshal(EquationDef{Expression: "0.5 + 0.2*x"})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `"0.5 + 0.2*x"` {
			t.Errorf("marshal = %s", data)
		}
	})

	t.Run("non-default noise keeps object form", func(t *testing.T) {
		data, err := json.Marshal(EquationDef{
			Expression:        "0.5",
			NoiseDistribution: "uniform",
			NoiseParams:       map[string]float64{"low": -1, "high": 1},
		})
		if err != nil {
			t.Fatal(err)
		}
		var back EquationDef
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatal(err)
		}
		if back.NoiseDistribution != "uniform" || back.NoiseParams["low"] != -1 {
			t.Errorf("round trip = %+v", back)
		}
	})
}

func TestRange(t *testing.T) {
	r := Range{Min: 0, Max: 1}

	t.Run("clip", func(t *testing.T) {
		cases := []struct{ in, want float64 }{
			{-0.5, 0},
			{0.5, 0.5},
			{1.5, 1},
		}
		for _, c := range cases {
			if got := r.Clip(c.in); got != c.want {
				t.Errorf("Clip(%v) = %v, want %v", c.in, got, c.want)
			}
		}
	})

	t.Run("midpoint", func(t *testing.T) {
		if got := (Range{Min: -1, Max: 3}).Midpoint(); got != 1 {
			t.Errorf("Midpoint = %v, want 1", got)
		}
	})

	t.Run("json array form", func(t *testing.T) {
		data, err := json.Marshal(Range{Min: 0, Max: 2.5})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "[0,2.5]" {
			t.Errorf("marshal = %s", data)
		}
		var back Range
		if err := json.Unmarshal([]byte("[0.25,0.75]"), &back); err != nil {
			t.Fatal(err)
		}
		if back.Min != 0.25 || back.Max != 0.75 {
			t.Errorf("unmarshal = %+v", back)
		}
	})
}

func TestVariableStartValue(t *testing.T) {
	dv := 0.8
	withDefault := Variable{Domain: Range{Min: 0, Max: 1}, DefaultValue: &dv}
	if got := withDefault.StartValue(); got != 0.8 {
		t.Errorf("StartValue with default = %v, want 0.8", got)
	}

	withoutDefault := Variable{Domain: Range{Min: 0, Max: 1}}
	if got := withoutDefault.StartValue(); got != 0.5 {
		t.Errorf("StartValue without default = %v, want midpoint 0.5", got)
	}
}

func TestSignFor(t *testing.T) {
	if got := SignFor(EdgeCauses, 0.4); got != 0.4 {
		t.Errorf("causes sign = %v", got)
	}
	if got := SignFor(EdgeInhibits, 0.4); got != -0.4 {
		t.Errorf("inhibits sign = %v, want -0.4", got)
	}
	// A negative strength on an inhibits edge must not double-negate.
	if got := SignFor(EdgeInhibits, -0.4); got != -0.4 {
		t.Errorf("inhibits with negative strength = %v, want -0.4", got)
	}
}

func TestDefaultNoise(t *testing.T) {
	n := DefaultNoise()
	if n.Distribution != NoiseNormal {
		t.Errorf("distribution = %v", n.Distribution)
	}
	if math.Abs(n.Std-0.05) > 1e-12 || n.Mean != 0 {
		t.Errorf("params = mean %v std %v", n.Mean, n.Std)
	}
}
