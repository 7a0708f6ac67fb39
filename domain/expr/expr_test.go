package expr

import (
	"math"
	"testing"

	"opencm/domain/core"
)

func TestEval_Arithmetic(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		bindings map[string]float64
		want     float64
	}{
		{"literal", "42", nil, 42},
		{"precedence", "2 + 3 * 4", nil, 14},
		{"parens", "(2 + 3) * 4", nil, 20},
		{"division", "1 / 4", nil, 0.25},
		{"left assoc subtraction", "10 - 3 - 2", nil, 5},
		{"power right assoc", "2 ** 3 ** 2", nil, 512},
		{"unary minus binds tightest", "-2 ** 2", nil, 4},
		{"negated group", "-(2 ** 2)", nil, -4},
		{"double negation", "--3", nil, 3},
		{"scientific notation", "1.5e2 + 1", nil, 151},
		{"identifier", "x * 2", map[string]float64{"x": 3}, 6},
		{"linear equation", "0.7 - 0.15*SupplierPower - 0.20*BuyerPower",
			map[string]float64{"SupplierPower": 0.5, "BuyerPower": 0.5}, 0.525},
		{"abs", "abs(-3.5)", nil, 3.5},
		{"min max", "min(2, 3) + max(2, 3)", nil, 5},
		{"log exp", "log(exp(2))", nil, 2},
		{"sqrt", "sqrt(16)", nil, 4},
		{"nested calls", "max(abs(-1), sqrt(4))", nil, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			got, err := Eval(node, tc.bindings)
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tc.input, err)
			}
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Eval(%q) = %g, want %g", tc.input, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"trailing operator", "1 +"},
		{"unbalanced paren", "(1 + 2"},
		{"unknown function", "sin(1)"},
		{"wrong arity min", "min(1)"},
		{"wrong arity abs", "abs(1, 2)"},
		{"bad character", "1 $ 2"},
		{"bad number", "1.2.3"},
		{"dangling operand", "1 2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q) should have failed", tc.input)
			}
			if !core.IsExpressionError(err) {
				t.Errorf("Parse(%q) error should be an expression error, got: %v", tc.input, err)
			}
		})
	}
}

func TestEval_UnboundIdentifier(t *testing.T) {
	node, err := Parse("x + y")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, err = Eval(node, map[string]float64{"x": 1})
	if err == nil {
		t.Fatal("Eval should fail on unbound identifier")
	}
	if !core.IsExpressionError(err) {
		t.Errorf("expected expression error, got: %v", err)
	}
}

func TestEval_DomainErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"log of zero", "log(0)"},
		{"log of negative", "log(-1)"},
		{"sqrt of negative", "sqrt(-4)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			_, err = Eval(node, nil)
			if !core.IsDomainError(err) {
				t.Errorf("expected domain error, got: %v", err)
			}
		})
	}
}

func TestEval_DivisionByZeroFollowsIEEE(t *testing.T) {
	node, err := Parse("1 / x")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, err := Eval(node, map[string]float64{"x": 0})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("1/0 = %g, want +Inf", got)
	}
}

func TestIdentifiers(t *testing.T) {
	node, err := Parse("0.5*a + max(b, a) - sqrt(c)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := Identifiers(node)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Identifiers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Identifiers[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
