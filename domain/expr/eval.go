package expr

import (
	"fmt"
	"math"

	"opencm/domain/core"
)

// Eval evaluates an AST against a bindings map. The evaluator is pure: it
// reads nothing but the bindings and the fixed built-in set. Unresolved
// identifiers are a hard error, never silently zero. Arithmetic follows
// IEEE-754 double semantics, except that log of a non-positive value and
// sqrt of a negative value raise a domain error instead of returning NaN.
func Eval(n *Node, bindings map[string]float64) (float64, error) {
	switch n.Kind {
	case KindNumber:
		return n.Value, nil

	case KindIdent:
		v, ok := bindings[n.Name]
		if !ok {
			return 0, core.NewUnboundIdentifierError(n.Name)
		}
		return v, nil

	case KindUnary:
		v, err := Eval(n.Args[0], bindings)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case KindBinary:
		left, err := Eval(n.Args[0], bindings)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Args[1], bindings)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			return left / right, nil
		case "**":
			return math.Pow(left, right), nil
		}
		return 0, fmt.Errorf("%w: unknown operator %q", core.ErrExpression, n.Op)

	case KindCall:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, bindings)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return evalCall(n.Name, args)
	}
	return 0, fmt.Errorf("%w: unknown node kind %d", core.ErrExpression, n.Kind)
}

func evalCall(name string, args []float64) (float64, error) {
	switch name {
	case "abs":
		return math.Abs(args[0]), nil
	case "min":
		return math.Min(args[0], args[1]), nil
	case "max":
		return math.Max(args[0], args[1]), nil
	case "log":
		if args[0] <= 0 {
			return 0, core.NewDomainError("log", args[0])
		}
		return math.Log(args[0]), nil
	case "exp":
		return math.Exp(args[0]), nil
	case "sqrt":
		if args[0] < 0 {
			return 0, core.NewDomainError("sqrt", args[0])
		}
		return math.Sqrt(args[0]), nil
	}
	return 0, fmt.Errorf("%w: unknown function %q", core.ErrExpression, name)
}
