package expr

import "sort"

// Kind tags the variant of an expression node.
type Kind int

const (
	KindNumber Kind = iota // numeric literal
	KindIdent              // identifier resolved against bindings at eval time
	KindUnary              // unary minus
	KindBinary             // + - * / **
	KindCall               // built-in function call
)

// Node is a tagged AST node. Equation text from model files is parsed into
// this closed representation and never handed to a general-purpose
// interpreter; the evaluator can only read bindings and call the fixed
// built-in set.
type Node struct {
	Kind  Kind
	Value float64 // KindNumber
	Name  string  // KindIdent, KindCall
	Op    string  // KindUnary ("-"), KindBinary ("+", "-", "*", "/", "**")
	Args  []*Node // KindUnary (1), KindBinary (2), KindCall (arity)
}

// builtins maps each allowed function name to its fixed arity.
var builtins = map[string]int{
	"abs":  1,
	"min":  2,
	"max":  2,
	"log":  1,
	"exp":  1,
	"sqrt": 1,
}

// Identifiers returns the sorted set of distinct identifiers referenced by
// the expression. Used by the validator to check equations against the
// declared parent set before any simulation runs.
func Identifiers(n *Node) []string {
	seen := map[string]bool{}
	collectIdentifiers(n, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectIdentifiers(n *Node, seen map[string]bool) {
	if n == nil {
		return
	}
	if n.Kind == KindIdent {
		seen[n.Name] = true
	}
	for _, arg := range n.Args {
		collectIdentifiers(arg, seen)
	}
}
