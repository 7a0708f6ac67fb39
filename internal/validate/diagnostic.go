package validate

import "fmt"

// Severity grades a diagnostic. Warnings never block model construction;
// a document is valid iff it produced no error-severity diagnostics.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable machine-readable diagnostic code. Codes are part of the
// engine's contract with callers and must not change meaning between
// releases.
type Code string

const (
	// Schema
	CodeMissingField    Code = "SCHEMA_MISSING_FIELD"
	CodeNoVariables     Code = "SCHEMA_NO_VARIABLES"
	CodeBadVariableType Code = "SCHEMA_BAD_VARIABLE_TYPE"
	CodeBadNoise        Code = "SCHEMA_BAD_NOISE"
	CodeVersionMismatch Code = "SCHEMA_VERSION_MISMATCH"

	// Identity
	CodeBadModelID Code = "IDENTITY_BAD_ID"
	CodeEmptyName  Code = "IDENTITY_EMPTY_NAME"

	// Referential integrity
	CodeUnknownEdgeSource     Code = "REF_UNKNOWN_EDGE_SOURCE"
	CodeUnknownEdgeTarget     Code = "REF_UNKNOWN_EDGE_TARGET"
	CodeUnknownEquationTarget Code = "REF_UNKNOWN_EQUATION_TARGET"

	// Structure
	CodeSelfLoop      Code = "STRUCT_SELF_LOOP"
	CodeDuplicateEdge Code = "STRUCT_DUPLICATE_EDGE"

	// Ranges
	CodeBadDomain            Code = "RANGE_BAD_DOMAIN"
	CodeStrengthOutOfRange   Code = "RANGE_STRENGTH"
	CodeConfidenceOutOfRange Code = "RANGE_CONFIDENCE"
	CodeNoiseOutOfRange      Code = "RANGE_NOISE"

	// Cycles
	CodeCycle Code = "CYCLE_DETECTED"

	// Expressions
	CodeExpressionParse  Code = "EXPR_PARSE"
	CodeUndeclaredParent Code = "EXPR_UNDECLARED_PARENT"

	// Simulation (reported by the lens engine, same diagnostic shape)
	CodeSampleDomainError   Code = "SIM_SAMPLE_DOMAIN_ERROR"
	CodeEstimateUndefined   Code = "SIM_ESTIMATE_UNDEFINED"
	CodeInterventionSkipped Code = "SIM_INTERVENTION_SKIPPED"

	// Advisory
	CodeUnknownDomainTag    Code = "ADVISORY_UNKNOWN_DOMAIN"
	CodeNoAssumptions       Code = "ADVISORY_NO_ASSUMPTIONS"
	CodeUnknownEdgeType     Code = "ADVISORY_UNKNOWN_EDGE_TYPE"
	CodeUnknownEquationType Code = "ADVISORY_UNKNOWN_EQUATION_TYPE"
	CodeMissingCategories   Code = "ADVISORY_MISSING_CATEGORIES"
)

// Diagnostic is one validation finding, structured for rendering by the
// collaborator. Path is a JSON-pointer-like location into the document.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s %s at %s: %s", d.Severity, d.Code, d.Path, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}

// HasErrors reports whether any diagnostic is error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics.
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
