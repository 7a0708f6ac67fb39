package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation-time errors
	ErrSchema      = errors.New("schema violation")
	ErrIdentity    = errors.New("invalid model identity")
	ErrReferential = errors.New("unknown variable reference")
	ErrCycle       = errors.New("causal graph contains a cycle")
	ErrExpression  = errors.New("expression error")

	// Expression sub-errors
	ErrParse             = fmt.Errorf("%w: parse failure", ErrExpression)
	ErrUnboundIdentifier = fmt.Errorf("%w: unbound identifier", ErrExpression)

	// Runtime errors
	ErrDomain      = errors.New("math domain error")
	ErrComposition = errors.New("composition failed")
	ErrSimulation  = errors.New("simulation failed")

	// Lookup errors
	ErrNotFound         = errors.New("resource not found")
	ErrModelNotFound    = fmt.Errorf("%w: model", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
)

// Error constructors with context
func NewCycleError(path []string) error {
	return fmt.Errorf("%w: %v", ErrCycle, path)
}

func NewUnboundIdentifierError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnboundIdentifier, name)
}

func NewDomainError(fn string, arg float64) error {
	return fmt.Errorf("%w: %s(%g)", ErrDomain, fn, arg)
}

func NewSimulationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrSimulation, reason)
}

// Error checking helpers
func IsExpressionError(err error) bool {
	return errors.Is(err, ErrExpression)
}

func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
