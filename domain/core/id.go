package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// ModelID is the slug identity of a causal model (model.id in a document).
	ModelID string
	// VariableID is the unique key of a variable within a model.
	VariableID string
	// SessionID identifies one lens evaluation session.
	SessionID ID
)

var modelIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ParseModelID parses a string into a ModelID, enforcing the slug format.
func ParseModelID(s string) (ModelID, error) {
	if !modelIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: model id must be lowercase alphanumeric with underscores, got %q", ErrIdentity, s)
	}
	return ModelID(s), nil
}

// IsValidModelID reports whether s satisfies the model id slug format.
func IsValidModelID(s string) bool {
	return modelIDPattern.MatchString(s)
}

// ParseVariableID parses a string into a VariableID.
func ParseVariableID(s string) (VariableID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: variable id cannot be empty", ErrIdentity)
	}
	return VariableID(s), nil
}

// NewSessionID creates a session identifier for one lens application.
func NewSessionID() SessionID {
	return SessionID(NewID())
}

// String conversions for domain IDs
func (id ModelID) String() string    { return string(id) }
func (id VariableID) String() string { return string(id) }
func (id SessionID) String() string  { return ID(id).String() }
