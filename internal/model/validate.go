package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateAutomation checks an Automation for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the record is valid.
func ValidateAutomation(a *Automation) error {
	var ve ValidationError

	// Name: required and at most 200 characters.
	name := strings.TrimSpace(a.Name)
	if name == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	} else if len([]rune(name)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "must be 200 characters or fewer"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateNode checks a Node for constraint violations independent of graph
// structure (structural rules live on Graph operations).
func ValidateNode(n *Node) error {
	var ve ValidationError

	if strings.TrimSpace(n.ID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "id", Message: "is required"})
	}

	// Kind: must be a valid enum value (closed set).
	if !n.Kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid value %q", n.Kind),
		})
	}

	// Params: must be present and match the node kind.
	if n.Params == nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "params", Message: "are required"})
	} else if n.Kind.IsValid() && n.Params.Kind() != n.Kind {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "params",
			Message: fmt.Sprintf("do not match node kind %q", n.Kind),
		})
	} else if err := n.Params.Validate(); err != nil {
		if inner, ok := err.(*ValidationError); ok {
			ve.Errors = append(ve.Errors, inner.Errors...)
		} else {
			ve.Errors = append(ve.Errors, FieldError{Field: "params", Message: err.Error()})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateConnection checks that a connection references distinct nodes.
func ValidateConnection(c *Connection) error {
	var ve ValidationError

	if strings.TrimSpace(c.SourceID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "source_id", Message: "is required"})
	}
	if strings.TrimSpace(c.TargetID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "target_id", Message: "is required"})
	}
	if c.SourceID != "" && c.SourceID == c.TargetID {
		ve.Errors = append(ve.Errors, FieldError{Field: "target_id", Message: "must differ from source_id"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
