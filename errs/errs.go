// Package errs defines the semantic error taxonomy raised by the
// transformer layer (cte, scope, schema validation) once parsing has
// already succeeded.
package errs

import (
	"fmt"

	"github.com/juju/errors"
)

// Kind identifies the category of a SemanticError.
type Kind int

const (
	DuplicateCommonTable Kind = iota
	CyclicCommonTables
	ArityMismatch
	UnknownTable
	UnknownColumn
	InconsistentParameterValue
)

func (k Kind) String() string {
	switch k {
	case DuplicateCommonTable:
		return "DuplicateCommonTable"
	case CyclicCommonTables:
		return "CyclicCommonTables"
	case ArityMismatch:
		return "ArityMismatch"
	case UnknownTable:
		return "UnknownTable"
	case UnknownColumn:
		return "UnknownColumn"
	case InconsistentParameterValue:
		return "InconsistentParameterValue"
	default:
		return "Unknown"
	}
}

// SemanticError is raised by transformers that operate on an already-valid
// AST: CTE normalization, scope resolution, and schema validation.
type SemanticError struct {
	Kind    Kind
	Message string
	Names   []string // CTE/table/column names implicated, if any
}

func (e *SemanticError) Error() string {
	if len(e.Names) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Names)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewDuplicateCommonTable reports two CTEs sharing a name with non-identical definitions.
func NewDuplicateCommonTable(name string) error {
	return errors.Trace(&SemanticError{
		Kind:    DuplicateCommonTable,
		Message: "common table name reused with a different definition",
		Names:   []string{name},
	})
}

// NewCyclicCommonTables reports a dependency cycle among non-recursive CTEs.
func NewCyclicCommonTables(names []string) error {
	return errors.Trace(&SemanticError{
		Kind:    CyclicCommonTables,
		Message: "common table definitions form a cycle",
		Names:   names,
	})
}

// NewArityMismatch reports a column-count mismatch: a CTE column-alias list
// whose length does not match its query's projection, or the two sides of
// a set operation projecting different numbers of columns.
func NewArityMismatch(name string, want, got int) error {
	return errors.Trace(&SemanticError{
		Kind:    ArityMismatch,
		Message: fmt.Sprintf("expected %d columns, got %d", want, got),
		Names:   []string{name},
	})
}

// NewUnknownTable reports a table reference that no known CTE or resolver
// can account for.
func NewUnknownTable(name string) error {
	return errors.Trace(&SemanticError{
		Kind:    UnknownTable,
		Message: "table not found in scope",
		Names:   []string{name},
	})
}

// NewUnknownColumn reports a column reference outside the visible set.
func NewUnknownColumn(name string) error {
	return errors.Trace(&SemanticError{
		Kind:    UnknownColumn,
		Message: "column not found in scope",
		Names:   []string{name},
	})
}

// NewInconsistentParameterValue reports a named parameter bound to two
// different values within the same statement.
func NewInconsistentParameterValue(name string) error {
	return errors.Trace(&SemanticError{
		Kind:    InconsistentParameterValue,
		Message: "named parameter bound to conflicting values",
		Names:   []string{name},
	})
}

// As reports whether err (or something it wraps) is a *SemanticError of the
// given kind.
func As(err error, kind Kind) (*SemanticError, bool) {
	cause := errors.Cause(err)
	se, ok := cause.(*SemanticError)
	if !ok || se.Kind != kind {
		return nil, false
	}
	return se, true
}

// List aggregates multiple SemanticErrors, e.g. from a ValidateSchema pass
// that keeps checking after the first failure.
type List []error

func (l List) Error() string {
	if len(l) == 1 {
		return l[0].Error()
	}
	msg := fmt.Sprintf("%d semantic errors:", len(l))
	for _, e := range l {
		msg += "\n  " + e.Error()
	}
	return msg
}

// Err returns nil if the list is empty, the single error if there's just
// one, or the list itself (as an error) otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}
