package resolve

import (
	"encoding/json"
	"fmt"

	"github.com/markb/raql/internal/algebra"
)

// ErrorKind classifies a semantic error.
type ErrorKind int

const (
	// UnknownRelation means a relation name is not in the catalog.
	UnknownRelation ErrorKind = iota + 1
	// UnknownAttribute means an attribute reference matches nothing in
	// the operand schema.
	UnknownAttribute
	// AmbiguousAttribute means an attribute reference matches more than
	// one attribute in the operand schema.
	AmbiguousAttribute
	// SchemaMismatch means two operand schemas are incompatible, for a
	// set operation of unequal arity or a rename of the wrong arity.
	SchemaMismatch
	// InvalidDivision means the divisor's attributes are not a non-empty
	// proper subset of the dividend's.
	InvalidDivision
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownRelation:
		return "unknown_relation"
	case UnknownAttribute:
		return "unknown_attribute"
	case AmbiguousAttribute:
		return "ambiguous_attribute"
	case SchemaMismatch:
		return "schema_mismatch"
	case InvalidDivision:
		return "invalid_division"
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// Error is a semantic error with the offending node's source position.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  algebra.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s", e.Msg, e.Pos)
}

func newError(kind ErrorKind, pos algebra.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// WarningKind classifies a non-fatal resolution warning.
type WarningKind int

const (
	// DegenerateJoin means a natural join's operands share no attribute
	// names, so the join behaves as a cartesian product.
	DegenerateJoin WarningKind = iota + 1
)

func (k WarningKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k WarningKind) String() string {
	switch k {
	case DegenerateJoin:
		return "degenerate_join"
	}
	return fmt.Sprintf("warning_kind(%d)", int(k))
}

// Warning is attached to a successful resolution rather than aborting it.
type Warning struct {
	Kind WarningKind      `json:"kind"`
	Msg  string           `json:"message"`
	Pos  algebra.Position `json:"position"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %s", w.Msg, w.Pos)
}
