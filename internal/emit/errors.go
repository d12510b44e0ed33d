package emit

import (
	"fmt"

	"github.com/markb/raql/internal/algebra"
)

// Backend names, used in emit errors and stage-tagged pipeline errors.
const (
	BackendLatex = "latex"
	BackendTree  = "tree"
	BackendSQL   = "sql"
)

// EmitError reports a construct a backend cannot express.
type EmitError struct {
	Backend string
	Msg     string
	Pos     algebra.Position
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("%s backend: %s at %s", e.Backend, e.Msg, e.Pos)
}

func newEmitError(backend string, pos algebra.Position, format string, args ...any) *EmitError {
	return &EmitError{Backend: backend, Msg: fmt.Sprintf(format, args...), Pos: pos}
}
