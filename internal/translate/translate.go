// Package translate runs the full pipeline for a statement: lex, parse,
// resolve against a catalog, then emit all three output forms. The first
// failing stage aborts the translation and is reported with a stage tag.
package translate

import (
	"errors"
	"fmt"

	"github.com/markb/raql/internal/algebra"
	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/emit"
	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

// Stage names carried on pipeline errors.
const (
	StageLex       = "lex"
	StageParse     = "parse"
	StageResolve   = "resolve"
	StageEmitLatex = "emit-latex"
	StageEmitTree  = "emit-tree"
	StageEmitSQL   = "emit-sql"
)

// StageError tags a pipeline error with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result holds the three renderings of one statement plus any non-fatal
// resolution warnings.
type Result struct {
	Latex    string            `json:"latex"`
	Tree     *emit.Diagram     `json:"tree"`
	SQL      string            `json:"sql"`
	Warnings []resolve.Warning `json:"warnings,omitempty"`
}

// Option configures a translation.
type Option func(*config)

type config struct {
	sqlOpts []emit.SQLOption
}

// WithBagSemantics makes the SQL backend emit the ALL set operators.
func WithBagSemantics() Option {
	return func(c *config) {
		c.sqlOpts = append(c.sqlOpts, emit.WithBagSemantics())
	}
}

// Translate runs one statement through the pipeline.
func Translate(statement string, st *syntax.SymbolTable, cat catalog.Catalog, opts ...Option) (*Result, error) {
	ast, err := algebra.Parse(statement, st)
	if err != nil {
		return nil, parseStageError(err)
	}
	return translateAST(ast, st, cat, opts...)
}

// TranslateAll runs a sequence of semicolon-separated statements through
// the pipeline, stopping at the first failure.
func TranslateAll(statements string, st *syntax.SymbolTable, cat catalog.Catalog, opts ...Option) ([]*Result, error) {
	asts, err := algebra.ParseAll(statements, st)
	if err != nil {
		return nil, parseStageError(err)
	}
	results := make([]*Result, 0, len(asts))
	for _, ast := range asts {
		result, err := translateAST(ast, st, cat, opts...)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func translateAST(ast algebra.Node, st *syntax.SymbolTable, cat catalog.Catalog, opts ...Option) (*Result, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	resolved, warnings, err := resolve.Resolve(ast, cat)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}

	latex, err := emit.Latex(resolved, st)
	if err != nil {
		return nil, &StageError{Stage: StageEmitLatex, Err: err}
	}
	tree, err := emit.Tree(resolved, st)
	if err != nil {
		return nil, &StageError{Stage: StageEmitTree, Err: err}
	}
	sqlOut, err := emit.SQL(resolved, cfg.sqlOpts...)
	if err != nil {
		return nil, &StageError{Stage: StageEmitSQL, Err: err}
	}

	return &Result{Latex: latex, Tree: tree, SQL: sqlOut, Warnings: warnings}, nil
}

// parseStageError tags a front-end error as lexical or syntactic.
func parseStageError(err error) *StageError {
	var lexErr *algebra.LexError
	if errors.As(err, &lexErr) {
		return &StageError{Stage: StageLex, Err: err}
	}
	return &StageError{Stage: StageParse, Err: err}
}
