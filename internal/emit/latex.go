// Package emit renders a resolved relational algebra tree into the three
// output forms: a LaTeX formula, a node/edge structure for diagramming,
// and a SQL statement. Each emitter is a pure post-order walk over the
// resolved tree.
package emit

import (
	"fmt"
	"strings"

	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

// Latex renders the tree as a typeset formula. Operands are parenthesized
// whenever their operator binds looser than the enclosing one, so the
// rendered formula re-parses to the same shape.
func Latex(node resolve.Node, st *syntax.SymbolTable) (string, error) {
	return latexNode(node, st)
}

func latexNode(node resolve.Node, st *syntax.SymbolTable) (string, error) {
	switch n := node.(type) {
	case *resolve.Relation:
		return n.RelName, nil
	case *resolve.Selection:
		cond := latexCondition(n.Condition, st, condOr)
		operand, err := latexOperand(n.Operand, 0, false, st)
		if err != nil {
			return "", err
		}
		return latexUnary(st.Latex[syntax.OpSelect], cond, operand, st), nil
	case *resolve.Projection:
		refs := make([]string, len(n.Refs))
		for i, ref := range n.Refs {
			refs[i] = ref.String()
		}
		operand, err := latexOperand(n.Operand, 0, false, st)
		if err != nil {
			return "", err
		}
		return latexUnary(st.Latex[syntax.OpProject], strings.Join(refs, ", "), operand, st), nil
	case *resolve.Rename:
		param := n.Alias
		if n.Renames != nil {
			param = fmt.Sprintf("%s(%s)", n.Alias, strings.Join(n.Renames, ", "))
		}
		operand, err := latexOperand(n.Operand, 0, false, st)
		if err != nil {
			return "", err
		}
		return latexUnary(st.Latex[syntax.OpRename], param, operand, st), nil
	case *resolve.SetOp:
		return latexBinary(n.Op, "", n.Left, n.Right, st)
	case *resolve.Product:
		return latexBinary(syntax.OpProduct, "", n.Left, n.Right, st)
	case *resolve.Join:
		if n.Natural {
			return latexBinary(syntax.OpNaturalJoin, "", n.Left, n.Right, st)
		}
		cond := latexCondition(n.Condition, st, condOr)
		return latexBinary(syntax.OpJoin, cond, n.Left, n.Right, st)
	case *resolve.Division:
		return latexBinary(syntax.OpDivide, "", n.Left, n.Right, st)
	}
	return "", fmt.Errorf("unhandled node type %T", node)
}

func latexUnary(symbol, param, operand string, st *syntax.SymbolTable) string {
	return fmt.Sprintf("%s%s%s%s %s", symbol, st.ParamStart, param, st.ParamEnd, operand)
}

func latexBinary(op syntax.Operator, param string, left, right resolve.Node, st *syntax.SymbolTable) (string, error) {
	tier := st.Tier(op)
	l, err := latexOperand(left, tier, false, st)
	if err != nil {
		return "", err
	}
	r, err := latexOperand(right, tier, true, st)
	if err != nil {
		return "", err
	}
	symbol := st.Latex[op]
	if param != "" {
		symbol += st.ParamStart + param + st.ParamEnd
	}
	return fmt.Sprintf("%s %s %s", l, symbol, r), nil
}

// latexOperand renders a child and parenthesizes it when its operator
// binds looser than the parent, or equally on the right of a binary
// operator, where bare rendering would re-associate.
func latexOperand(node resolve.Node, parentTier int, rightSide bool, st *syntax.SymbolTable) (string, error) {
	out, err := latexNode(node, st)
	if err != nil {
		return "", err
	}
	tier := operandTier(node, st)
	if tier > parentTier || (rightSide && tier == parentTier) {
		return "(" + out + ")", nil
	}
	return out, nil
}

// operandTier returns the precedence tier of the node's own operator.
// Leaves and unary operators report 0, tighter than any binary tier.
func operandTier(node resolve.Node, st *syntax.SymbolTable) int {
	switch n := node.(type) {
	case *resolve.SetOp:
		return st.Tier(n.Op)
	case *resolve.Product:
		return st.Tier(syntax.OpProduct)
	case *resolve.Join:
		if n.Natural {
			return st.Tier(syntax.OpNaturalJoin)
		}
		return st.Tier(syntax.OpJoin)
	case *resolve.Division:
		return st.Tier(syntax.OpDivide)
	}
	return 0
}

// Condition precedence levels, loosest first.
const (
	condOr = iota
	condAnd
	condNot
)

func latexCondition(cond resolve.Condition, st *syntax.SymbolTable, level int) string {
	switch c := cond.(type) {
	case *resolve.Comparison:
		return fmt.Sprintf("%s %s %s",
			latexConditionOperand(c.Left),
			st.LatexComparators[c.Op],
			latexConditionOperand(c.Right))
	case *resolve.And:
		out := fmt.Sprintf("%s %s %s",
			latexCondition(c.Left, st, condAnd),
			st.LatexAnd,
			latexCondition(c.Right, st, condAnd))
		if level > condAnd {
			return "(" + out + ")"
		}
		return out
	case *resolve.Or:
		out := fmt.Sprintf("%s %s %s",
			latexCondition(c.Left, st, condOr),
			st.LatexOr,
			latexCondition(c.Right, st, condOr))
		if level > condOr {
			return "(" + out + ")"
		}
		return out
	case *resolve.Not:
		return fmt.Sprintf("%s %s", st.LatexNot, latexCondition(c.Inner, st, condNot))
	}
	return ""
}

func latexConditionOperand(op resolve.Operand) string {
	switch o := op.(type) {
	case *resolve.AttrRef:
		return o.String()
	case *resolve.Number:
		return o.Value
	case *resolve.Text:
		return "'" + o.Value + "'"
	}
	return ""
}
