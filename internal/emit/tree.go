package emit

import (
	"fmt"
	"strings"

	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

// Diagram is the structural form of a resolved tree, for external
// rendering tools. It carries structure only, no layout.
type Diagram struct {
	Nodes []DiagramNode `json:"nodes"`
	Edges []DiagramEdge `json:"edges"`
}

// DiagramNode is one tree node. IDs are assigned in post-order, so a
// node's operands always precede it in the list.
type DiagramNode struct {
	ID       int      `json:"id"`
	Operator string   `json:"operator"`
	Label    string   `json:"label"`
	Schema   []string `json:"schema"`
}

// DiagramEdge links a node to one operand. Role is "left" or "right" for
// binary operators and "sole" for unary ones.
type DiagramEdge struct {
	Parent int    `json:"parent"`
	Child  int    `json:"child"`
	Role   string `json:"role"`
}

// Tree renders the resolved tree as an explicit node and edge structure.
// Labels use the table's surface symbols with the operator's parameters.
func Tree(node resolve.Node, st *syntax.SymbolTable) (*Diagram, error) {
	b := &treeBuilder{st: st}
	if _, err := b.walk(node); err != nil {
		return nil, err
	}
	return &Diagram{Nodes: b.nodes, Edges: b.edges}, nil
}

type treeBuilder struct {
	st    *syntax.SymbolTable
	nodes []DiagramNode
	edges []DiagramEdge
}

func (b *treeBuilder) walk(node resolve.Node) (int, error) {
	switch n := node.(type) {
	case *resolve.Relation:
		return b.add(node, n.RelName), nil
	case *resolve.Selection:
		return b.unary(node, n.Operand, conditionText(n.Condition))
	case *resolve.Projection:
		refs := make([]string, len(n.Refs))
		for i, ref := range n.Refs {
			refs[i] = ref.String()
		}
		return b.unary(node, n.Operand, strings.Join(refs, ", "))
	case *resolve.Rename:
		param := n.Alias
		if n.Renames != nil {
			param = fmt.Sprintf("%s(%s)", n.Alias, strings.Join(n.Renames, ", "))
		}
		return b.unary(node, n.Operand, param)
	case *resolve.SetOp:
		return b.binary(node, n.Left, n.Right, "")
	case *resolve.Product:
		return b.binary(node, n.Left, n.Right, "")
	case *resolve.Join:
		if n.Natural {
			return b.binary(node, n.Left, n.Right, "")
		}
		return b.binary(node, n.Left, n.Right, conditionText(n.Condition))
	case *resolve.Division:
		return b.binary(node, n.Left, n.Right, "")
	}
	return 0, fmt.Errorf("unhandled node type %T", node)
}

func (b *treeBuilder) unary(node resolve.Node, operand resolve.Node, param string) (int, error) {
	child, err := b.walk(operand)
	if err != nil {
		return 0, err
	}
	id := b.add(node, b.label(node, param))
	b.edges = append(b.edges, DiagramEdge{Parent: id, Child: child, Role: "sole"})
	return id, nil
}

func (b *treeBuilder) binary(node resolve.Node, left, right resolve.Node, param string) (int, error) {
	l, err := b.walk(left)
	if err != nil {
		return 0, err
	}
	r, err := b.walk(right)
	if err != nil {
		return 0, err
	}
	id := b.add(node, b.label(node, param))
	b.edges = append(b.edges,
		DiagramEdge{Parent: id, Child: l, Role: "left"},
		DiagramEdge{Parent: id, Child: r, Role: "right"})
	return id, nil
}

func (b *treeBuilder) add(node resolve.Node, label string) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, DiagramNode{
		ID:       id,
		Operator: resolve.Kind(node),
		Label:    label,
		Schema:   node.Attrs().Names(),
	})
	return id
}

// label combines the node's surface symbol with its parameter text.
func (b *treeBuilder) label(node resolve.Node, param string) string {
	op := operatorOf(node)
	symbol := b.st.Symbols[op]
	if param == "" {
		return symbol
	}
	return symbol + b.st.ParamStart + param + b.st.ParamEnd
}

// conditionText renders a condition in plain canonical form, for display
// labels: spelled attribute references, and/or/not keywords, quoted text.
func conditionText(cond resolve.Condition) string {
	switch c := cond.(type) {
	case *resolve.Comparison:
		return fmt.Sprintf("%s %s %s", operandText(c.Left), c.Op, operandText(c.Right))
	case *resolve.And:
		return fmt.Sprintf("%s and %s", conditionText(c.Left), conditionText(c.Right))
	case *resolve.Or:
		return fmt.Sprintf("%s or %s", conditionText(c.Left), conditionText(c.Right))
	case *resolve.Not:
		return fmt.Sprintf("not %s", conditionText(c.Inner))
	}
	return ""
}

func operandText(op resolve.Operand) string {
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

func operatorOf(node resolve.Node) syntax.Operator {
	switch n := node.(type) {
	case *resolve.Selection:
		return syntax.OpSelect
	case *resolve.Projection:
		return syntax.OpProject
	case *resolve.Rename:
		return syntax.OpRename
	case *resolve.SetOp:
		return n.Op
	case *resolve.Product:
		return syntax.OpProduct
	case *resolve.Join:
		if n.Natural {
			return syntax.OpNaturalJoin
		}
		return syntax.OpJoin
	case *resolve.Division:
		return syntax.OpDivide
	}
	return 0
}
