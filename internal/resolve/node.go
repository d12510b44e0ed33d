package resolve

import (
	"github.com/markb/raql/internal/algebra"
	"github.com/markb/raql/internal/syntax"
)

// Attr is one attribute of a resolved schema. Prefix is the relation name
// or alias the attribute belongs to; prefixes keep positionally colliding
// names distinguishable after a product or theta join.
type Attr struct {
	Prefix string
	Name   string
}

// String returns the attribute in dotted form.
func (a Attr) String() string {
	if a.Prefix == "" {
		return a.Name
	}
	return a.Prefix + "." + a.Name
}

// Schema is an ordered list of resolved attributes.
type Schema []Attr

// Names returns the attribute names in order, without prefixes.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, a := range s {
		names[i] = a.Name
	}
	return names
}

// Node is a relational algebra expression annotated with its output
// schema. The tree is immutable after resolution; emitters only read it.
type Node interface {
	// Attrs returns the node's output schema.
	Attrs() Schema
	// Name returns the relation name the node's result is known by: the
	// relation name for a leaf, the alias for a rename, inherited through
	// the other unary operators, and empty for binary results.
	Name() string
	// Position returns the node's source position.
	Position() algebra.Position
	nodeType() string
}

// Relation is a resolved reference to a catalog relation.
type Relation struct {
	RelName string
	Pos     algebra.Position

	attrs Schema
}

// Selection filters its operand; the schema is the operand's.
type Selection struct {
	Condition Condition
	Operand   Node
	Pos       algebra.Position
}

// Projection narrows its operand to the resolved attribute list. Refs
// preserves how each attribute was spelled, for emitters that echo the
// statement's own qualification.
type Projection struct {
	Refs    []AttrRef
	Operand Node
	Pos     algebra.Position

	attrs Schema
}

// Rename gives its operand a new relation name and attribute prefixes.
// Renames holds the new attribute names the statement listed, or nil for
// an alias-only rename.
type Rename struct {
	Alias   string
	Renames []string
	Operand Node
	Pos     algebra.Position

	attrs Schema
}

// SetOp is a union, intersection, or difference. The schema is the left
// operand's; operands are aligned positionally.
type SetOp struct {
	Op    syntax.Operator
	Left  Node
	Right Node
	Pos   algebra.Position
}

// Product is a cartesian product; the schema is the concatenation of the
// operand schemas and may contain colliding names.
type Product struct {
	Left  Node
	Right Node
	Pos   algebra.Position

	attrs Schema
}

// Join is a natural or theta join. For a natural join Keys holds the
// shared attribute names in left-operand order and Condition is nil.
type Join struct {
	Natural   bool
	Keys      []string
	Condition Condition
	Left      Node
	Right     Node
	Pos       algebra.Position

	attrs Schema
}

// Division yields the dividend tuples paired with every divisor tuple;
// the schema is the dividend's attributes minus the divisor's.
type Division struct {
	Left  Node
	Right Node
	Pos   algebra.Position

	attrs Schema
}

func (n *Relation) Attrs() Schema   { return n.attrs }
func (n *Selection) Attrs() Schema  { return n.Operand.Attrs() }
func (n *Projection) Attrs() Schema { return n.attrs }
func (n *Rename) Attrs() Schema     { return n.attrs }
func (n *SetOp) Attrs() Schema      { return n.Left.Attrs() }
func (n *Product) Attrs() Schema    { return n.attrs }
func (n *Join) Attrs() Schema       { return n.attrs }
func (n *Division) Attrs() Schema   { return n.attrs }

func (n *Relation) Name() string   { return n.RelName }
func (n *Selection) Name() string  { return n.Operand.Name() }
func (n *Projection) Name() string { return n.Operand.Name() }
func (n *Rename) Name() string     { return n.Alias }
func (n *SetOp) Name() string      { return "" }
func (n *Product) Name() string    { return "" }
func (n *Join) Name() string       { return "" }
func (n *Division) Name() string   { return "" }

func (n *Relation) Position() algebra.Position   { return n.Pos }
func (n *Selection) Position() algebra.Position  { return n.Pos }
func (n *Projection) Position() algebra.Position { return n.Pos }
func (n *Rename) Position() algebra.Position     { return n.Pos }
func (n *SetOp) Position() algebra.Position      { return n.Pos }
func (n *Product) Position() algebra.Position    { return n.Pos }
func (n *Join) Position() algebra.Position       { return n.Pos }
func (n *Division) Position() algebra.Position   { return n.Pos }

func (n *Relation) nodeType() string   { return "relation" }
func (n *Selection) nodeType() string  { return syntax.OpSelect.String() }
func (n *Projection) nodeType() string { return syntax.OpProject.String() }
func (n *Rename) nodeType() string     { return syntax.OpRename.String() }
func (n *SetOp) nodeType() string      { return n.Op.String() }
func (n *Product) nodeType() string    { return syntax.OpProduct.String() }
func (n *Division) nodeType() string   { return syntax.OpDivide.String() }

func (n *Join) nodeType() string {
	if n.Natural {
		return syntax.OpNaturalJoin.String()
	}
	return syntax.OpJoin.String()
}

// Kind returns the node's operator name, or "relation" for a leaf. The
// tree emitter uses it as the node kind and the translators use it for
// error messages.
func Kind(n Node) string { return n.nodeType() }

// Condition is a resolved predicate.
type Condition interface {
	condType() string
}

// Comparison compares two operands with a canonical comparison operator.
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
}

// And is a conjunction.
type And struct {
	Left  Condition
	Right Condition
}

// Or is a disjunction.
type Or struct {
	Left  Condition
	Right Condition
}

// Not is a negation.
type Not struct {
	Inner Condition
}

func (c *Comparison) condType() string { return "comparison" }
func (c *And) condType() string        { return "and" }
func (c *Or) condType() string         { return "or" }
func (c *Not) condType() string        { return "not" }

// Operand is a resolved comparison operand.
type Operand interface {
	operandType() string
}

// AttrRef is a resolved attribute reference. Qualified records whether
// the statement spelled the reference with a relation prefix; emitters
// preserve that spelling.
type AttrRef struct {
	Attr      Attr
	Qualified bool
}

// String returns the reference as the statement spelled it.
func (o AttrRef) String() string {
	if o.Qualified {
		return o.Attr.String()
	}
	return o.Attr.Name
}

// Number is a numeric literal.
type Number struct {
	Value string
}

// Text is a string literal, without quotes.
type Text struct {
	Value string
}

func (o *AttrRef) operandType() string { return "attribute" }
func (o *Number) operandType() string  { return "number" }
func (o *Text) operandType() string    { return "string" }
