package algebra

import "github.com/markb/raql/internal/syntax"

// Node is a relational algebra expression prior to schema resolution.
type Node interface {
	// Position returns the source position of the node's leading token.
	Position() Position
	nodeType() string
}

// Relation is a reference to a named relation.
type Relation struct {
	Name string
	Pos  Position
}

// Selection filters its operand by a predicate.
type Selection struct {
	Condition Condition
	Operand   Node
	Pos       Position
}

// Projection narrows its operand to the listed attributes.
type Projection struct {
	Attrs   []AttrRef
	Operand Node
	Pos     Position
}

// Rename gives its operand a new relation name and, optionally, new
// attribute names. An empty Attrs keeps the operand's attribute names.
type Rename struct {
	Alias   string
	Attrs   []string
	Operand Node
	Pos     Position
}

// SetOp is a union, intersection, or difference of two operands.
type SetOp struct {
	Op    syntax.Operator
	Left  Node
	Right Node
	Pos   Position
}

// Product is the cartesian product of two operands.
type Product struct {
	Left  Node
	Right Node
	Pos   Position
}

// Join combines two operands. A natural join has a nil Condition and
// matches attributes by name; a theta join carries an explicit condition.
type Join struct {
	Natural   bool
	Condition Condition
	Left      Node
	Right     Node
	Pos       Position
}

// Division yields the left operand's tuples that pair with every tuple of
// the right operand.
type Division struct {
	Left  Node
	Right Node
	Pos   Position
}

func (n *Relation) Position() Position   { return n.Pos }
func (n *Selection) Position() Position  { return n.Pos }
func (n *Projection) Position() Position { return n.Pos }
func (n *Rename) Position() Position     { return n.Pos }
func (n *SetOp) Position() Position      { return n.Pos }
func (n *Product) Position() Position    { return n.Pos }
func (n *Join) Position() Position       { return n.Pos }
func (n *Division) Position() Position   { return n.Pos }

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

// AttrRef names an attribute, optionally qualified by a relation name.
type AttrRef struct {
	Qualifier string // empty when unqualified
	Name      string
	Pos       Position
}

// String returns the reference in dotted form.
func (a AttrRef) String() string {
	if a.Qualifier == "" {
		return a.Name
	}
	return a.Qualifier + "." + a.Name
}

// Condition is a predicate on tuples, used by selections and theta joins.
type Condition interface {
	Position() Position
	condType() string
}

// Comparison compares two operands with a canonical comparison operator
// (one of =, !=, <, <=, >, >=).
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
	Pos   Position
}

// And is the conjunction of two conditions.
type And struct {
	Left  Condition
	Right Condition
	Pos   Position
}

// Or is the disjunction of two conditions.
type Or struct {
	Left  Condition
	Right Condition
	Pos   Position
}

// Not negates a condition.
type Not struct {
	Inner Condition
	Pos   Position
}

func (c *Comparison) Position() Position { return c.Pos }
func (c *And) Position() Position        { return c.Pos }
func (c *Or) Position() Position         { return c.Pos }
func (c *Not) Position() Position        { return c.Pos }

func (c *Comparison) condType() string { return "comparison" }
func (c *And) condType() string        { return "and" }
func (c *Or) condType() string         { return "or" }
func (c *Not) condType() string        { return "not" }

// Operand is a comparison operand: an attribute reference or a literal.
type Operand interface {
	Position() Position
	operandType() string
}

// Attribute is an attribute reference inside a condition.
type Attribute struct {
	Ref AttrRef
	Pos Position
}

// Number is a numeric literal.
type Number struct {
	Value string
	Pos   Position
}

// String is a quoted text literal. Value holds the text without quotes.
type String struct {
	Value string
	Pos   Position
}

func (o *Attribute) Position() Position { return o.Pos }
func (o *Number) Position() Position    { return o.Pos }
func (o *String) Position() Position    { return o.Pos }

func (o *Attribute) operandType() string { return "attribute" }
func (o *Number) operandType() string    { return "number" }
func (o *String) operandType() string    { return "string" }
