// Package resolve checks a parsed relational algebra statement against a
// catalog and annotates every node with its inferred output schema. The
// walk is post-order so each rule can assume its operand schemas are
// known, and it stops at the first error. Non-fatal findings are returned
// as warnings alongside the resolved tree.
package resolve

import (
	"fmt"

	"github.com/markb/raql/internal/algebra"
	"github.com/markb/raql/internal/catalog"
)

// Resolve resolves the statement against the catalog. The returned tree
// is immutable; warnings are non-fatal and accompany a successful result.
func Resolve(node algebra.Node, cat catalog.Catalog) (Node, []Warning, error) {
	r := &resolver{cat: cat}
	resolved, err := r.resolve(node)
	if err != nil {
		return nil, nil, err
	}
	return resolved, r.warnings, nil
}

type resolver struct {
	cat      catalog.Catalog
	warnings []Warning
}

func (r *resolver) warn(kind WarningKind, pos algebra.Position, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos})
}

func (r *resolver) resolve(node algebra.Node) (Node, error) {
	switch n := node.(type) {
	case *algebra.Relation:
		return r.resolveRelation(n)
	case *algebra.Selection:
		return r.resolveSelection(n)
	case *algebra.Projection:
		return r.resolveProjection(n)
	case *algebra.Rename:
		return r.resolveRename(n)
	case *algebra.SetOp:
		return r.resolveSetOp(n)
	case *algebra.Product:
		return r.resolveProduct(n)
	case *algebra.Join:
		return r.resolveJoin(n)
	case *algebra.Division:
		return r.resolveDivision(n)
	}
	return nil, fmt.Errorf("unhandled node type %T", node)
}

func (r *resolver) resolveRelation(n *algebra.Relation) (Node, error) {
	schema, ok := r.cat.Relation(n.Name)
	if !ok {
		return nil, newError(UnknownRelation, n.Pos, "relation %q is not in the catalog", n.Name)
	}
	attrs := make(Schema, len(schema))
	for i, name := range schema {
		attrs[i] = Attr{Prefix: n.Name, Name: name}
	}
	return &Relation{RelName: n.Name, Pos: n.Pos, attrs: attrs}, nil
}

func (r *resolver) resolveSelection(n *algebra.Selection) (Node, error) {
	operand, err := r.resolve(n.Operand)
	if err != nil {
		return nil, err
	}
	cond, err := r.resolveCondition(n.Condition, operand.Attrs())
	if err != nil {
		return nil, err
	}
	return &Selection{Condition: cond, Operand: operand, Pos: n.Pos}, nil
}

func (r *resolver) resolveProjection(n *algebra.Projection) (Node, error) {
	operand, err := r.resolve(n.Operand)
	if err != nil {
		return nil, err
	}
	attrs := make(Schema, len(n.Attrs))
	refs := make([]AttrRef, len(n.Attrs))
	for i, ref := range n.Attrs {
		attr, err := r.resolveAttr(ref, operand.Attrs())
		if err != nil {
			return nil, err
		}
		attrs[i] = attr
		refs[i] = AttrRef{Attr: attr, Qualified: ref.Qualifier != ""}
	}
	return &Projection{Refs: refs, Operand: operand, Pos: n.Pos, attrs: attrs}, nil
}

func (r *resolver) resolveRename(n *algebra.Rename) (Node, error) {
	operand, err := r.resolve(n.Operand)
	if err != nil {
		return nil, err
	}
	in := operand.Attrs()
	if n.Attrs != nil && len(n.Attrs) != len(in) {
		return nil, newError(SchemaMismatch, n.Pos,
			"rename lists %d attributes but the operand has %d", len(n.Attrs), len(in))
	}
	attrs := make(Schema, len(in))
	for i, attr := range in {
		name := attr.Name
		if n.Attrs != nil {
			name = n.Attrs[i]
		}
		attrs[i] = Attr{Prefix: n.Alias, Name: name}
	}
	return &Rename{Alias: n.Alias, Renames: n.Attrs, Operand: operand, Pos: n.Pos, attrs: attrs}, nil
}

// resolveSetOp checks union compatibility. Operands only need equal
// arity; they are aligned positionally and the left operand's attribute
// names carry into the result.
func (r *resolver) resolveSetOp(n *algebra.SetOp) (Node, error) {
	left, err := r.resolve(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(n.Right)
	if err != nil {
		return nil, err
	}
	if len(left.Attrs()) != len(right.Attrs()) {
		return nil, newError(SchemaMismatch, n.Pos,
			"%s operands have %d and %d attributes; set operands must have equal arity",
			n.Op, len(left.Attrs()), len(right.Attrs()))
	}
	return &SetOp{Op: n.Op, Left: left, Right: right, Pos: n.Pos}, nil
}

// resolveProduct concatenates the operand schemas. Colliding names are
// permitted; an unqualified reference to one fails later as ambiguous.
func (r *resolver) resolveProduct(n *algebra.Product) (Node, error) {
	left, err := r.resolve(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(n.Right)
	if err != nil {
		return nil, err
	}
	return &Product{
		Left: left, Right: right, Pos: n.Pos,
		attrs: concat(left.Attrs(), right.Attrs()),
	}, nil
}

func (r *resolver) resolveJoin(n *algebra.Join) (Node, error) {
	left, err := r.resolve(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(n.Right)
	if err != nil {
		return nil, err
	}

	if !n.Natural {
		// A theta join keeps the concatenated schema; the condition
		// resolves against it so shared names need qualification.
		both := concat(left.Attrs(), right.Attrs())
		cond, err := r.resolveCondition(n.Condition, both)
		if err != nil {
			return nil, err
		}
		return &Join{Condition: cond, Left: left, Right: right, Pos: n.Pos, attrs: both}, nil
	}

	keys := sharedNames(left.Attrs(), right.Attrs())
	if len(keys) == 0 {
		r.warn(DegenerateJoin, n.Pos,
			"natural join operands share no attribute names; the join degenerates to a product")
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}
	attrs := make(Schema, 0, len(left.Attrs())+len(right.Attrs())-len(keys))
	attrs = append(attrs, left.Attrs()...)
	for _, attr := range right.Attrs() {
		if _, shared := keySet[attr.Name]; !shared {
			attrs = append(attrs, attr)
		}
	}
	return &Join{Natural: true, Keys: keys, Left: left, Right: right, Pos: n.Pos, attrs: attrs}, nil
}

func (r *resolver) resolveDivision(n *algebra.Division) (Node, error) {
	left, err := r.resolve(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(n.Right)
	if err != nil {
		return nil, err
	}

	leftNames := make(map[string]struct{}, len(left.Attrs()))
	for _, attr := range left.Attrs() {
		leftNames[attr.Name] = struct{}{}
	}
	divisorNames := make(map[string]struct{}, len(right.Attrs()))
	for _, attr := range right.Attrs() {
		if _, ok := leftNames[attr.Name]; !ok {
			return nil, newError(InvalidDivision, n.Pos,
				"divisor attribute %q is not in the dividend's schema", attr.Name)
		}
		divisorNames[attr.Name] = struct{}{}
	}
	var attrs Schema
	for _, attr := range left.Attrs() {
		if _, ok := divisorNames[attr.Name]; !ok {
			attrs = append(attrs, attr)
		}
	}
	if len(attrs) == 0 {
		return nil, newError(InvalidDivision, n.Pos,
			"the divisor's attributes must be a proper subset of the dividend's")
	}
	return &Division{Left: left, Right: right, Pos: n.Pos, attrs: attrs}, nil
}

func (r *resolver) resolveCondition(cond algebra.Condition, schema Schema) (Condition, error) {
	switch c := cond.(type) {
	case *algebra.Comparison:
		left, err := r.resolveOperand(c.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := r.resolveOperand(c.Right, schema)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: c.Op, Left: left, Right: right}, nil
	case *algebra.And:
		left, err := r.resolveCondition(c.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := r.resolveCondition(c.Right, schema)
		if err != nil {
			return nil, err
		}
		return &And{Left: left, Right: right}, nil
	case *algebra.Or:
		left, err := r.resolveCondition(c.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := r.resolveCondition(c.Right, schema)
		if err != nil {
			return nil, err
		}
		return &Or{Left: left, Right: right}, nil
	case *algebra.Not:
		inner, err := r.resolveCondition(c.Inner, schema)
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner}, nil
	}
	return nil, fmt.Errorf("unhandled condition type %T", cond)
}

func (r *resolver) resolveOperand(op algebra.Operand, schema Schema) (Operand, error) {
	switch o := op.(type) {
	case *algebra.Attribute:
		attr, err := r.resolveAttr(o.Ref, schema)
		if err != nil {
			return nil, err
		}
		return &AttrRef{Attr: attr, Qualified: o.Ref.Qualifier != ""}, nil
	case *algebra.Number:
		return &Number{Value: o.Value}, nil
	case *algebra.String:
		return &Text{Value: o.Value}, nil
	}
	return nil, fmt.Errorf("unhandled operand type %T", op)
}

// resolveAttr finds the single schema attribute a reference names. An
// unqualified reference matches by name alone; a qualified one must match
// both prefix and name.
func (r *resolver) resolveAttr(ref algebra.AttrRef, schema Schema) (Attr, error) {
	var (
		found Attr
		count int
	)
	for _, attr := range schema {
		if attr.Name != ref.Name {
			continue
		}
		if ref.Qualifier != "" && attr.Prefix != ref.Qualifier {
			continue
		}
		found = attr
		count++
	}
	switch {
	case count == 0:
		return Attr{}, newError(UnknownAttribute, ref.Pos,
			"attribute %q is not in the operand's schema", ref)
	case count > 1:
		return Attr{}, newError(AmbiguousAttribute, ref.Pos,
			"attribute %q matches more than one operand attribute; qualify it with a relation name", ref)
	}
	return found, nil
}

func concat(left, right Schema) Schema {
	out := make(Schema, 0, len(left)+len(right))
	out = append(out, left...)
	return append(out, right...)
}

// sharedNames returns the attribute names present in both schemas, in
// left-schema order, each name once.
func sharedNames(left, right Schema) []string {
	rightNames := make(map[string]struct{}, len(right))
	for _, attr := range right {
		rightNames[attr.Name] = struct{}{}
	}
	var keys []string
	seen := make(map[string]struct{})
	for _, attr := range left {
		if _, ok := rightNames[attr.Name]; !ok {
			continue
		}
		if _, dup := seen[attr.Name]; dup {
			continue
		}
		seen[attr.Name] = struct{}{}
		keys = append(keys, attr.Name)
	}
	return keys
}
