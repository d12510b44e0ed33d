package emit

import (
	"fmt"
	"strings"

	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

// SQLOption configures SQL emission.
type SQLOption func(*sqlEmitter)

// WithBagSemantics emits the ALL variants of the set operators, keeping
// duplicate rows the way the plain operators would not.
func WithBagSemantics() SQLOption {
	return func(e *sqlEmitter) { e.bag = true }
}

// SQL renders the resolved tree as one standalone SQL statement built
// from nested subqueries. The statement favors an unambiguous nested
// shape over minimality; no flattening beyond what keeps qualified
// references valid is attempted.
func SQL(node resolve.Node, opts ...SQLOption) (string, error) {
	e := &sqlEmitter{}
	for _, opt := range opts {
		opt(e)
	}
	q, err := e.build(node)
	if err != nil {
		return "", err
	}
	return q.sql(), nil
}

type sqlEmitter struct {
	bag    bool
	aliasN int
}

func (e *sqlEmitter) alias() string {
	e.aliasN++
	return fmt.Sprintf("t%d", e.aliasN)
}

// query is a SQL statement under construction. Either compound holds a
// complete set-operation statement, or the select/from/where blocks
// describe a single SELECT. env maps resolved attributes to column
// expressions valid inside this query's scope.
type query struct {
	sel      []string // nil means *
	distinct bool
	from     string
	where    []string
	multi    bool // from holds more than one table
	compound string
	alias    string // derived-table alias, set by wrap
	env      *colEnv
}

func (q *query) sql() string {
	if q.compound != "" {
		return q.compound
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	if q.sel == nil {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.sel, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(q.from)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	return b.String()
}

func (e *sqlEmitter) build(node resolve.Node) (*query, error) {
	switch n := node.(type) {
	case *resolve.Relation:
		return e.buildRelation(n), nil
	case *resolve.Selection:
		return e.buildSelection(n)
	case *resolve.Projection:
		return e.buildProjection(n)
	case *resolve.Rename:
		return e.buildRename(n)
	case *resolve.SetOp:
		return e.buildSetOp(n)
	case *resolve.Product:
		return e.buildProduct(n)
	case *resolve.Join:
		return e.buildJoin(n)
	case *resolve.Division:
		return e.buildDivision(n)
	}
	return nil, fmt.Errorf("unhandled node type %T", node)
}

func (e *sqlEmitter) buildRelation(n *resolve.Relation) *query {
	env := newColEnv()
	for _, attr := range n.Attrs() {
		env.add(attr, n.RelName+"."+attr.Name)
	}
	return &query{from: n.RelName, env: env}
}

// buildSelection merges the predicate into the operand's WHERE block when
// the operand is still an un-projected SELECT; a projected or compound
// operand is wrapped as a derived table first.
func (e *sqlEmitter) buildSelection(n *resolve.Selection) (*query, error) {
	q, err := e.build(n.Operand)
	if err != nil {
		return nil, err
	}
	if q.compound != "" || q.sel != nil {
		q = e.wrap(q, n.Operand)
	}
	cond, err := e.condition(n.Condition, q.env, n)
	if err != nil {
		return nil, err
	}
	if _, isOr := n.Condition.(*resolve.Or); isOr {
		cond = "(" + cond + ")"
	}
	q.where = append(q.where, cond)
	return q, nil
}

// buildProjection inlines over a bare relation, merges into a multi-table
// FROM list so qualified references stay valid, and otherwise wraps the
// operand as a derived table.
func (e *sqlEmitter) buildProjection(n *resolve.Projection) (*query, error) {
	q, err := e.build(n.Operand)
	if err != nil {
		return nil, err
	}
	_, bare := n.Operand.(*resolve.Relation)
	if !bare && !(q.compound == "" && q.sel == nil && q.multi) {
		q = e.wrap(q, n.Operand)
	}
	sel := make([]string, len(n.Refs))
	for i, ref := range n.Refs {
		expr, err := q.env.lookup(&ref, n)
		if err != nil {
			return nil, err
		}
		sel[i] = expr
	}
	q.sel = sel
	return q, nil
}

func (e *sqlEmitter) buildRename(n *resolve.Rename) (*query, error) {
	q, err := e.build(n.Operand)
	if err != nil {
		return nil, err
	}
	if n.Renames == nil {
		// An alias-only rename changes no columns; remap the scope so
		// references through the new prefix find the old expressions.
		if q.env == nil {
			q = e.wrap(q, n.Operand)
		}
		q.env = q.env.remap(n.Operand.Attrs(), n.Attrs())
		return q, nil
	}
	if q.compound != "" || q.sel != nil {
		q = e.wrap(q, n.Operand)
	}
	in := n.Operand.Attrs()
	sel := make([]string, len(in))
	for i, attr := range in {
		expr, ok := q.env.exprFor(attr)
		if !ok {
			return nil, newEmitError(BackendSQL, n.Position(),
				"cannot reference attribute %s of the rename operand", attr)
		}
		if n.Renames[i] == attr.Name {
			sel[i] = expr
		} else {
			sel[i] = expr + " AS " + n.Renames[i]
		}
	}
	q.sel = sel
	q.env = nil // renamed columns are only visible after wrapping
	return q, nil
}

func (e *sqlEmitter) buildSetOp(n *resolve.SetOp) (*query, error) {
	left, err := e.build(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.build(n.Right)
	if err != nil {
		return nil, err
	}
	// Set operators associate left to right with equal precedence, so a
	// compound right side must become a derived table to keep its shape.
	if right.compound != "" {
		right = e.wrap(right, n.Right)
	}
	op := map[syntax.Operator]string{
		syntax.OpUnion:      "UNION",
		syntax.OpIntersect:  "INTERSECT",
		syntax.OpDifference: "EXCEPT",
	}[n.Op]
	if e.bag {
		op += " ALL"
	}
	return &query{compound: left.sql() + " " + op + " " + right.sql()}, nil
}

func (e *sqlEmitter) buildProduct(n *resolve.Product) (*query, error) {
	lref, _, lenv, err := e.tableRef(n.Left)
	if err != nil {
		return nil, err
	}
	rref, _, renv, err := e.tableRef(n.Right)
	if err != nil {
		return nil, err
	}
	if lref == rref {
		return nil, newEmitError(BackendSQL, n.Position(),
			"a relation combined with itself must be renamed on one side")
	}
	return &query{
		from:  lref + ", " + rref,
		multi: true,
		env:   mergeEnvs(lenv, renv),
	}, nil
}

func (e *sqlEmitter) buildJoin(n *resolve.Join) (*query, error) {
	lref, lalias, lenv, err := e.tableRef(n.Left)
	if err != nil {
		return nil, err
	}
	rref, ralias, renv, err := e.tableRef(n.Right)
	if err != nil {
		return nil, err
	}
	if lalias == ralias {
		return nil, newEmitError(BackendSQL, n.Position(),
			"a relation joined with itself must be renamed on one side")
	}

	if !n.Natural {
		env := mergeEnvs(lenv, renv)
		cond, err := e.condition(n.Condition, env, n)
		if err != nil {
			return nil, err
		}
		return &query{
			from:  lref + " JOIN " + rref + " ON " + cond,
			multi: true,
			env:   env,
		}, nil
	}

	// A degenerate natural join shares no attribute names and is exactly
	// a product.
	if len(n.Keys) == 0 {
		return &query{
			from:  lref + ", " + rref,
			multi: true,
			env:   mergeEnvs(lenv, renv),
		}, nil
	}

	// NATURAL JOIN reorders columns (join keys first), so the select list
	// is explicit, in left-operand order, with the unified join keys
	// unqualified.
	keySet := make(map[string]struct{}, len(n.Keys))
	for _, k := range n.Keys {
		keySet[k] = struct{}{}
	}
	var sel []string
	for _, attr := range n.Left.Attrs() {
		if _, key := keySet[attr.Name]; key {
			sel = append(sel, attr.Name)
		} else {
			sel = append(sel, lalias+"."+attr.Name)
		}
	}
	for _, attr := range n.Right.Attrs() {
		if _, key := keySet[attr.Name]; !key {
			sel = append(sel, ralias+"."+attr.Name)
		}
	}
	return &query{
		sel:   sel,
		from:  lref + " NATURAL JOIN " + rref,
		multi: true,
	}, nil
}

// buildDivision emits the standard double NOT EXISTS idiom: keep the
// dividend rows for which no divisor row lacks a matching dividend row.
func (e *sqlEmitter) buildDivision(n *resolve.Division) (*query, error) {
	lsrc, err := e.subquerySource(n.Left)
	if err != nil {
		return nil, err
	}
	rsrc, err := e.subquerySource(n.Right)
	if err != nil {
		return nil, err
	}
	t1, t2, t3 := e.alias(), e.alias(), e.alias()

	quotient := n.Attrs().Names()
	divisor := uniqueNames(n.Right.Attrs())

	env := newColEnv()
	sel := make([]string, len(quotient))
	for i, name := range quotient {
		sel[i] = t1 + "." + name
		env.add(n.Attrs()[i], sel[i])
	}
	var match []string
	for _, name := range quotient {
		match = append(match, fmt.Sprintf("%s.%s = %s.%s", t3, name, t1, name))
	}
	for _, name := range divisor {
		match = append(match, fmt.Sprintf("%s.%s = %s.%s", t3, name, t2, name))
	}

	notExists := fmt.Sprintf(
		"NOT EXISTS (SELECT * FROM %s AS %s WHERE NOT EXISTS (SELECT * FROM %s AS %s WHERE %s))",
		rsrc, t2, lsrc, t3, strings.Join(match, " AND "))
	return &query{
		sel:      sel,
		distinct: true,
		from:     lsrc + " AS " + t1,
		where:    []string{notExists},
		env:      env,
	}, nil
}

// tableRef renders a node as a FROM-list item: a bare table name for a
// relation leaf, otherwise a parenthesized derived table with an alias.
func (e *sqlEmitter) tableRef(node resolve.Node) (ref, alias string, env *colEnv, err error) {
	if rel, ok := node.(*resolve.Relation); ok {
		env = newColEnv()
		for _, attr := range rel.Attrs() {
			env.add(attr, rel.RelName+"."+attr.Name)
		}
		return rel.RelName, rel.RelName, env, nil
	}
	q, err := e.build(node)
	if err != nil {
		return "", "", nil, err
	}
	wrapped := e.wrap(q, node)
	return wrapped.from, wrapped.alias, wrapped.env, nil
}

// subquerySource renders a node for use inside the division idiom, where
// the same source appears under several aliases.
func (e *sqlEmitter) subquerySource(node resolve.Node) (string, error) {
	if rel, ok := node.(*resolve.Relation); ok {
		return rel.RelName, nil
	}
	q, err := e.build(node)
	if err != nil {
		return "", err
	}
	return "(" + q.sql() + ")", nil
}

// wrap turns a query into a derived table named after the node when it
// has a name, with column expressions rebuilt against the new alias.
func (e *sqlEmitter) wrap(q *query, node resolve.Node) *query {
	alias := node.Name()
	if alias == "" {
		alias = e.alias()
	}
	env := newColEnv()
	for _, attr := range node.Attrs() {
		env.add(attr, alias+"."+attr.Name)
	}
	return &query{
		from:  fmt.Sprintf("(%s) AS %s", q.sql(), alias),
		env:   env,
		alias: alias,
	}
}

func (e *sqlEmitter) condition(cond resolve.Condition, env *colEnv, node resolve.Node) (string, error) {
	switch c := cond.(type) {
	case *resolve.Comparison:
		left, err := e.operand(c.Left, env, node)
		if err != nil {
			return "", err
		}
		right, err := e.operand(c.Right, env, node)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", left, c.Op, right), nil
	case *resolve.And:
		left, err := e.condition(c.Left, env, node)
		if err != nil {
			return "", err
		}
		if _, isOr := c.Left.(*resolve.Or); isOr {
			left = "(" + left + ")"
		}
		right, err := e.condition(c.Right, env, node)
		if err != nil {
			return "", err
		}
		if _, isOr := c.Right.(*resolve.Or); isOr {
			right = "(" + right + ")"
		}
		return left + " AND " + right, nil
	case *resolve.Or:
		left, err := e.condition(c.Left, env, node)
		if err != nil {
			return "", err
		}
		right, err := e.condition(c.Right, env, node)
		if err != nil {
			return "", err
		}
		return left + " OR " + right, nil
	case *resolve.Not:
		inner, err := e.condition(c.Inner, env, node)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	}
	return "", fmt.Errorf("unhandled condition type %T", cond)
}

func (e *sqlEmitter) operand(op resolve.Operand, env *colEnv, node resolve.Node) (string, error) {
	switch o := op.(type) {
	case *resolve.AttrRef:
		return env.lookup(o, node)
	case *resolve.Number:
		return o.Value, nil
	case *resolve.Text:
		return "'" + strings.ReplaceAll(o.Value, "'", "''") + "'", nil
	}
	return "", fmt.Errorf("unhandled operand type %T", op)
}

// colEnv maps resolved attributes to the column expressions that denote
// them in the current query scope.
type colEnv struct {
	byAttr map[resolve.Attr]string
	byName map[string]int
}

func newColEnv() *colEnv {
	return &colEnv{byAttr: make(map[resolve.Attr]string), byName: make(map[string]int)}
}

func (env *colEnv) add(attr resolve.Attr, expr string) {
	if _, dup := env.byAttr[attr]; dup {
		env.byAttr[attr] = ""
	} else {
		env.byAttr[attr] = expr
	}
	env.byName[attr.Name]++
}

func (env *colEnv) exprFor(attr resolve.Attr) (string, bool) {
	expr, ok := env.byAttr[attr]
	return expr, ok && expr != ""
}

func (env *colEnv) lookup(ref *resolve.AttrRef, node resolve.Node) (string, error) {
	if env == nil {
		return "", newEmitError(BackendSQL, node.Position(),
			"cannot reference attribute %s in this context", ref)
	}
	if ref.Qualified {
		if expr, ok := env.exprFor(ref.Attr); ok {
			return expr, nil
		}
		return "", newEmitError(BackendSQL, node.Position(),
			"cannot express a reference to %s here; rename the operand to disambiguate", ref)
	}
	if env.byName[ref.Attr.Name] == 1 {
		return ref.Attr.Name, nil
	}
	return "", newEmitError(BackendSQL, node.Position(),
		"cannot express a reference to %s here; rename the operand to disambiguate", ref)
}

// remap rebinds each expression to a renamed attribute, positionally.
func (env *colEnv) remap(from, to resolve.Schema) *colEnv {
	out := newColEnv()
	for i, attr := range from {
		out.add(to[i], env.byAttr[attr])
	}
	return out
}

func mergeEnvs(envs ...*colEnv) *colEnv {
	out := newColEnv()
	for _, env := range envs {
		for attr, expr := range env.byAttr {
			if _, dup := out.byAttr[attr]; dup {
				out.byAttr[attr] = ""
			} else {
				out.byAttr[attr] = expr
			}
		}
		for name, count := range env.byName {
			out.byName[name] += count
		}
	}
	return out
}

func uniqueNames(s resolve.Schema) []string {
	var names []string
	seen := make(map[string]struct{}, len(s))
	for _, attr := range s {
		if _, dup := seen[attr.Name]; dup {
			continue
		}
		seen[attr.Name] = struct{}{}
		names = append(names, attr.Name)
	}
	return names
}
