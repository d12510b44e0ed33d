package emit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/markb/raql/internal/algebra"
	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"Employee":   {"id", "name", "salary"},
		"Department": {"id", "manager"},
		"Person":     {"name", "age", "city"},
		"Serves":     {"bar", "beer"},
		"Frequents":  {"drinker", "bar"},
		"Likes":      {"drinker", "beer"},
		"Beer":       {"beer"},
	}
}

func mustResolve(t *testing.T, input string) resolve.Node {
	t.Helper()
	ast, err := algebra.Parse(input, syntax.Default())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	node, _, err := resolve.Resolve(ast, testCatalog())
	if err != nil {
		t.Fatalf("Resolve(%q) error: %v", input, err)
	}
	return node
}

func TestLatex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "relation",
			input: `Employee`,
			want:  `Employee`,
		},
		{
			name:  "selection",
			input: `\select_{age > 30} Person`,
			want:  `\sigma_{age > 30} Person`,
		},
		{
			name:  "projection over selection",
			input: `\project_{name} \select_{age > 30} Person`,
			want:  `\pi_{name} \sigma_{age > 30} Person`,
		},
		{
			name:  "rename with attributes",
			input: `\rename_{E(a, b, c)} Employee`,
			want:  `\rho_{E(a, b, c)} Employee`,
		},
		{
			name:  "comparator typesetting",
			input: `\select_{age != 30 and age <= 60} Person`,
			want:  `\sigma_{age \neq 30 \land age \leq 60} Person`,
		},
		{
			name:  "string literal and or",
			input: `\select_{city = 'Oslo' or age < 20} Person`,
			want:  `\sigma_{city = 'Oslo' \lor age < 20} Person`,
		},
		{
			name:  "negation",
			input: `\select_{not age > 30} Person`,
			want:  `\sigma_{\neg age > 30} Person`,
		},
		{
			name:  "binary operators",
			input: `Serves \divide Beer`,
			want:  `Serves \div Beer`,
		},
		{
			name:  "theta join",
			input: `Employee \join_{Employee.id = Department.manager} Department`,
			want:  `Employee \bowtie_{Employee.id = Department.manager} Department`,
		},
		{
			name:  "natural join has no parameter",
			input: `Serves \natural_join Likes`,
			want:  `Serves \bowtie Likes`,
		},
		{
			name:  "looser child is parenthesized",
			input: `(Likes \union Likes) \cross Serves`,
			want:  `(Likes \cup Likes) \times Serves`,
		},
		{
			name:  "tighter child needs no parentheses",
			input: `\project_{drinker} Likes \union (Likes \cross Serves \divide Serves)`,
			want:  `\pi_{drinker} Likes \cup Likes \times Serves \div Serves`,
		},
		{
			name:  "right-nested same tier keeps parentheses",
			input: `Likes \difference (Likes \difference Likes)`,
			want:  `Likes - (Likes - Likes)`,
		},
		{
			name:  "unary operand in parentheses",
			input: `\project_{bar} (Serves \divide Beer)`,
			want:  `\pi_{bar} (Serves \div Beer)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Latex(mustResolve(t, tt.input), syntax.Default())
			if err != nil {
				t.Fatalf("Latex() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Latex() = %q, want %q", got, tt.want)
			}
		})
	}
}

// shape renders the (kind, schema) structure of a resolved tree, for
// comparing trees up to surface formatting.
func shape(node resolve.Node) string {
	var b strings.Builder
	var walk func(n resolve.Node)
	walk = func(n resolve.Node) {
		fmt.Fprintf(&b, "%s%v(", resolve.Kind(n), n.Attrs().Names())
		switch v := n.(type) {
		case *resolve.Selection:
			walk(v.Operand)
		case *resolve.Projection:
			walk(v.Operand)
		case *resolve.Rename:
			walk(v.Operand)
		case *resolve.SetOp:
			walk(v.Left)
			b.WriteString(" ")
			walk(v.Right)
		case *resolve.Product:
			walk(v.Left)
			b.WriteString(" ")
			walk(v.Right)
		case *resolve.Join:
			walk(v.Left)
			b.WriteString(" ")
			walk(v.Right)
		case *resolve.Division:
			walk(v.Left)
			b.WriteString(" ")
			walk(v.Right)
		}
		b.WriteString(")")
	}
	walk(node)
	return b.String()
}

func TestLatexRoundTrip(t *testing.T) {
	// A rendered formula re-parses under the typeset symbol table to a
	// tree with the same node kinds and schemas.
	inputs := []string{
		`\project_{name} \select_{age > 30} Person`,
		`\select_{Employee.id = 1 and salary >= 10 or not name = 'Ada'} Employee`,
		`\rename_{E(a, b, c)} Employee`,
		`(Likes \union Likes) \cross Serves`,
		`Employee \join_{Employee.id = Department.manager} Department`,
		`Frequents \natural_join Likes`,
		`Serves \divide Beer`,
		`Likes \difference (Likes \difference Likes)`,
	}
	st := syntax.Default()
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			original := mustResolve(t, input)
			rendered, err := Latex(original, st)
			if err != nil {
				t.Fatalf("Latex() error: %v", err)
			}
			reparsed, err := algebra.Parse(rendered, st.LatexTable())
			if err != nil {
				t.Fatalf("re-parsing %q: %v", rendered, err)
			}
			reresolved, _, err := resolve.Resolve(reparsed, testCatalog())
			if err != nil {
				t.Fatalf("re-resolving %q: %v", rendered, err)
			}
			if got, want := shape(reresolved), shape(original); got != want {
				t.Errorf("round trip changed the tree:\n  rendered %q\n  got  %s\n  want %s", rendered, got, want)
			}
		})
	}
}
