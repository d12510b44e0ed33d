package syntax

import (
	"strings"
	"testing"
)

func TestDefaultTablesValidate(t *testing.T) {
	for name, st := range map[string]*SymbolTable{
		"default": Default(),
		"glyphs":  Glyphs(),
		"latex":   Default().LatexTable(),
	} {
		if err := st.Validate(); err != nil {
			t.Errorf("%s table failed validation: %v", name, err)
		}
	}
}

func TestOperatorFor(t *testing.T) {
	st := Default()
	tests := []struct {
		symbol string
		want   Operator
		ok     bool
	}{
		{`\select`, OpSelect, true},
		{`\natural_join`, OpNaturalJoin, true},
		{`\divide`, OpDivide, true},
		{`\outer_join`, 0, false},
	}
	for _, tt := range tests {
		op, ok := st.OperatorFor(tt.symbol)
		if op != tt.want || ok != tt.ok {
			t.Errorf("OperatorFor(%q) = %v, %v; want %v, %v", tt.symbol, op, ok, tt.want, tt.ok)
		}
	}

	// Theta and natural join share \bowtie in the LaTeX table; the shared
	// symbol reports the theta join.
	if op, ok := st.LatexTable().OperatorFor(`\bowtie`); !ok || op != OpJoin {
		t.Errorf(`OperatorFor(\bowtie) = %v, %v; want %v, true`, op, ok, OpJoin)
	}
}

func TestTiers(t *testing.T) {
	st := Default()
	if got := st.Tier(OpSelect); got != 0 {
		t.Errorf("unary tier = %d, want 0", got)
	}
	if got := st.Tier(OpProduct); got != 1 {
		t.Errorf("product tier = %d, want 1", got)
	}
	if got := st.Tier(OpIntersect); got != 2 {
		t.Errorf("intersect tier = %d, want 2", got)
	}
	if got := st.MaxTier(); got != 3 {
		t.Errorf("MaxTier() = %d, want 3", got)
	}
}

func TestMatchTokensLongestFirst(t *testing.T) {
	toks := Default().MatchTokens()
	index := func(s string) int {
		for i, tok := range toks {
			if tok == s {
				return i
			}
		}
		t.Fatalf("token %q not in match list", s)
		return -1
	}
	if index(`\natural_join`) > index(`\join`) {
		t.Error(`\natural_join must be matched before \join`)
	}
	if index("<=") > index("<") {
		t.Error(`"<=" must be matched before "<"`)
	}
}

func TestValidateRejectsCollisions(t *testing.T) {
	st := Default()
	st.Symbols[OpUnion] = st.Symbols[OpIntersect]
	if err := st.Validate(); err == nil {
		t.Fatal("expected an error for colliding union and intersection symbols")
	}

	st = Default()
	st.Symbols[OpJoin] = "⋈"
	st.Symbols[OpNaturalJoin] = "⋈"
	if err := st.Validate(); err != nil {
		t.Fatalf("shared join glyph must validate, got: %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	raw := []byte(`
symbols:
  selection: SELECT
  division: "%"
precedence:
  division: 2
latex:
  division: "\\bigdiv"
`)
	st, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if st.Symbols[OpSelect] != "SELECT" {
		t.Errorf("selection symbol = %q, want SELECT", st.Symbols[OpSelect])
	}
	if st.Symbols[OpDivide] != "%" {
		t.Errorf("division symbol = %q, want %%", st.Symbols[OpDivide])
	}
	if st.Precedence[OpDivide] != 2 {
		t.Errorf("division tier = %d, want 2", st.Precedence[OpDivide])
	}
	if st.Latex[OpDivide] != `\bigdiv` {
		t.Errorf(`division latex = %q, want \bigdiv`, st.Latex[OpDivide])
	}
	// Untouched operators keep their defaults.
	if st.Symbols[OpProject] != `\project` {
		t.Errorf("projection symbol = %q, want \\project", st.Symbols[OpProject])
	}
}

func TestParseRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"unknown operator", "symbols:\n  outer_join: OJ\n", "unknown operator"},
		{"unary precedence", "precedence:\n  selection: 1\n", "does not take a precedence tier"},
		{"colliding symbols", "symbols:\n  union: \\cross\n", "configured for both"},
		{"not yaml", ":\n  - {", "parsing syntax config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
