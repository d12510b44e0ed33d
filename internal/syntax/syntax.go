// Package syntax defines the configurable surface syntax for relational
// algebra statements: the symbols that denote each operator, the precedence
// tiers of the binary operators, and the LaTeX forms used for typesetting.
// The lexer, parser, and emitters all take a SymbolTable as an argument;
// there is no implicit global syntax.
package syntax

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Operator identifies a relational algebra operator independent of the
// surface symbol configured for it.
type Operator int

const (
	OpSelect Operator = iota + 1
	OpProject
	OpRename
	OpUnion
	OpIntersect
	OpDifference
	OpProduct
	OpJoin // theta join, carries a condition parameter
	OpNaturalJoin
	OpDivide
)

// String returns the operator's canonical name, used in configuration keys
// and tree output.
func (o Operator) String() string {
	switch o {
	case OpSelect:
		return "selection"
	case OpProject:
		return "projection"
	case OpRename:
		return "rename"
	case OpUnion:
		return "union"
	case OpIntersect:
		return "intersection"
	case OpDifference:
		return "difference"
	case OpProduct:
		return "product"
	case OpJoin:
		return "join"
	case OpNaturalJoin:
		return "natural_join"
	case OpDivide:
		return "division"
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// IsUnary reports whether the operator takes a single operand.
func (o Operator) IsUnary() bool {
	return o == OpSelect || o == OpProject || o == OpRename
}

// IsBinary reports whether the operator takes two operands.
func (o Operator) IsBinary() bool {
	return !o.IsUnary()
}

// SymbolTable maps operator names to surface symbols and precedence tiers.
// It is immutable once handed to the pipeline; callers that need a variant
// syntax build a new table.
type SymbolTable struct {
	// Symbols maps each operator to the token that denotes it in input.
	// Symbols may be multi-character (`\select`) or single glyphs (σ).
	Symbols map[Operator]string

	// Precedence assigns each binary operator a tier. Tier 1 binds
	// tightest; operators in the same tier associate left-to-right.
	// Unary operators always bind tighter than any binary tier.
	Precedence map[Operator]int

	// Latex maps each operator to its typeset form.
	Latex map[Operator]string

	// Logical connective keywords for predicates.
	And, Or, Not string

	// Typeset forms of the logical connectives.
	LatexAnd, LatexOr, LatexNot string

	// Comparators maps surface comparison tokens to their canonical form
	// (one of =, !=, <, <=, >, >=).
	Comparators map[string]string

	// LatexComparators maps canonical comparison forms to typeset forms.
	LatexComparators map[string]string

	// ParamStart and ParamEnd delimit operator parameters, e.g. the
	// condition of a selection: \select_{a = 1} R.
	ParamStart, ParamEnd string
}

// Default returns the standard ASCII surface syntax, matching the
// backslash-keyword notation commonly used in course material.
func Default() *SymbolTable {
	return &SymbolTable{
		Symbols: map[Operator]string{
			OpSelect:      `\select`,
			OpProject:     `\project`,
			OpRename:      `\rename`,
			OpUnion:       `\union`,
			OpIntersect:   `\intersect`,
			OpDifference:  `\difference`,
			OpProduct:     `\cross`,
			OpJoin:        `\join`,
			OpNaturalJoin: `\natural_join`,
			OpDivide:      `\divide`,
		},
		Precedence: map[Operator]int{
			OpProduct:     1,
			OpJoin:        1,
			OpNaturalJoin: 1,
			OpDivide:      1,
			OpIntersect:   2,
			OpUnion:       3,
			OpDifference:  3,
		},
		Latex: map[Operator]string{
			OpSelect:      `\sigma`,
			OpProject:     `\pi`,
			OpRename:      `\rho`,
			OpUnion:       `\cup`,
			OpIntersect:   `\cap`,
			OpDifference:  `-`,
			OpProduct:     `\times`,
			OpJoin:        `\bowtie`,
			OpNaturalJoin: `\bowtie`,
			OpDivide:      `\div`,
		},
		And:      "and",
		Or:       "or",
		Not:      "not",
		LatexAnd: `\land`,
		LatexOr:  `\lor`,
		LatexNot: `\neg`,
		Comparators: map[string]string{
			"=":  "=",
			"!=": "!=",
			"<>": "!=",
			"<":  "<",
			"<=": "<=",
			">":  ">",
			">=": ">=",
		},
		LatexComparators: map[string]string{
			"=":  "=",
			"!=": `\neq`,
			"<":  "<",
			"<=": `\leq`,
			">":  ">",
			">=": `\geq`,
		},
		ParamStart: "_{",
		ParamEnd:   "}",
	}
}

// Glyphs returns a table using the formal relational algebra glyphs.
func Glyphs() *SymbolTable {
	st := Default()
	st.Symbols = map[Operator]string{
		OpSelect:      "σ",
		OpProject:     "π",
		OpRename:      "ρ",
		OpUnion:       "∪",
		OpIntersect:   "∩",
		OpDifference:  "−",
		OpProduct:     "×",
		OpJoin:        "⨝",
		OpNaturalJoin: "⋈",
		OpDivide:      "÷",
	}
	return st
}

// LatexTable returns a table whose surface symbols are this table's LaTeX
// forms, so that emitted LaTeX re-parses under it. Theta and natural join
// may share a symbol; the parser tells them apart by the presence of a
// condition parameter.
func (st *SymbolTable) LatexTable() *SymbolTable {
	out := Default()
	out.Symbols = make(map[Operator]string, len(st.Latex))
	for op, sym := range st.Latex {
		out.Symbols[op] = sym
	}
	out.Precedence = st.Precedence
	out.Latex = st.Latex
	out.And, out.Or, out.Not = st.LatexAnd, st.LatexOr, st.LatexNot
	out.LatexAnd, out.LatexOr, out.LatexNot = st.LatexAnd, st.LatexOr, st.LatexNot
	out.Comparators = make(map[string]string, len(st.LatexComparators))
	for canon, sym := range st.LatexComparators {
		out.Comparators[sym] = canon
	}
	out.LatexComparators = st.LatexComparators
	return out
}

// OperatorFor returns the operator denoted by the given surface symbol.
// Operators are scanned in a fixed order so a symbol shared by theta and
// natural join deterministically reports the theta join; the parser
// downgrades it to natural when no condition parameter follows.
func (st *SymbolTable) OperatorFor(symbol string) (Operator, bool) {
	for op := OpSelect; op <= OpDivide; op++ {
		if st.Symbols[op] == symbol {
			return op, true
		}
	}
	return 0, false
}

// Tier returns the precedence tier of a binary operator. Unary operators
// report tier 0, tighter than any binary tier.
func (st *SymbolTable) Tier(op Operator) int {
	if op.IsUnary() {
		return 0
	}
	return st.Precedence[op]
}

// MaxTier returns the loosest configured precedence tier.
func (st *SymbolTable) MaxTier() int {
	max := 0
	for _, t := range st.Precedence {
		if t > max {
			max = t
		}
	}
	return max
}

// MatchTokens returns every token the lexer should attempt to match by
// prefix, longest first: operator symbols, parameter delimiters, and
// comparison operators. Logical keywords are included only when they do
// not lex as identifiers (e.g. `\land`).
func (st *SymbolTable) MatchTokens() []string {
	toks := make([]string, 0, len(st.Symbols)+len(st.Comparators)+4)
	for _, sym := range st.Symbols {
		toks = append(toks, sym)
	}
	for sym := range st.Comparators {
		toks = append(toks, sym)
	}
	toks = append(toks, st.ParamStart)
	for _, kw := range []string{st.And, st.Or, st.Not} {
		if !startsWithLetter(kw) {
			toks = append(toks, kw)
		}
	}
	sort.Slice(toks, func(i, j int) bool {
		if len(toks[i]) != len(toks[j]) {
			return len(toks[i]) > len(toks[j])
		}
		return toks[i] < toks[j]
	})
	return toks
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Validate checks that every operator has a distinct, non-empty symbol.
func (st *SymbolTable) Validate() error {
	seen := map[string]Operator{}
	for op := OpSelect; op <= OpDivide; op++ {
		sym, ok := st.Symbols[op]
		if !ok || sym == "" {
			return fmt.Errorf("no symbol configured for %s", op)
		}
		if prev, dup := seen[sym]; dup {
			// Theta and natural join may share a glyph (\bowtie); every
			// other collision is a configuration error.
			if !(prev == OpJoin && op == OpNaturalJoin) {
				return fmt.Errorf("symbol %q configured for both %s and %s", sym, prev, op)
			}
		}
		seen[sym] = op
		if op.IsBinary() {
			if _, ok := st.Precedence[op]; !ok {
				return fmt.Errorf("no precedence tier configured for %s", op)
			}
		}
	}
	if st.ParamStart == "" || st.ParamEnd == "" {
		return fmt.Errorf("parameter delimiters must be configured")
	}
	return nil
}

// fileConfig is the YAML shape for syntax overrides. Only the keys present
// in the file replace defaults.
type fileConfig struct {
	Symbols    map[string]string `yaml:"symbols"`
	Precedence map[string]int    `yaml:"precedence"`
	Latex      map[string]string `yaml:"latex"`
}

var operatorNames = map[string]Operator{
	"selection":    OpSelect,
	"projection":   OpProject,
	"rename":       OpRename,
	"union":        OpUnion,
	"intersection": OpIntersect,
	"difference":   OpDifference,
	"product":      OpProduct,
	"join":         OpJoin,
	"natural_join": OpNaturalJoin,
	"division":     OpDivide,
}

// Load reads syntax overrides from a YAML file and applies them on top of
// the default table.
func Load(path string) (*SymbolTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading syntax config: %w", err)
	}
	return Parse(raw)
}

// Parse applies YAML syntax overrides on top of the default table.
func Parse(raw []byte) (*SymbolTable, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing syntax config: %w", err)
	}
	st := Default()
	for name, sym := range cfg.Symbols {
		op, ok := operatorNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in syntax config", name)
		}
		st.Symbols[op] = sym
	}
	for name, tier := range cfg.Precedence {
		op, ok := operatorNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in syntax config", name)
		}
		if op.IsUnary() {
			return nil, fmt.Errorf("operator %q does not take a precedence tier", name)
		}
		st.Precedence[op] = tier
	}
	for name, form := range cfg.Latex {
		op, ok := operatorNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in syntax config", name)
		}
		st.Latex[op] = form
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}
