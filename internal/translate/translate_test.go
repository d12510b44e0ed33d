package translate

import (
	"errors"
	"testing"

	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/syntax"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"Person": {"name", "age", "city"},
		"Serves": {"bar", "beer"},
		"Beer":   {"beer"},
	}
}

func TestTranslate(t *testing.T) {
	result, err := Translate(`\project_{name} \select_{age > 30} Person`, syntax.Default(), testCatalog())
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if want := `\pi_{name} \sigma_{age > 30} Person`; result.Latex != want {
		t.Errorf("Latex = %q, want %q", result.Latex, want)
	}
	if want := `SELECT name FROM (SELECT * FROM Person WHERE age > 30) AS Person`; result.SQL != want {
		t.Errorf("SQL = %q, want %q", result.SQL, want)
	}
	if len(result.Tree.Nodes) != 3 {
		t.Errorf("tree has %d nodes, want 3", len(result.Tree.Nodes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestTranslateWarnings(t *testing.T) {
	result, err := Translate(`Person \natural_join Serves`, syntax.Default(), testCatalog())
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != resolve.DegenerateJoin {
		t.Errorf("Warnings = %v, want one DegenerateJoin", result.Warnings)
	}
}

func TestTranslateBagSemantics(t *testing.T) {
	result, err := Translate(`Serves \union Serves`, syntax.Default(), testCatalog(), WithBagSemantics())
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if want := `SELECT * FROM Serves UNION ALL SELECT * FROM Serves`; result.SQL != want {
		t.Errorf("SQL = %q, want %q", result.SQL, want)
	}
}

func TestTranslateAll(t *testing.T) {
	results, err := TranslateAll(`Person; Serves \divide Beer;`, syntax.Default(), testCatalog())
	if err != nil {
		t.Fatalf("TranslateAll() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].SQL != `SELECT * FROM Person` {
		t.Errorf("first SQL = %q", results[0].SQL)
	}
}

func TestTranslateStageTags(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		stage     string
	}{
		{"lex", `Person ? Serves`, StageLex},
		{"parse", `\select_{} Person`, StageParse},
		{"resolve", `Missing`, StageResolve},
		{"emit-sql", `Serves \cross Serves`, StageEmitSQL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.statement, syntax.Default(), testCatalog())
			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("error = %v, want *StageError", err)
			}
			if stageErr.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", stageErr.Stage, tt.stage)
			}
		})
	}
}
