package catalog

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	raw := []byte(`
Employee: [id, name, salary]
Department:
  - id
  - manager
`)
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	schema, ok := c.Relation("Employee")
	if !ok {
		t.Fatalf("Employee not found")
	}
	if !reflect.DeepEqual(schema, Schema{"id", "name", "salary"}) {
		t.Errorf("Employee schema = %v", schema)
	}
	if names := c.Names(); !reflect.DeepEqual(names, []string{"Department", "Employee"}) {
		t.Errorf("Names() = %v", names)
	}
	if _, ok := c.Relation("Missing"); ok {
		t.Errorf("Relation(Missing) = true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{"valid", Catalog{"R": {"a", "b"}}, ""},
		{"empty schema", Catalog{"R": {}}, "no attributes"},
		{"duplicate attribute", Catalog{"R": {"a", "a"}}, "twice"},
		{"empty attribute name", Catalog{"R": {"a", ""}}, "empty attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte(`R: [a, a]`)); err == nil {
		t.Errorf("Parse() accepted a duplicate attribute")
	}
	if _, err := Parse([]byte(`: not yaml: [`)); err == nil {
		t.Errorf("Parse() accepted malformed YAML")
	}
}
