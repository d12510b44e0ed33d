// Package catalog holds the relation schemas a statement is resolved
// against. A schema is an ordered list of attribute names; attribute order
// is significant because set operations and SQL output are positional.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Schema is the ordered attribute names of a relation.
type Schema []string

// Catalog maps relation names to their schemas.
type Catalog map[string]Schema

// Relation returns the schema of the named relation. The returned slice
// must not be mutated.
func (c Catalog) Relation(name string) (Schema, bool) {
	s, ok := c[name]
	return s, ok
}

// Names returns the relation names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every relation has at least one attribute and no
// duplicate attribute names.
func (c Catalog) Validate() error {
	for _, name := range c.Names() {
		schema := c[name]
		if len(schema) == 0 {
			return fmt.Errorf("relation %q has no attributes", name)
		}
		seen := make(map[string]struct{}, len(schema))
		for _, attr := range schema {
			if attr == "" {
				return fmt.Errorf("relation %q has an empty attribute name", name)
			}
			if _, dup := seen[attr]; dup {
				return fmt.Errorf("relation %q declares attribute %q twice", name, attr)
			}
			seen[attr] = struct{}{}
		}
	}
	return nil
}

// Load reads a catalog from a YAML file mapping relation names to
// attribute lists:
//
//	Employee: [id, name, salary]
//	Department: [id, manager]
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(raw)
}

// Parse parses a YAML catalog definition.
func Parse(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
