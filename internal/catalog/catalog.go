// Package catalog lists the known metric types: ready-made source paths,
// scales and derivation methods for common kernel counters.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/barmeter/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Type is a named metric preset.
type Type struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	Scale       float64  `yaml:"scale"`
	Method      int      `yaml:"method"`
	MethodInfo  []string `yaml:"method_info"`
	Description string   `yaml:"description"`
}

// Catalog is an ordered set of metric types.
type Catalog struct {
	types []Type
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid builtin catalog: %v", err))
	}
	return c
}

// Parse decodes a YAML list of types.
func Parse(data []byte) (*Catalog, error) {
	var types []Type
	if err := yaml.Unmarshal(data, &types); err != nil {
		return nil, errors.New().Wrap(errors.ErrImportFailed, err)
	}
	for i, t := range types {
		if t.Name == "" || t.Path == "" {
			return nil, errors.New().WithData(errors.ErrImportFailed, fmt.Sprintf("type %d: name and path are required", i))
		}
	}
	return &Catalog{types: types}, nil
}

// Merge adds the types of other, replacing same-named entries in place.
func (c *Catalog) Merge(other *Catalog) {
	for _, t := range other.types {
		if i := c.index(t.Name); i >= 0 {
			c.types[i] = t
			continue
		}
		c.types = append(c.types, t)
	}
}

// Lookup returns the type called name.
func (c *Catalog) Lookup(name string) (Type, error) {
	if i := c.index(name); i >= 0 {
		t := c.types[i]
		t.MethodInfo = append([]string(nil), t.MethodInfo...)
		return t, nil
	}
	return Type{}, errors.New().WithData(errors.ErrUnknownType, name)
}

// Types returns the catalog entries in order.
func (c *Catalog) Types() []Type {
	return append([]Type(nil), c.types...)
}

// Print writes one entry per type in the prompt's listing format.
func (c *Catalog) Print(w io.Writer) error {
	for _, t := range c.types {
		if _, err := fmt.Fprintf(w, "%s: %s, scale: %v, method: %d, methodInfo: [%s]\n  %s\n",
			t.Name, t.Path, t.Scale, t.Method, quoteAll(t.MethodInfo), t.Description); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) index(name string) int {
	for i, t := range c.types {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

func quoteAll(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
