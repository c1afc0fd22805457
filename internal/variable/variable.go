// Package variable implements the typed, optionally valued settings declared in a hive
// and the ordered [Set] of them owned by each scope (API, endpoint and action).
//
// A [Variable] knows nothing about HTTP, its Types say which renderers it feeds and
// its Value (once filled) is what they render.
package variable

import (
	"bytes"
	"slices"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DefaultType is the type given to a variable that declares none.
const DefaultType = "url_param"

// Variable is a single named, typed setting.
type Variable struct {
	// The value, nil if not yet filled
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Optional points to whether the variable may be left empty, nil means "not declared"
	// which matters when merging with a parent declaration
	Optional *bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Name rendered into the request (header name, query key etc.), defaults to the key
	// the variable is declared under
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// MIME type used to encode the value, for data and multipart variables
	Mimetype string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`

	// Filename sent with a multipart file part
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// The variable type tags, empty means [DefaultType]
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// declaration is the on-disk form of a [Variable], it accepts either a single
// "type" or a list of "types".
type declaration struct {
	Value    any      `json:"value"    yaml:"value"`
	Optional *bool    `json:"optional" yaml:"optional"`
	Name     string   `json:"name"     yaml:"name"`
	Mimetype string   `json:"mimetype" yaml:"mimetype"`
	Filename string   `json:"filename" yaml:"filename"`
	Type     string   `json:"type"     yaml:"type"`
	Types    []string `json:"types"    yaml:"types"`
}

func (d declaration) variable() Variable {
	types := d.Types
	if len(types) == 0 && d.Type != "" {
		types = []string{d.Type}
	}

	return Variable{
		Value:    d.Value,
		Optional: d.Optional,
		Name:     d.Name,
		Mimetype: d.Mimetype,
		Filename: d.Filename,
		Types:    types,
	}
}

// UnmarshalJSON implements [json.Unmarshaler] for a [Variable].
func (v *Variable) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var decl declaration
	if err := decoder.Decode(&decl); err != nil {
		return err
	}

	*v = decl.variable()
	return nil
}

// UnmarshalYAML implements [yaml.Unmarshaler] for a [Variable].
func (v *Variable) UnmarshalYAML(node *yaml.Node) error {
	var decl declaration
	if err := node.Decode(&decl); err != nil {
		return err
	}

	*v = decl.variable()
	return nil
}

// Bool returns a pointer to b, handy for setting [Variable.Optional].
func Bool(b bool) *bool {
	return &b
}

// IsOptional reports whether the variable was declared optional.
func (v Variable) IsOptional() bool {
	return v.Optional != nil && *v.Optional
}

// HasValue reports whether the variable has been given a value.
func (v Variable) HasValue() bool {
	return v.Value != nil
}

// IsFilled reports whether the variable has a value or may be left empty.
func (v Variable) IsFilled() bool {
	return v.HasValue() || v.IsOptional()
}

// TypeTags returns the type tags the variable participates in, substituting
// [DefaultType] if none were declared.
func (v Variable) TypeTags() []string {
	if len(v.Types) == 0 {
		return []string{DefaultType}
	}
	return v.Types
}

// HasType reports whether the variable carries the type tag t.
func (v Variable) HasType(t string) bool {
	return slices.Contains(v.TypeTags(), t)
}

// HasValueOfType reports whether the variable has a value and carries
// the type tag t, i.e. whether it should be fed to the renderer for t.
func (v Variable) HasValueOfType(t string) bool {
	return v.HasValue() && v.HasType(t)
}

// Merge reconciles two declarations of the same variable, parent being the one from
// the enclosing scope.
//
// The child's value, mimetype, optional flag, name and filename win wherever the child
// sets them, the types are the union of both with the child's first. Merge is therefore
// not commutative.
func Merge(parent, child Variable) Variable {
	out := Variable{
		Value:    parent.Value,
		Optional: parent.Optional,
		Name:     parent.Name,
		Mimetype: parent.Mimetype,
		Filename: parent.Filename,
	}

	if child.Value != nil {
		out.Value = child.Value
	}

	if child.Optional != nil {
		out.Optional = child.Optional
	}

	if child.Name != "" {
		out.Name = child.Name
	}

	if child.Mimetype != "" {
		out.Mimetype = child.Mimetype
	}

	if child.Filename != "" {
		out.Filename = child.Filename
	}

	types := make([]string, 0, len(child.Types)+len(parent.Types))
	types = append(types, child.Types...)
	for _, t := range parent.Types {
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}

	if len(types) > 0 {
		out.Types = types
	}

	return out
}
