package variable

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tiendc/go-deepcopy"
)

var (
	// ErrMissingRequired is returned (wrapped in a [MissingError]) when a set is
	// not complete after filling.
	ErrMissingRequired = errors.New("missing required variables")

	// ErrUnplacedArgument is returned when positional arguments were given but there
	// was no single missing variable to put them in.
	ErrUnplacedArgument = errors.New("positional argument has no variable to fill")
)

// MissingError names every required variable still lacking a value after a fill.
type MissingError struct {
	Names []string // The declared names of the unfilled variables
}

// Error implements the error interface for a [MissingError].
func (e *MissingError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingRequired, strings.Join(e.Names, ", "))
}

// Unwrap allows errors.Is(err, ErrMissingRequired).
func (e *MissingError) Unwrap() error {
	return ErrMissingRequired
}

// Args are the call-time values supplied to fill a [Set].
type Args struct {
	// Values by declared variable name
	Named map[string]any

	// Unnamed values, a single one is accepted when exactly one variable is left
	// unfilled after the named values are applied
	Positional []any
}

// Set is an ordered collection of uniquely named variables.
//
// Iteration order is insertion order which keeps rendering (and therefore tests)
// reproducible. The zero value is not usable, use [NewSet].
type Set struct {
	vars  map[string]*Variable
	names []string
}

// NewSet returns an empty [Set].
func NewSet() *Set {
	return &Set{
		vars: make(map[string]*Variable),
	}
}

// FromMap builds a [Set] from hive declarations, adding them in sorted key order
// as the hive document carries no ordering of its own.
func FromMap(declared map[string]Variable) *Set {
	set := NewSet()
	for _, name := range slices.Sorted(maps.Keys(declared)) {
		set.Add(name, declared[name])
	}
	return set
}

// Len returns the number of variables in the set.
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns the declared names in set order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Get returns a copy of the named variable, its Name defaulting to name.
func (s *Set) Get(name string) (Variable, bool) {
	if _, ok := s.vars[name]; !ok {
		return Variable{}, false
	}
	return s.resolved(name), true
}

// resolved returns a copy of the named variable with its wire name filled in.
//
// Names are only defaulted on the way out so a redeclaration in a child scope
// never clobbers a parent's rename.
func (s *Set) resolved(name string) Variable {
	v := *s.vars[name]
	if v.Name == "" {
		v.Name = name
	}
	return v
}

// Add declares a variable, merging it over any existing declaration of the same name
// (the existing one acting as parent). It returns s so calls can be chained.
func (s *Set) Add(name string, v Variable) *Set {
	if existing, ok := s.vars[name]; ok {
		merged := Merge(*existing, v)
		s.vars[name] = &merged
		return s
	}

	v.Types = slices.Clone(v.Types)
	s.vars[name] = &v
	s.names = append(s.names, name)
	return s
}

// Merge adds every variable of other on top of s, in other's order.
func (s *Set) Merge(other *Set) *Set {
	for _, name := range other.names {
		s.Add(name, *other.vars[name])
	}
	return s
}

// SetValue sets the value of the named variable, declaring it with the default
// type if it is not already in the set.
func (s *Set) SetValue(name string, value any) {
	if v, ok := s.vars[name]; ok {
		v.Value = value
		return
	}
	s.Add(name, Variable{Value: value})
}

// Fill applies args to the set then checks it is complete.
//
// Named values are applied first, then if exactly one positional argument was given
// and exactly one variable remains unfilled, it receives that argument. Any other
// use of positional arguments is an [ErrUnplacedArgument], they are never dropped.
// Completeness is checked once, at the end, returning a [*MissingError] listing every
// variable still unfilled.
func (s *Set) Fill(args Args) error {
	for _, name := range slices.Sorted(maps.Keys(args.Named)) {
		s.SetValue(name, args.Named[name])
	}

	if len(args.Positional) > 0 {
		missing := s.Missing()
		switch {
		case len(args.Positional) == 1 && len(missing) == 1:
			s.vars[missing[0]].Value = args.Positional[0]
		case len(missing) == 0:
			return fmt.Errorf("%w: got %d positional argument(s) but every variable is filled", ErrUnplacedArgument, len(args.Positional))
		default:
			return fmt.Errorf(
				"%w: got %d positional argument(s) for %d unfilled variable(s), pass %s by name",
				ErrUnplacedArgument,
				len(args.Positional),
				len(missing),
				strings.Join(missing, ", "),
			)
		}
	}

	if missing := s.Missing(); len(missing) > 0 {
		return &MissingError{Names: missing}
	}

	return nil
}

// Missing returns the names of the variables that are neither valued nor optional.
func (s *Set) Missing() []string {
	var missing []string
	for _, name := range s.names {
		if !s.vars[name].IsFilled() {
			missing = append(missing, name)
		}
	}
	return missing
}

// Required returns the names of the variables not declared optional, valued or not.
func (s *Set) Required() []string {
	var required []string
	for _, name := range s.names {
		if !s.vars[name].IsOptional() {
			required = append(required, name)
		}
	}
	return required
}

// Optional returns the names of the variables declared optional.
func (s *Set) Optional() []string {
	var optional []string
	for _, name := range s.names {
		if s.vars[name].IsOptional() {
			optional = append(optional, name)
		}
	}
	return optional
}

// Vals returns copies of every valued variable carrying the type tag t, in set order.
func (s *Set) Vals(t string) []Variable {
	var vals []Variable
	for _, name := range s.names {
		if s.vars[name].HasValueOfType(t) {
			vals = append(vals, s.resolved(name))
		}
	}
	return vals
}

// Types returns every type tag with at least one valued variable, in the order
// they are first seen.
func (s *Set) Types() []string {
	var types []string
	for _, name := range s.names {
		v := s.vars[name]
		if !v.HasValue() {
			continue
		}
		for _, t := range v.TypeTags() {
			if !slices.Contains(types, t) {
				types = append(types, t)
			}
		}
	}
	return types
}

// Update calls fn with a pointer to each variable in turn, allowing in-place
// changes such as defaulting a mimetype.
func (s *Set) Update(fn func(name string, v *Variable)) {
	for _, name := range s.names {
		fn(name, s.vars[name])
	}
}

// Clone returns a deep copy of the set, values included, so that filling the
// copy never touches the original declarations.
func (s *Set) Clone() (*Set, error) {
	clone := &Set{
		vars:  make(map[string]*Variable, len(s.vars)),
		names: slices.Clone(s.names),
	}

	for name, v := range s.vars {
		var copied Variable
		if err := deepcopy.Copy(&copied, *v); err != nil {
			return nil, fmt.Errorf("could not copy variable %s: %w", name, err)
		}
		clone.vars[name] = &copied
	}

	return clone, nil
}
