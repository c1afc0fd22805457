package response

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Wildcard is the key that matches every key of a map.
const Wildcard = "*"

// Step is a single element of a traversal [Path]: a key, the [Wildcard], or a list
// of keys to pick out of a map.
type Step struct {
	Key  string   // A single key (or Wildcard), used when Keys is nil
	Keys []string // Several keys to pick at once
}

// Key returns a [Step] selecting a single key.
func Key(key string) Step {
	return Step{Key: key}
}

// Keys returns a [Step] selecting several keys into a new map.
func Keys(keys ...string) Step {
	return Step{Keys: keys}
}

// IsList reports whether the step selects a list of keys.
func (s Step) IsList() bool {
	return s.Keys != nil
}

// String implements [fmt.Stringer] for a [Step].
func (s Step) String() string {
	if s.IsList() {
		return "[" + strings.Join(s.Keys, ",") + "]"
	}
	return s.Key
}

// MarshalJSON implements [json.Marshaler] for a [Step].
func (s Step) MarshalJSON() ([]byte, error) {
	if s.IsList() {
		return json.Marshal(s.Keys)
	}
	return json.Marshal(s.Key)
}

// UnmarshalJSON implements [json.Unmarshaler] for a [Step], accepting either a
// string or a list of strings.
func (s *Step) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*s = Key(key)
		return nil
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("traversal step must be a string or list of strings: %s", data)
	}

	*s = Keys(keys...)
	return nil
}

// UnmarshalYAML implements [yaml.Unmarshaler] for a [Step].
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = Key(node.Value)
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		*s = Keys(keys...)
		return nil
	default:
		return fmt.Errorf("line %d: traversal step must be a string or list of strings", node.Line)
	}
}

// Path is a sequence of traversal steps.
type Path []Step

// String implements [fmt.Stringer] for a [Path], in the syntax accepted by [ParsePath].
func (p Path) String() string {
	parts := make([]string, 0, len(p))
	for _, step := range p {
		parts = append(parts, step.String())
	}
	return strings.Join(parts, ".")
}

// ErrBadPath is returned by [ParsePath] for malformed path expressions.
var ErrBadPath = errors.New("bad traversal path")

// ParsePath parses a dotted path expression such as "data.*.[id,name]".
//
// Each dot separated element is a key, the wildcard "*", or a bracketed, comma
// separated list of keys. An empty expression is an empty path.
func ParsePath(expr string) (Path, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	var (
		path    Path
		current strings.Builder
		inList  bool
		list    []string
	)

	flush := func(pos int) error {
		element := strings.TrimSpace(current.String())
		current.Reset()

		if list != nil {
			if element != "" {
				return fmt.Errorf("%w: unexpected %q after key list at offset %d", ErrBadPath, element, pos)
			}
			path = append(path, Keys(list...))
			list = nil
			return nil
		}

		if element == "" {
			return fmt.Errorf("%w: empty element at offset %d in %q", ErrBadPath, pos, expr)
		}

		path = append(path, Key(element))
		return nil
	}

	for pos, char := range expr {
		switch {
		case char == '[' && !inList:
			if strings.TrimSpace(current.String()) != "" {
				return nil, fmt.Errorf("%w: unexpected '[' at offset %d in %q", ErrBadPath, pos, expr)
			}
			inList = true
			list = []string{}
		case char == ']' && inList:
			key := strings.TrimSpace(current.String())
			current.Reset()
			if key != "" {
				list = append(list, key)
			}
			if len(list) == 0 {
				return nil, fmt.Errorf("%w: empty key list at offset %d in %q", ErrBadPath, pos, expr)
			}
			inList = false
		case char == ',' && inList:
			key := strings.TrimSpace(current.String())
			current.Reset()
			if key == "" {
				return nil, fmt.Errorf("%w: empty key in list at offset %d in %q", ErrBadPath, pos, expr)
			}
			list = append(list, key)
		case char == '.' && !inList:
			if err := flush(pos); err != nil {
				return nil, err
			}
		default:
			current.WriteRune(char)
		}
	}

	if inList {
		return nil, fmt.Errorf("%w: unclosed '[' in %q", ErrBadPath, expr)
	}

	if err := flush(len(expr)); err != nil {
		return nil, err
	}

	return path, nil
}

// TraversalError is returned when a path does not fit the shape of the value
// being traversed.
type TraversalError struct {
	Value any  // The value at the point traversal failed
	Step  Step // The step that could not be applied
}

// Error implements the error interface for a [TraversalError].
//
// The value is summarised to its top level so the message stays a sensible length
// however big the response was.
func (e *TraversalError) Error() string {
	return fmt.Sprintf("could not traverse %s with key %q", summarise(e.Value), e.Step.String())
}

// Traverse projects path through a decoded value.
//
// Lists are traversed element by element. In a map a single key descends into its value,
// the wildcard maps every key to its traversed value and a key list does the same for
// just those keys. Reaching a scalar with path left is only allowed beneath a wildcard or
// key list, where the scalar is returned as is.
func Traverse(value any, path ...Step) (any, error) {
	return traverse(value, path, false)
}

func traverse(value any, path []Step, split bool) (any, error) {
	if len(path) == 0 {
		return value, nil
	}

	step, rest := path[0], path[1:]

	switch v := value.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			traversed, err := traverse(item, path, false)
			if err != nil {
				return nil, err
			}
			out = append(out, traversed)
		}
		return out, nil

	case map[string]any:
		var keys []string
		switch {
		case step.IsList():
			keys = step.Keys
		case step.Key == Wildcard:
			keys = slices.Sorted(maps.Keys(v))
		default:
			item, ok := v[step.Key]
			if !ok {
				return nil, &TraversalError{Value: value, Step: step}
			}
			return traverse(item, rest, false)
		}

		out := make(map[string]any, len(keys))
		for _, key := range keys {
			item, ok := v[key]
			if !ok {
				return nil, &TraversalError{Value: value, Step: Key(key)}
			}

			traversed, err := traverse(item, rest, true)
			if err != nil {
				return nil, err
			}
			out[key] = traversed
		}
		return out, nil

	default:
		if split {
			return value, nil
		}
		return nil, &TraversalError{Value: value, Step: step}
	}
}

// summarise renders value with any nested maps and lists abbreviated.
func summarise(value any) string {
	switch v := value.(type) {
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, key := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, fmt.Sprintf("%q: %s", key, abbreviate(v[key])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, abbreviate(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return abbreviate(value)
	}
}

func abbreviate(value any) string {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			return "{}"
		}
		return "{...}"
	case []any:
		if len(v) == 0 {
			return "[]"
		}
		return "[...]"
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}
