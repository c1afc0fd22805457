package variable_test

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	json "github.com/goccy/go-json"
	"go.followtheprocess.codes/beekeeper/internal/variable"
	"go.followtheprocess.codes/test"
	"gopkg.in/yaml.v3"
)

func TestMerge(t *testing.T) {
	one := variable.Variable{
		Value:    "value1",
		Mimetype: "mimetype1",
		Types:    []string{"type1_1", "type1_2"},
		Optional: variable.Bool(true),
	}
	two := variable.Variable{
		Value:    "value2",
		Mimetype: "mimetype2",
		Types:    []string{"type2_1"},
		Optional: variable.Bool(false),
	}

	t.Run("child wins", func(t *testing.T) {
		got := variable.Merge(one, two)
		test.Equal(t, got.Value, any("value2"))
		test.Equal(t, got.Mimetype, "mimetype2")
		test.False(t, got.IsOptional())
		test.True(t, slices.Equal(got.Types, []string{"type2_1", "type1_1", "type1_2"}), test.Context("types: %v", got.Types))
	})

	t.Run("not commutative", func(t *testing.T) {
		got := variable.Merge(two, one)
		test.Equal(t, got.Value, any("value1"))
		test.Equal(t, got.Mimetype, "mimetype1")
		test.True(t, got.IsOptional())
		test.True(t, slices.Equal(got.Types, []string{"type1_1", "type1_2", "type2_1"}), test.Context("types: %v", got.Types))
	})

	t.Run("parent kept where child is silent", func(t *testing.T) {
		got := variable.Merge(one, variable.Variable{Types: []string{"header"}})
		test.Equal(t, got.Value, any("value1"))
		test.Equal(t, got.Mimetype, "mimetype1")
		test.True(t, got.IsOptional())
		test.True(t, slices.Equal(got.Types, []string{"header", "type1_1", "type1_2"}), test.Context("types: %v", got.Types))
	})

	t.Run("shared types not duplicated", func(t *testing.T) {
		got := variable.Merge(
			variable.Variable{Types: []string{"header", "cookie"}},
			variable.Variable{Types: []string{"cookie", "data"}},
		)
		test.True(t, slices.Equal(got.Types, []string{"cookie", "data", "header"}), test.Context("types: %v", got.Types))
	})
}

func TestMergeProperties(t *testing.T) {
	values := []any{nil, "a", 1, map[string]any{"x": 1.0}}
	typeSets := [][]string{nil, {"header"}, {"url_param", "cookie"}, {"data"}}

	for _, parentValue := range values {
		for _, childValue := range values {
			for _, parentTypes := range typeSets {
				for _, childTypes := range typeSets {
					parent := variable.Variable{Value: parentValue, Types: parentTypes}
					child := variable.Variable{Value: childValue, Types: childTypes}
					got := variable.Merge(parent, child)

					if childValue != nil {
						test.True(t, reflect.DeepEqual(got.Value, childValue), test.Context("value %v over %v gave %v", childValue, parentValue, got.Value))
					}

					for _, tag := range slices.Concat(parentTypes, childTypes) {
						test.True(t, slices.Contains(got.Types, tag), test.Context("merged types %v lost %s", got.Types, tag))
					}

					test.Equal(t, len(got.Types), len(union(parentTypes, childTypes)))
				}
			}
		}
	}
}

func union(a, b []string) []string {
	var out []string
	for _, s := range slices.Concat(a, b) {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func TestFilled(t *testing.T) {
	tests := []struct {
		name       string            // Name of the test case
		variable   variable.Variable // Variable under test
		typ        string            // Type to check HasValueOfType against
		filled     bool              // Expected IsFilled
		valueOfTyp bool              // Expected HasValueOfType
	}{
		{
			name:       "filled",
			variable:   variable.Variable{Value: "value"},
			typ:        "url_param",
			filled:     true,
			valueOfTyp: true,
		},
		{
			name:       "empty",
			variable:   variable.Variable{},
			typ:        "url_param",
			filled:     false,
			valueOfTyp: false,
		},
		{
			name:       "optional",
			variable:   variable.Variable{Optional: variable.Bool(true)},
			typ:        "url_param",
			filled:     true,
			valueOfTyp: false,
		},
		{
			name:       "explicitly required",
			variable:   variable.Variable{Optional: variable.Bool(false)},
			typ:        "url_param",
			filled:     false,
			valueOfTyp: false,
		},
		{
			name:       "other type",
			variable:   variable.Variable{Value: "whatever", Types: []string{"another"}},
			typ:        "url_param",
			filled:     true,
			valueOfTyp: false,
		},
		{
			name:       "declared type",
			variable:   variable.Variable{Value: "whatever", Types: []string{"header"}},
			typ:        "header",
			filled:     true,
			valueOfTyp: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, tt.variable.IsFilled(), tt.filled)
			test.Equal(t, tt.variable.HasValueOfType(tt.typ), tt.valueOfTyp)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("json single type", func(t *testing.T) {
		var got variable.Variable
		err := json.Unmarshal([]byte(`{"type": "header", "name": "X-Key", "optional": true}`), &got)
		test.Ok(t, err)

		test.Equal(t, got.Name, "X-Key")
		test.True(t, got.IsOptional())
		test.True(t, slices.Equal(got.Types, []string{"header"}))
	})

	t.Run("json types wins over type", func(t *testing.T) {
		var got variable.Variable
		err := json.Unmarshal([]byte(`{"type": "header", "types": ["cookie", "url_param"], "value": 3}`), &got)
		test.Ok(t, err)

		test.True(t, slices.Equal(got.Types, []string{"cookie", "url_param"}))
		test.Equal(t, got.Value, any(json.Number("3")))
		test.True(t, got.Optional == nil)
	})

	t.Run("json numbers keep their text", func(t *testing.T) {
		var got variable.Variable
		err := json.Unmarshal([]byte(`{"value": 1000000}`), &got)
		test.Ok(t, err)

		test.Equal(t, got.Value, any(json.Number("1000000")))
	})

	t.Run("yaml", func(t *testing.T) {
		src := "type: data\nmimetype: application/json\nvalue:\n  a: b\n"

		var got variable.Variable
		err := yaml.Unmarshal([]byte(src), &got)
		test.Ok(t, err)

		test.Equal(t, got.Mimetype, "application/json")
		test.True(t, slices.Equal(got.Types, []string{"data"}))
		test.True(t, reflect.DeepEqual(got.Value, map[string]any{"a": "b"}), test.Context("value: %#v", got.Value))
	})

	t.Run("no type means default", func(t *testing.T) {
		var got variable.Variable
		err := json.Unmarshal([]byte(`{}`), &got)
		test.Ok(t, err)
		test.True(t, slices.Equal(got.TypeTags(), []string{variable.DefaultType}))
	})
}

func newSet() *variable.Set {
	return variable.NewSet().
		Add("x", variable.Variable{Value: "value1", Types: []string{"type1_1", "type1_2"}}).
		Add("y", variable.Variable{Value: "value2", Types: []string{"type2_1"}})
}

func TestSetAdd(t *testing.T) {
	set := newSet().Add("x", variable.Variable{Types: []string{"header"}, Name: "X-Thing"})

	test.True(t, slices.Equal(set.Names(), []string{"x", "y"}))

	x, ok := set.Get("x")
	test.True(t, ok)
	test.Equal(t, x.Name, "X-Thing")
	test.Equal(t, x.Value, any("value1"))
	test.True(t, slices.Equal(x.Types, []string{"header", "type1_1", "type1_2"}))

	y, ok := set.Get("y")
	test.True(t, ok)
	test.Equal(t, y.Name, "y") // Defaults to the key
}

func TestSetAddKeepsParentName(t *testing.T) {
	parent := variable.NewSet().Add("api_key", variable.Variable{Types: []string{"header"}, Name: "X-Key"})
	child := variable.NewSet().Add("api_key", variable.Variable{Optional: variable.Bool(true)})

	got, ok := parent.Merge(child).Get("api_key")
	test.True(t, ok)
	test.Equal(t, got.Name, "X-Key")
	test.True(t, got.IsOptional())
}

func TestSetTypesAndVals(t *testing.T) {
	set := newSet().
		Add("z", variable.Variable{}).
		Add("a", variable.Variable{Value: "whatever"})

	types := set.Types()
	for _, want := range []string{"type1_1", "type1_2", "type2_1", variable.DefaultType} {
		test.True(t, slices.Contains(types, want), test.Context("%s missing from %v", want, types))
	}

	vals := set.Vals(variable.DefaultType)
	test.Equal(t, len(vals), 1)
	test.Equal(t, vals[0].Name, "a")
	test.Equal(t, vals[0].Value, any("whatever"))
}

func TestFill(t *testing.T) {
	tests := []struct {
		name    string        // Name of the test case
		args    variable.Args // Args to fill with
		want    map[string]any
		missing []string // Expected names in the MissingError
		errIs   error    // Error wanted, if any
	}{
		{
			name: "named",
			args: variable.Args{Named: map[string]any{"x": "valx", "y": "valy", "a": "vala"}},
			want: map[string]any{"x": "valx", "y": "valy", "a": "vala"},
		},
		{
			name: "positional fills the single missing",
			args: variable.Args{
				Named:      map[string]any{"x": "valx"},
				Positional: []any{"this should go under a"},
			},
			want: map[string]any{"x": "valx", "y": "value2", "a": "this should go under a"},
		},
		{
			name:    "nothing given",
			args:    variable.Args{},
			missing: []string{"a"},
			errIs:   variable.ErrMissingRequired,
		},
		{
			name:  "positional with nothing missing",
			args:  variable.Args{Named: map[string]any{"a": 1}, Positional: []any{2}},
			errIs: variable.ErrUnplacedArgument,
		},
		{
			name:  "extra named becomes a url param",
			args:  variable.Args{Named: map[string]any{"a": 1, "page": 2}},
			want:  map[string]any{"a": 1, "page": 2},
			errIs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := newSet().Add("a", variable.Variable{})

			err := set.Fill(tt.args)
			test.WantErr(t, err, tt.errIs != nil)

			if tt.errIs != nil {
				test.True(t, errors.Is(err, tt.errIs), test.Context("got %v, wanted %v", err, tt.errIs))
			}

			if tt.missing != nil {
				var missingErr *variable.MissingError
				test.True(t, errors.As(err, &missingErr))
				test.True(t, slices.Equal(missingErr.Names, tt.missing), test.Context("missing: %v", missingErr.Names))
			}

			for name, want := range tt.want {
				got, ok := set.Get(name)
				test.True(t, ok, test.Context("%s not in set", name))
				test.Equal(t, got.Value, want)
			}

			if err == nil {
				test.Equal(t, len(set.Missing()), 0)
			}
		})
	}
}

func TestFillTwoMissingRejectsPositional(t *testing.T) {
	set := variable.NewSet().
		Add("a", variable.Variable{}).
		Add("b", variable.Variable{}).
		Add("c", variable.Variable{Optional: variable.Bool(true)})

	err := set.Fill(variable.Args{Positional: []any{"ambiguous"}})
	test.True(t, errors.Is(err, variable.ErrUnplacedArgument), test.Context("got %v", err))

	want := "positional argument has no variable to fill: got 1 positional argument(s) for 2 unfilled variable(s), pass a, b by name"
	test.Equal(t, err.Error(), want)

	// Nothing was placed
	a, _ := set.Get("a")
	test.False(t, a.HasValue())
}

func TestFillExtraPositional(t *testing.T) {
	set := variable.NewSet().Add("id", variable.Variable{})

	err := set.Fill(variable.Args{Positional: []any{1, 2}})
	test.True(t, errors.Is(err, variable.ErrUnplacedArgument), test.Context("got %v", err))

	var missingErr *variable.MissingError
	test.False(t, errors.As(err, &missingErr), test.Context("supplied values reported as missing: %v", err))
}

func TestClone(t *testing.T) {
	original := variable.NewSet().
		Add("body", variable.Variable{Types: []string{"data"}, Value: map[string]any{"a": "b"}}).
		Add("id", variable.Variable{Types: []string{"url_replacement"}})

	clone, err := original.Clone()
	test.Ok(t, err)

	test.Ok(t, clone.Fill(variable.Args{Named: map[string]any{"id": 1}}))

	// Filling the clone must not touch the original
	id, _ := original.Get("id")
	test.False(t, id.HasValue())

	// Neither may mutating a copied value
	body, _ := clone.Get("body")
	body.Value.(map[string]any)["a"] = "changed"

	originalBody, _ := original.Get("body")
	test.Equal(t, originalBody.Value.(map[string]any)["a"], any("b"))
}

func TestOptionalNames(t *testing.T) {
	set := variable.NewSet().
		Add("a", variable.Variable{}).
		Add("b", variable.Variable{Optional: variable.Bool(true)}).
		Add("c", variable.Variable{Value: "set"})

	test.True(t, slices.Equal(set.Optional(), []string{"b"}))
	test.True(t, slices.Equal(set.Required(), []string{"a", "c"}))
	test.True(t, slices.Equal(set.Missing(), []string{"a"}))
}
