package codec

import (
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Pair is a single ordered form field, a slice of them encodes in the order given
// rather than sorted by key.
type Pair struct {
	Key   string
	Value any
}

// Strings flattens value into the string form(s) used in a query string or form body.
//
// Slices and arrays (other than []byte) produce one string per element so they
// encode as repeated keys, anything else produces exactly one.
func Strings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []byte:
		return []string{string(v)}
	case fmt.Stringer:
		return []string{v.String()}
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			out = append(out, scalar(rv.Index(i).Interface()))
		}
		return out
	}

	return []string{scalar(value)}
}

// ListSeparator joins the elements of a list value rendered as a single string.
const ListSeparator = ", "

// Join renders value as a single string, list elements separated by [ListSeparator].
//
// Used wherever a value has exactly one slot: headers, path segments and plain
// multipart fields. Query strings and forms repeat the key instead, see [Strings].
func Join(value any) string {
	return strings.Join(Strings(value), ListSeparator)
}

// scalar renders a single value, floats as written rather than in exponent form.
func scalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}

func dumpForm(value any) ([]byte, error) {
	switch v := value.(type) {
	case url.Values:
		return []byte(v.Encode()), nil
	case map[string]string:
		values := make(url.Values, len(v))
		for key, val := range v {
			values.Set(key, val)
		}
		return []byte(values.Encode()), nil
	case map[string]any:
		values := make(url.Values, len(v))
		for _, key := range slices.Sorted(maps.Keys(v)) {
			values[key] = Strings(v[key])
		}
		return []byte(values.Encode()), nil
	case []Pair:
		parts := make([]string, 0, len(v))
		for _, pair := range v {
			for _, s := range Strings(pair.Value) {
				parts = append(parts, url.QueryEscape(pair.Key)+"="+url.QueryEscape(s))
			}
		}
		return []byte(strings.Join(parts, "&")), nil
	default:
		return nil, fmt.Errorf("%w: cannot form encode %T", ErrUnsupportedMimeType, value)
	}
}

func loadForm(data []byte) (any, error) {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}

	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			out[key] = vals[0]
			continue
		}

		many := make([]any, 0, len(vals))
		for _, val := range vals {
			many = append(many, val)
		}
		out[key] = many
	}

	return out, nil
}
