// Package render turns a filled [variable.Set] into a concrete HTTP request.
//
// Rendering happens in two stages. First each variable type present in the set is
// dispatched through a [Registry] to its [Handler], producing request [Fragment]s (a header,
// a query parameter, a path substitution or a body). Then [Assemble] folds the fragments
// into a single [Request] ready for a transport to send.
//
// Rendering either fully succeeds or fails before anything touches the network.
package render

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrMultipleDataVariables is returned when more than one body is rendered for
	// a single request.
	ErrMultipleDataVariables = errors.New("only one data variable may have a value")

	// ErrMultipleBearerTokens is returned when more than one bearer_token variable
	// has a value.
	ErrMultipleBearerTokens = errors.New("only one bearer token may have a value")

	// ErrUnknownType is returned when a variable carries a type tag with no handler.
	ErrUnknownType = errors.New("unknown variable type")

	// ErrAlreadyRegistered is returned when registering a handler for a type tag twice.
	ErrAlreadyRegistered = errors.New("handler already registered")
)

// Kind is the kind of a request [Fragment].
type Kind int

const (
	KindHeader Kind = iota
	KindURLParam
	KindURLReplacement
	KindData
)

// String returns the name of the kind, matching the variable type tag that
// produces it directly.
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindURLParam:
		return "url_param"
	case KindURLReplacement:
		return "url_replacement"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fragment is a single rendered piece of a request.
type Fragment struct {
	Value any    // Value of a header, url_param or url_replacement
	Name  string // Header, query or placeholder name, unused for data
	Data  []byte // Encoded body, data only
	Kind  Kind   // What the fragment is
}

// Header returns a header [Fragment].
func Header(name, value string) Fragment {
	return Fragment{Kind: KindHeader, Name: name, Value: value}
}

// Request is a fully rendered HTTP request, the boundary handed to a transport.
type Request struct {
	Headers map[string]string `json:"headers,omitempty"` // Header name to value, case sensitive
	Method  string            `json:"method,omitempty"`  // HTTP method
	URL     string            `json:"url,omitempty"`     // Complete URL including any query string
	Body    []byte            `json:"body,omitempty"`    // Request body, nil if there isn't one
}

// String implements [fmt.Stringer] for a [Request], showing it in the style
// of a .http file.
func (r Request) String() string {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "%s %s\n", r.Method, r.URL)

	for _, key := range slices.Sorted(maps.Keys(r.Headers)) {
		fmt.Fprintf(builder, "%s: %s\n", key, r.Headers[key])
	}

	if r.Body != nil {
		fmt.Fprintf(builder, "\n%s\n", r.Body)
	}

	return builder.String()
}
