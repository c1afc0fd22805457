package api

import (
	"fmt"
	"slices"
	"strings"

	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// Endpoint is the middle scope: a path template under the API root and the
// methods allowed on it.
type Endpoint struct {
	api       *API          // The parent scope
	variables *variable.Set // Endpoint level declarations
	name      string        // Name in the hive
	path      string        // Path template, appended to the root
	mimetype  string        // Overrides the API mimetype if set
	methods   []string      // Allowed methods, upper case
}

func newEndpoint(api *API, name string, declared hive.Endpoint) *Endpoint {
	methods := make([]string, 0, len(declared.AllowedMethods()))
	for _, method := range declared.AllowedMethods() {
		methods = append(methods, strings.ToUpper(method))
	}

	return &Endpoint{
		api:       api,
		variables: variable.FromMap(declared.Variables),
		name:      name,
		path:      declared.Path,
		mimetype:  declared.Mimetype,
		methods:   methods,
	}
}

// Name returns the endpoint's name.
func (e *Endpoint) Name() string {
	return e.name
}

// Methods returns the methods allowed on the endpoint.
func (e *Endpoint) Methods() []string {
	return slices.Clone(e.methods)
}

// Allows reports whether method may be used on the endpoint.
func (e *Endpoint) Allows(method string) bool {
	return slices.Contains(e.methods, strings.ToUpper(method))
}

// URL returns the endpoint's URL template, the API root joined with its path.
func (e *Endpoint) URL() string {
	root := e.api.root
	if strings.HasSuffix(root, "/") && strings.HasPrefix(e.path, "/") {
		return root + strings.TrimPrefix(e.path, "/")
	}
	return root + e.path
}

// Mimetype returns the endpoint's mimetype, falling back to the API's.
func (e *Endpoint) Mimetype() string {
	if e.mimetype != "" {
		return e.mimetype
	}
	return e.api.Mimetype()
}

// Variables returns a fresh deep copy of the API variables with the endpoint's
// declarations merged on top.
func (e *Endpoint) Variables() (*variable.Set, error) {
	return inherit(e.api.Variables, e.variables)
}

// inherit merges a deep copy of locals over a fresh copy of the parent scope's variables.
func inherit(parent func() (*variable.Set, error), locals *variable.Set) (*variable.Set, error) {
	vars, err := parent()
	if err != nil {
		return nil, err
	}

	own, err := locals.Clone()
	if err != nil {
		return nil, fmt.Errorf("could not copy variables: %w", err)
	}

	return vars.Merge(own), nil
}
