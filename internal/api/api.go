// Package api turns a decoded hive into callable actions.
//
// An [API] owns its endpoints and objects, an [Object] owns its actions. Each of the
// three scopes (API, endpoint, action) declares variables and each action call works on
// its own deep copy of the merged chain, so an [API] may be shared between goroutines.
package api

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.followtheprocess.codes/beekeeper/internal/codec"
	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/render"
	"go.followtheprocess.codes/beekeeper/internal/transport"
	"go.followtheprocess.codes/beekeeper/internal/variable"
	"go.followtheprocess.codes/log"
)

var (
	// ErrInvalidMethod is returned when an action uses a method its endpoint doesn't allow.
	ErrInvalidMethod = errors.New("invalid method")

	// ErrUnknownEndpoint is returned when an action names an endpoint the hive doesn't declare.
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrUnknownObject is returned when looking up an object that doesn't exist.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnknownAction is returned when looking up an action an object doesn't have.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNotAddressable is returned when asking for an instance of an object with no
	// id variable.
	ErrNotAddressable = errors.New("object cannot be addressed by id")
)

// API is the root scope: the root URL, default mimetype and API wide variables.
type API struct {
	transport   Transport            // Sends rendered requests
	renderer    *render.Registry     // Renders variables into fragments
	codecs      *codec.Registry      // Decodes responses
	logger      *log.Logger          // Debug logs
	variables   *variable.Set        // API level declarations, with any values from WithVariables
	values      map[string]any       // Values given with WithVariables
	endpoints   map[string]*Endpoint // Endpoints by name
	objects     map[string]*Object   // Objects by name
	name        string               // Human readable name from the hive
	description string               // Description from the hive
	root        string               // Root URL
	mimetype    string               // Default mimetype
}

// Option is a functional option for an [API].
type Option func(*API)

// WithTransport sets the [Transport] requests are sent with, by default a
// [transport.HTTP] with default options.
func WithTransport(t Transport) Option {
	return func(a *API) {
		if t != nil {
			a.transport = t
		}
	}
}

// WithRegistry sets the registry variables are rendered with, by default [render.Default]
// or one built on the codecs given to [WithCodecs].
func WithRegistry(registry *render.Registry) Option {
	return func(a *API) {
		if registry != nil {
			a.renderer = registry
		}
	}
}

// WithCodecs sets the codec registry responses are decoded with.
func WithCodecs(codecs *codec.Registry) Option {
	return func(a *API) {
		if codecs != nil {
			a.codecs = codecs
		}
	}
}

// WithLogger sets the logger debug information is written to.
func WithLogger(logger *log.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithVariables gives values to API level variables, typically keys and tokens.
//
// Unlike action arguments these are not checked for completeness here, a missing
// required variable is only reported when an action is called.
func WithVariables(values map[string]any) Option {
	return func(a *API) {
		maps.Copy(a.values, values)
	}
}

// New builds an [API] from a decoded hive.
//
// Every action is checked against its endpoint up front, a hive that names an endpoint
// it doesn't declare returns [ErrUnknownEndpoint] and an action using a method its
// endpoint doesn't list returns [ErrInvalidMethod].
func New(h hive.Hive, options ...Option) (*API, error) {
	mimetype := h.Mimetype
	if mimetype == "" {
		mimetype = hive.DefaultMimetype
	}

	api := &API{
		logger:      log.New(io.Discard),
		values:      make(map[string]any),
		endpoints:   make(map[string]*Endpoint, len(h.Endpoints)),
		objects:     make(map[string]*Object, len(h.Objects)),
		name:        h.Name,
		description: h.Description,
		root:        h.Root,
		mimetype:    mimetype,
	}

	for _, option := range options {
		option(api)
	}

	if api.codecs == nil {
		api.codecs = codec.Default
	}

	if api.renderer == nil {
		if api.codecs == codec.Default {
			api.renderer = render.Default
		} else {
			api.renderer = render.New(api.codecs)
		}
	}

	if api.transport == nil {
		api.transport = transport.New(transport.Options{}, api.logger)
	}

	api.variables = variable.FromMap(h.Variables)
	for _, name := range slices.Sorted(maps.Keys(api.values)) {
		api.variables.SetValue(name, api.values[name])
	}

	for _, name := range slices.Sorted(maps.Keys(h.Endpoints)) {
		api.endpoints[name] = newEndpoint(api, name, h.Endpoints[name])
	}

	for _, name := range slices.Sorted(maps.Keys(h.Objects)) {
		object, err := newObject(api, name, h.Objects[name])
		if err != nil {
			return nil, err
		}
		api.objects[name] = object
	}

	api.logger.Debug(
		"Built API",
		"root", api.root,
		"endpoints", len(api.endpoints),
		"objects", len(api.objects),
	)

	return api, nil
}

// Name returns the API's name, empty if the hive doesn't give one.
func (a *API) Name() string {
	return a.name
}

// Description returns the API's description.
func (a *API) Description() string {
	return a.description
}

// Root returns the root URL.
func (a *API) Root() string {
	return a.root
}

// Mimetype returns the API's default mimetype.
func (a *API) Mimetype() string {
	return a.mimetype
}

// Variables returns a fresh deep copy of the API level variables.
func (a *API) Variables() (*variable.Set, error) {
	return a.variables.Clone()
}

// Endpoints returns the names of the endpoints, sorted.
func (a *API) Endpoints() []string {
	return slices.Sorted(maps.Keys(a.endpoints))
}

// Endpoint returns the named endpoint.
func (a *API) Endpoint(name string) (*Endpoint, error) {
	endpoint, ok := a.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return endpoint, nil
}

// Objects returns the names of the objects, sorted.
func (a *API) Objects() []string {
	return slices.Sorted(maps.Keys(a.objects))
}

// Object returns the named object.
func (a *API) Object(name string) (*Object, error) {
	object, ok := a.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownObject, name, strings.Join(a.Objects(), ", "))
	}
	return object, nil
}
