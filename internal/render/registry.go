package render

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.followtheprocess.codes/beekeeper/internal/codec"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// Variable type tags with a built in [Handler].
const (
	TypeHeader         = "header"
	TypeURLParam       = variable.DefaultType
	TypeURLReplacement = "url_replacement"
	TypeData           = "data"
	TypeHTTPForm       = "http_form"
	TypeBasicAuth      = "http_basic_auth"
	TypeBearerToken    = "bearer_token"
	TypeCookie         = "cookie"
	TypeMultipart      = "multipart"
)

// Handler renders every filled variable of one type into request fragments.
//
// vars holds copies of the variables in set order, each with a value. codecs is
// the registry to encode any bodies with.
type Handler func(codecs *codec.Registry, vars []variable.Variable) ([]Fragment, error)

// Registry maps variable type tags to the [Handler] that renders them.
//
// It is safe for concurrent use, handlers may be registered while requests
// are being rendered.
type Registry struct {
	codecs   *codec.Registry
	handlers map[string]Handler
	mu       sync.RWMutex
}

// Default is the process wide registry, using [codec.Default].
var Default = New(codec.Default)

// New returns a fresh [Registry] with the built in handlers, encoding bodies
// with codecs.
//
// If codecs is nil, [codec.Default] is used.
func New(codecs *codec.Registry) *Registry {
	if codecs == nil {
		codecs = codec.Default
	}

	return &Registry{
		codecs: codecs,
		handlers: map[string]Handler{
			TypeHeader:         header,
			TypeURLParam:       urlParam,
			TypeURLReplacement: urlReplacement,
			TypeData:           data,
			TypeHTTPForm:       httpForm,
			TypeBasicAuth:      basicAuth,
			TypeBearerToken:    bearerToken,
			TypeCookie:         cookie,
			TypeMultipart:      multipartForm,
		},
	}
}

// Codecs returns the codec registry used to encode bodies.
func (r *Registry) Codecs() *codec.Registry {
	return r.codecs
}

// Register adds a handler for a new variable type tag, failing if the tag is
// already handled.
func (r *Registry) Register(tag string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tag]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, tag)
	}

	r.handlers[tag] = handler
	return nil
}

// Types returns the handled type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// Render dispatches every type present in the (already filled) set to its handler
// and returns all the fragments produced, in order.
func (r *Registry) Render(set *variable.Set) ([]Fragment, error) {
	var fragments []Fragment

	for _, tag := range set.Types() {
		r.mu.RLock()
		handler, ok := r.handlers[tag]
		r.mu.RUnlock()

		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, tag)
		}

		rendered, err := handler(r.codecs, set.Vals(tag))
		if err != nil {
			return nil, fmt.Errorf("could not render %s variables: %w", tag, err)
		}

		fragments = append(fragments, rendered...)
	}

	return fragments, nil
}
