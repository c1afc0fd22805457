// Package codec provides the MIME type registry used to encode request bodies and
// decode response bodies.
//
// Each [Codec] is a trivial pair of functions, the interesting part is the dispatch
// rules in [Registry.Encode], [Registry.Load] and [Registry.Decode].
package codec

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Well known MIME types with a built in [Codec].
const (
	JSON   = "application/json"
	Form   = "application/x-www-form-urlencoded"
	Text   = "text/plain"
	HTML   = "text/html"
	Binary = "application/octet-stream"
	YAML   = "application/yaml"
	XYAML  = "application/x-yaml"
)

var (
	// ErrUnsupportedMimeType is returned when no codec (or no codec direction) exists
	// for a MIME type that must be encoded or strictly decoded.
	ErrUnsupportedMimeType = errors.New("unsupported MIME type")

	// ErrAlreadyRegistered is returned when registering a MIME type twice.
	ErrAlreadyRegistered = errors.New("codec already registered")
)

// Codec converts values to and from bytes for a single MIME type.
//
// Either function may be nil if the direction is not supported, e.g. there is no
// sensible way to load an HTML page into anything but a string.
type Codec struct {
	Dump func(value any) ([]byte, error)
	Load func(data []byte) (any, error)
}

// Registry maps MIME types to codecs, it is safe for concurrent use.
type Registry struct {
	codecs map[string]Codec
	mu     sync.RWMutex
}

// Default is the process wide registry.
var Default = New()

// New returns a fresh [Registry] populated with the built in codecs.
func New() *Registry {
	text := Codec{Dump: dumpText, Load: loadText}
	yml := Codec{Dump: dumpYAML, Load: loadYAML}

	return &Registry{
		codecs: map[string]Codec{
			JSON:   {Dump: dumpJSON, Load: loadJSON},
			Form:   {Dump: dumpForm, Load: loadForm},
			Text:   text,
			HTML:   text,
			Binary: {Dump: dumpBinary, Load: loadBinary},
			YAML:   yml,
			XYAML:  yml,
		},
	}
}

// Register adds a codec for mimetype, failing if one already exists.
func (r *Registry) Register(mimetype string, codec Codec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codecs[mimetype]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, mimetype)
	}

	r.codecs[mimetype] = codec
	return nil
}

// MimeTypes returns the registered MIME types, sorted.
func (r *Registry) MimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.codecs))
}

func (r *Registry) lookup(mimetype string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[mimetype]
	return codec, ok
}

// Encode dumps value to bytes as mimetype.
//
// Raw bytes are passed through whatever the mimetype, empty values encode to a
// nil body. An unknown mimetype is always an error, sending the wrong payload
// would be worse than not sending one.
func (r *Registry) Encode(value any, mimetype string) ([]byte, error) {
	if raw, ok := value.([]byte); ok {
		return dumpBinary(raw)
	}

	codec, ok := r.lookup(mimetype)
	if !ok || codec.Dump == nil {
		return nil, fmt.Errorf("%w: cannot encode %q", ErrUnsupportedMimeType, mimetype)
	}

	if isEmpty(value) {
		return nil, nil
	}

	return codec.Dump(value)
}

// Load decodes data as mimetype, returning data unchanged if there is no codec for it.
//
// An empty body loads as nil.
func (r *Registry) Load(data []byte, mimetype string) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	codec, ok := r.lookup(mimetype)
	if !ok || codec.Load == nil {
		return data, nil
	}

	return codec.Load(data)
}

// Decode is like [Registry.Load] but fails with [ErrUnsupportedMimeType] rather than
// passing unknown types through, for callers that need a structured value back.
func (r *Registry) Decode(data []byte, mimetype string) (any, error) {
	codec, ok := r.lookup(mimetype)
	if !ok || codec.Load == nil {
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnsupportedMimeType, mimetype)
	}

	if len(data) == 0 {
		return nil, nil
	}

	return codec.Load(data)
}

// isEmpty reports whether value is nil or an empty string, map or slice, all of
// which encode to no body at all.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func dumpJSON(value any) ([]byte, error) {
	return json.Marshal(value)
}

func loadJSON(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return value, nil
}

func dumpYAML(value any) ([]byte, error) {
	return yaml.Marshal(value)
}

func loadYAML(data []byte) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("invalid YAML body: %w", err)
	}
	return value, nil
}

func dumpText(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		return fmt.Appendf(nil, "%v", v), nil
	}
}

func loadText(data []byte) (any, error) {
	return string(data), nil
}

func dumpBinary(value any) ([]byte, error) {
	raw, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs []byte, got %T", ErrUnsupportedMimeType, Binary, value)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func loadBinary(data []byte) (any, error) {
	return data, nil
}
