// Package hive implements the on-disk description of a remote API, the "hive".
//
// A hive is a JSON (or YAML) document naming the API's root URL, its endpoints,
// the objects and actions built on those endpoints, and the variables each level
// declares. This package only decodes and locates hives, turning one into something
// callable is the job of package api.
package hive

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"go.followtheprocess.codes/beekeeper/internal/codec"
	"go.followtheprocess.codes/beekeeper/internal/response"
	"go.followtheprocess.codes/beekeeper/internal/variable"
	"gopkg.in/yaml.v3"
)

// DefaultMimetype is the API mimetype when a hive doesn't declare one.
const DefaultMimetype = codec.JSON

// DefaultMethod is the method of an action that doesn't declare one, and the only
// method allowed on an endpoint that doesn't list any.
const DefaultMethod = "GET"

// ErrInvalid is returned when a hive decodes but is missing something required.
var ErrInvalid = errors.New("invalid hive")

// Hive is a decoded hive document.
type Hive struct {
	// Variables declared at the API level, e.g. an API key
	Variables map[string]variable.Variable `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Endpoints by name
	Endpoints map[string]Endpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`

	// Objects by name, each a named group of actions
	Objects map[string]Object `json:"objects,omitempty" yaml:"objects,omitempty"`

	// Version information, nil if the hive isn't versioned
	Versioning *Versioning `json:"versioning,omitempty" yaml:"versioning,omitempty"`

	// Optional human readable name of the API
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Optional description of the API
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// The root URL every endpoint path is appended to
	Root string `json:"root" yaml:"root"`

	// Default mimetype for request and response bodies
	Mimetype string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
}

// Endpoint is a single URL template on the API.
type Endpoint struct {
	// Variables declared for every action on this endpoint
	Variables map[string]variable.Variable `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Path appended to the API root, may contain {name} placeholders
	Path string `json:"path" yaml:"path"`

	// Mimetype overriding the API default
	Mimetype string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`

	// HTTP methods actions may use on this endpoint
	Methods []string `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// AllowedMethods returns the endpoint's methods, defaulting to just [DefaultMethod].
func (e Endpoint) AllowedMethods() []string {
	if len(e.Methods) == 0 {
		return []string{DefaultMethod}
	}
	return e.Methods
}

// Object is a named group of actions, usually one kind of resource.
type Object struct {
	// Actions by name
	Actions map[string]Action `json:"actions,omitempty" yaml:"actions,omitempty"`

	// What the object is
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// The variable identifying a single instance of the object, empty if instances
	// can't be addressed directly
	IDVariable string `json:"id_variable,omitempty" yaml:"id_variable,omitempty"`
}

// ActionNames returns the names of the object's actions, sorted.
func (o Object) ActionNames() []string {
	return slices.Sorted(maps.Keys(o.Actions))
}

// Action is a single call an object supports: a method on an endpoint.
type Action struct {
	// Variables declared for just this action
	Variables map[string]variable.Variable `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Name of the endpoint the action calls
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// HTTP method, [DefaultMethod] if empty
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Optional description shown in help output
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Mimetypes overriding the endpoint's, per direction
	Mimetype Mimetype `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`

	// Path projected out of every decoded response
	Traverse response.Path `json:"traverse,omitempty" yaml:"traverse,omitempty"`
}

// HTTPMethod returns the action's method in upper case, defaulting to [DefaultMethod].
func (a Action) HTTPMethod() string {
	if a.Method == "" {
		return DefaultMethod
	}
	return strings.ToUpper(a.Method)
}

// Mimetype is an action's mimetype, which may differ between what it sends and
// what it receives.
//
// In a hive it is written either as a single string covering both directions or
// as an object with "send" and/or "receive" keys.
type Mimetype struct {
	Send    string `json:"send,omitempty"    yaml:"send,omitempty"`    // Mimetype of request bodies
	Receive string `json:"receive,omitempty" yaml:"receive,omitempty"` // Mimetype of response bodies
}

// IsZero reports whether neither direction is set.
func (m Mimetype) IsZero() bool {
	return m.Send == "" && m.Receive == ""
}

// MarshalJSON implements [json.Marshaler] for a [Mimetype], collapsing to a
// single string when both directions agree.
func (m Mimetype) MarshalJSON() ([]byte, error) {
	if m.Send == m.Receive {
		return json.Marshal(m.Send)
	}

	type directions Mimetype
	return json.Marshal(directions(m))
}

// UnmarshalJSON implements [json.Unmarshaler] for a [Mimetype].
func (m *Mimetype) UnmarshalJSON(data []byte) error {
	var both string
	if err := json.Unmarshal(data, &both); err == nil {
		*m = Mimetype{Send: both, Receive: both}
		return nil
	}

	type directions Mimetype
	var d directions
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("mimetype must be a string or an object with send/receive: %w", err)
	}

	*m = Mimetype(d)
	return nil
}

// UnmarshalYAML implements [yaml.Unmarshaler] for a [Mimetype].
func (m *Mimetype) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*m = Mimetype{Send: node.Value, Receive: node.Value}
		return nil
	}

	type directions Mimetype
	var d directions
	if err := node.Decode(&d); err != nil {
		return err
	}

	*m = Mimetype(d)
	return nil
}

// Versioning is a hive's version and where to find its other versions.
type Versioning struct {
	Version          Version           `json:"version"                     yaml:"version"`
	PreviousVersions []PreviousVersion `json:"previous_versions,omitempty" yaml:"previous_versions,omitempty"`
}

// PreviousVersion points to another version of the same hive.
type PreviousVersion struct {
	Version  Version `json:"version"  yaml:"version"`
	Location string  `json:"location" yaml:"location"`
}

// Version returns the hive's declared version, empty if it has none.
func (h Hive) Version() Version {
	if h.Versioning == nil {
		return ""
	}
	return h.Versioning.Version
}

// Location returns where to find version of the hive.
//
// It returns [ErrVersionNotFound] if the hive doesn't list that version.
func (h Hive) Location(version Version) (string, error) {
	if h.Versioning != nil {
		for _, previous := range h.Versioning.PreviousVersions {
			if previous.Version.Equal(version) && previous.Location != "" {
				return previous.Location, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrVersionNotFound, version)
}

// Validate checks the hive has the fields every API needs.
func (h Hive) Validate() error {
	if h.Root == "" {
		return fmt.Errorf("%w: missing root URL", ErrInvalid)
	}

	for name, object := range h.Objects {
		for actionName, action := range object.Actions {
			if action.Endpoint == "" {
				return fmt.Errorf("%w: action %s.%s names no endpoint", ErrInvalid, name, actionName)
			}
		}
	}

	return nil
}

// Format is the encoding of a hive document.
type Format int

const (
	FormatJSON Format = iota // A JSON hive
	FormatYAML               // A YAML hive
)

// String implements [fmt.Stringer] for a [Format].
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// DetectFormat picks the format of a hive from the Content-Type it was served
// with, if any, then the extension of its location. JSON is the default.
func DetectFormat(location, contentType string) Format {
	mimetype, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(mimetype)) {
	case codec.YAML, codec.XYAML, "text/yaml", "text/x-yaml":
		return FormatYAML
	case codec.JSON:
		return FormatJSON
	}

	// Strip any query string before looking at the extension
	location, _, _ = strings.Cut(location, "?")
	switch strings.ToLower(path.Ext(location)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a hive document in the given format.
func Parse(data []byte, format Format) (Hive, error) {
	var hive Hive

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &hive); err != nil {
			return Hive{}, fmt.Errorf("%w: bad YAML: %w", ErrInvalid, err)
		}
	default:
		if err := json.Unmarshal(data, &hive); err != nil {
			return Hive{}, fmt.Errorf("%w: bad JSON: %w", ErrInvalid, err)
		}
	}

	if err := hive.Validate(); err != nil {
		return Hive{}, err
	}

	return hive, nil
}
