package hive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Version is a hive version.
//
// Hives write versions as numbers (1, 2.1) or strings ("1.2.0", "2024-01"), both
// decode to a Version holding the literal text.
type Version string

// Equal reports whether v and other name the same version.
//
// When both parse as semantic versions they are compared as such, so 1, "1.0" and
// "1.0.0" are all equal. Otherwise the text must match exactly.
func (v Version) Equal(other Version) bool {
	a, errA := semver.NewVersion(string(v))
	b, errB := semver.NewVersion(string(other))
	if errA == nil && errB == nil {
		return a.Equal(b)
	}

	return strings.TrimSpace(string(v)) == strings.TrimSpace(string(other))
}

// UnmarshalJSON implements [json.Unmarshaler] for a [Version].
func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = Version(text)
		return nil
	}

	var number float64
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}

	// Keep the literal so 1.10 doesn't become 1.1
	*v = Version(data)
	return nil
}

// UnmarshalYAML implements [yaml.Unmarshaler] for a [Version].
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: version must be a number or string", node.Line)
	}

	*v = Version(node.Value)
	return nil
}
