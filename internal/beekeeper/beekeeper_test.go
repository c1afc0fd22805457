package beekeeper_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.followtheprocess.codes/beekeeper/internal/beekeeper"
	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/response"
	"go.followtheprocess.codes/beekeeper/internal/variable"
	"go.followtheprocess.codes/test"
)

const hiveTemplate = `{
  "name": "Widgets",
  "root": %q,
  "variables": {
    "api_key": {"type": "header", "name": "X-Key"}
  },
  "endpoints": {
    "widgets": {"path": "/widgets", "methods": ["GET", "POST"]},
    "widget": {
      "path": "/widgets/{id}",
      "variables": {"id": {"type": "url_replacement"}}
    }
  },
  "objects": {
    "Widgets": {
      "description": "Things on shelves",
      "id_variable": "id",
      "actions": {
        "get": {"endpoint": "widget"},
        "list": {
          "endpoint": "widgets",
          "variables": {"colour": {"optional": true}},
          "traverse": ["data", "*", "name"]
        },
        "create": {
          "endpoint": "widgets",
          "method": "POST",
          "description": "Make a new widget",
          "variables": {"widget": {"type": "data"}}
        }
      }
    }
  }
}`

// writeHive writes a hive rooted at root to a temporary file and returns its path.
func writeHive(t *testing.T, root string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "widgets.json")
	err := os.WriteFile(path, fmt.Appendf(nil, hiveTemplate, root), 0o644)
	test.Ok(t, err)

	return path
}

func TestCheck(t *testing.T) {
	good := writeHive(t, "https://api.example.com")

	bad := filepath.Join(t.TempDir(), "bad.json")
	test.Ok(t, os.WriteFile(bad, []byte(`{"endpoints": {}}`), 0o644))

	t.Run("good", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := beekeeper.New(stdout, stderr, false)

		err := app.Check(context.Background(), []string{good}, beekeeper.CheckOptions{})
		test.Ok(t, err)

		// Stderr should be empty
		test.Equal(t, stderr.String(), "")

		want := fmt.Sprintf("Success: %s is a valid hive\n", good)
		test.Equal(t, stdout.String(), want)
	})

	t.Run("bad", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := beekeeper.New(stdout, stderr, false)

		err := app.Check(context.Background(), []string{bad}, beekeeper.CheckOptions{})
		test.Err(t, err)
		test.True(t, errors.Is(err, hive.ErrInvalid))

		// Stdout should be empty
		test.Equal(t, stdout.String(), "")
	})
}

func TestShow(t *testing.T) {
	location := writeHive(t, "https://api.example.com")

	t.Run("text", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := beekeeper.New(stdout, stderr, false)

		err := app.Show(context.Background(), location, beekeeper.ShowOptions{})
		test.Ok(t, err)

		got := stdout.String()
		for _, want := range []string{
			"(https://api.example.com)",
			"Things on shelves",
			"https://api.example.com/widgets/{id}",
			"required: api_key, id",
			"optional: colour",
			"Make a new widget",
		} {
			test.True(t, strings.Contains(got, want), test.Context("%q missing from:\n%s", want, got))
		}

		test.Equal(t, stderr.String(), "")
	})

	t.Run("json", func(t *testing.T) {
		stdout := &bytes.Buffer{}

		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		err := app.Show(context.Background(), location, beekeeper.ShowOptions{JSON: true})
		test.Ok(t, err)

		shown, err := hive.Parse(stdout.Bytes(), hive.FormatJSON)
		test.Ok(t, err, test.Context("show --json output is not a valid hive"))
		test.Equal(t, shown.Root, "https://api.example.com")
	})
}

func TestDo(t *testing.T) {
	var gotKey string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /widgets", func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"a": {"name": "sprocket"}, "b": {"name": "cog"}}}`)
	})
	mux.HandleFunc("GET /widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "42" {
			http.Error(w, "no such widget", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 42, "name": "sprocket"}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	location := writeHive(t, server.URL)

	options := beekeeper.DoOptions{
		Timeout:           1 * time.Second,
		ConnectionTimeout: 500 * time.Millisecond,
	}

	t.Run("get", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		err := app.Do(context.Background(), location, "Widgets", "get", []string{"api_key=secret", "42"}, options)
		test.Ok(t, err)

		want := "{\n  \"id\": 42,\n  \"name\": \"sprocket\"\n}\n"
		test.Diff(t, stdout.String(), want)
	})

	t.Run("traversal", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		err := app.Do(context.Background(), location, "Widgets", "list", []string{"api_key=secret"}, options)
		test.Ok(t, err)

		want := "{\n  \"a\": \"sprocket\",\n  \"b\": \"cog\"\n}\n"
		test.Diff(t, stdout.String(), want)
		test.Equal(t, gotKey, "secret")
	})

	t.Run("traversal override", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		override := options
		override.Traverse = "data.[b]"

		err := app.Do(context.Background(), location, "Widgets", "list", []string{"api_key=secret"}, override)
		test.Ok(t, err)

		want := "{\n  \"b\": {\n    \"name\": \"cog\"\n  }\n}\n"
		test.Diff(t, stdout.String(), want)
	})

	t.Run("instance", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		byID := options
		byID.ID = "42"

		err := app.Do(context.Background(), location, "Widgets", "get", []string{"api_key=secret"}, byID)
		test.Ok(t, err)
		test.True(t, strings.Contains(stdout.String(), `"sprocket"`))
	})

	t.Run("error status", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		err := app.Do(context.Background(), location, "Widgets", "get", []string{"api_key=secret", "id=7"}, options)

		var status *response.StatusError
		test.True(t, errors.As(err, &status), test.Context("wrong error type: %T", err))
		test.Equal(t, status.Response.Status, http.StatusNotFound)
		test.Equal(t, stdout.String(), "no such widget\n")
	})

	t.Run("output", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := beekeeper.New(stdout, &bytes.Buffer{}, false)

		toFile := options
		toFile.Output = filepath.Join(t.TempDir(), "widget.json")

		err := app.Do(context.Background(), location, "Widgets", "get", []string{"api_key=secret", "id=42"}, toFile)
		test.Ok(t, err)

		contents, err := os.ReadFile(toFile.Output)
		test.Ok(t, err)
		test.Equal(t, string(contents), `{"id": 42, "name": "sprocket"}`)
	})

	t.Run("missing variable", func(t *testing.T) {
		app := beekeeper.New(&bytes.Buffer{}, &bytes.Buffer{}, false)

		err := app.Do(context.Background(), location, "Widgets", "get", []string{"id=42"}, options)
		test.True(t, errors.Is(err, variable.ErrMissingRequired))
	})
}

func TestDoDryRun(t *testing.T) {
	location := writeHive(t, "https://api.example.com")

	stdout := &bytes.Buffer{}
	app := beekeeper.New(stdout, &bytes.Buffer{}, false)

	args := []string{"api_key=secret", `widget={"name": "sprocket"}`}
	err := app.Do(context.Background(), location, "Widgets", "create", args, beekeeper.DoOptions{DryRun: true})
	test.Ok(t, err)

	want := `POST https://api.example.com/widgets
Content-Type: application/json
X-Key: secret

{"name":"sprocket"}
`
	test.Diff(t, stdout.String(), want)
}

func TestDoDryRunNumbers(t *testing.T) {
	location := writeHive(t, "https://api.example.com")

	tests := []struct {
		name   string   // Name of the test case
		action string   // Action to call
		want   string   // Expected dry run output
		args   []string // Call arguments
	}{
		{
			name:   "path",
			action: "get",
			args:   []string{"api_key=secret", "id=1000000"},
			want:   "GET https://api.example.com/widgets/1000000\nX-Key: secret\n",
		},
		{
			name:   "positional",
			action: "get",
			args:   []string{"api_key=secret", "1000000"},
			want:   "GET https://api.example.com/widgets/1000000\nX-Key: secret\n",
		},
		{
			name:   "query",
			action: "list",
			args:   []string{"api_key=secret", "colour=12345678"},
			want:   "GET https://api.example.com/widgets?colour=12345678\nX-Key: secret\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			app := beekeeper.New(stdout, &bytes.Buffer{}, false)

			err := app.Do(context.Background(), location, "Widgets", tt.action, tt.args, beekeeper.DoOptions{DryRun: true})
			test.Ok(t, err)
			test.Diff(t, stdout.String(), tt.want)
		})
	}
}

func TestParseArgs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "upload.bin")
	test.Ok(t, os.WriteFile(file, []byte{0xde, 0xad}, 0o644))

	tests := []struct {
		want    variable.Args // Expected arguments
		name    string        // Name of the test case
		args    []string      // Command line arguments
		wantErr bool          // Whether we want an error
	}{
		{
			name: "empty",
			args: nil,
			want: variable.Args{Named: map[string]any{}},
		},
		{
			name: "named and positional",
			args: []string{"id=42", "q=two words", "sprocket"},
			want: variable.Args{
				Named:      map[string]any{"id": json.Number("42"), "q": "two words"},
				Positional: []any{"sprocket"},
			},
		},
		{
			name: "json values",
			args: []string{"on=true", `tags=["a","b"]`, "equation=a=b"},
			want: variable.Args{
				Named: map[string]any{"on": true, "tags": []any{"a", "b"}, "equation": "a=b"},
			},
		},
		{
			name: "file",
			args: []string{"upload=@" + file},
			want: variable.Args{Named: map[string]any{"upload": []byte{0xde, 0xad}}},
		},
		{
			name: "large numbers keep their text",
			args: []string{"id=1000000", "big=12345678901234567890"},
			want: variable.Args{
				Named: map[string]any{"id": json.Number("1000000"), "big": json.Number("12345678901234567890")},
			},
		},
		{
			name:    "no name",
			args:    []string{"=value"},
			wantErr: true,
		},
		{
			name:    "duplicate",
			args:    []string{"a=1", "a=2"},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"upload=@" + filepath.Join(t.TempDir(), "nope")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := beekeeper.ParseArgs(tt.args)
			test.WantErr(t, err, tt.wantErr)

			if tt.wantErr {
				test.True(t, errors.Is(err, beekeeper.ErrBadArgument))
				return
			}

			test.True(t, reflect.DeepEqual(got, tt.want), test.Context("got %#v, wanted %#v", got, tt.want))
		})
	}
}
