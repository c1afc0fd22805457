// Package beekeeper implements the actual functionality exposed via the CLI.
package beekeeper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.followtheprocess.codes/beekeeper/internal/api"
	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/response"
	"go.followtheprocess.codes/beekeeper/internal/transport"
	"go.followtheprocess.codes/beekeeper/internal/variable"
	"go.followtheprocess.codes/hue"
	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/msg"
)

const (
	// DefaultTimeout is the default amount of time allowed for the entire request/response
	// cycle.
	DefaultTimeout = transport.DefaultTimeout

	// DefaultConnectionTimeout is the default amount of time allowed for the HTTP connection
	// to be established.
	DefaultConnectionTimeout = transport.DefaultConnectionTimeout
)

// ErrBadArgument is returned for a call argument that can't be parsed.
var ErrBadArgument = errors.New("bad argument")

// App holds the state of the program.
type App struct {
	stdout io.Writer   // Normal program output is written here
	stderr io.Writer   // Logs and debug info
	logger *log.Logger // The logger, discards unless debug is on
}

// New returns a new instance of [App].
func New(stdout, stderr io.Writer, debug bool) App {
	logger := log.New(io.Discard)
	if debug {
		logger = log.New(stderr, log.WithLevel(log.LevelDebug))
	}

	return App{
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// HiveOptions are the flags shared by every subcommand that opens a hive.
type HiveOptions struct {
	Version  string // Version of the hive to use, empty means whichever is found
	Insecure bool   // Allow fetching the hive over plain http
}

// open loads and builds the API described by the hive at location.
func (a App) open(ctx context.Context, location string, options HiveOptions, apiOptions ...api.Option) (hive.Hive, *api.API, error) {
	loaderOptions := []hive.Option{hive.WithLogger(a.logger.Prefixed("hive"))}
	if options.Insecure {
		loaderOptions = append(loaderOptions, hive.AllowInsecure())
	}

	h, err := hive.NewLoader(loaderOptions...).Open(ctx, location, hive.Version(options.Version))
	if err != nil {
		return hive.Hive{}, nil, err
	}

	apiOptions = append(apiOptions, api.WithLogger(a.logger.Prefixed("api")))

	built, err := api.New(h, apiOptions...)
	if err != nil {
		return hive.Hive{}, nil, fmt.Errorf("%s: %w", location, err)
	}

	return h, built, nil
}

// CheckOptions are the flags passed to the `beekeeper check` subcommand.
type CheckOptions struct {
	HiveOptions
}

// Check implements the `beekeeper check` subcommand.
func (a App) Check(ctx context.Context, hives []string, options CheckOptions) error {
	var errs []error
	for _, location := range hives {
		if _, _, err := a.open(ctx, location, options.HiveOptions); err != nil {
			errs = append(errs, err)
			continue
		}

		msg.Fsuccess(a.stdout, "%s is a valid hive", location)
	}

	return errors.Join(errs...)
}

// ShowOptions are the flags passed to the `beekeeper show` subcommand.
type ShowOptions struct {
	HiveOptions

	JSON bool // Output the hive as JSON
}

// Show implements the `beekeeper show` subcommand.
func (a App) Show(ctx context.Context, location string, options ShowOptions) error {
	h, built, err := a.open(ctx, location, options.HiveOptions)
	if err != nil {
		return err
	}

	if options.JSON {
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(h)
	}

	name := built.Name()
	if name == "" {
		name = location
	}

	hue.Bold.Fprintf(a.stdout, "%s", name)
	fmt.Fprintf(a.stdout, " (%s)\n", built.Root())

	if description := built.Description(); description != "" {
		fmt.Fprintln(a.stdout, description)
	}

	for _, objectName := range built.Objects() {
		object, err := built.Object(objectName)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.stdout)
		hue.Cyan.Fprintf(a.stdout, "%s", objectName)
		if object.Description() != "" {
			fmt.Fprintf(a.stdout, ": %s", object.Description())
		}
		fmt.Fprintln(a.stdout)

		for _, actionName := range object.Actions() {
			action, err := object.Action(actionName)
			if err != nil {
				return err
			}

			if err := a.showAction(action); err != nil {
				return err
			}
		}
	}

	return nil
}

// showAction writes a single action's summary to stdout.
func (a App) showAction(action *api.Action) error {
	vars, err := action.Variables()
	if err != nil {
		return err
	}

	fmt.Fprint(a.stdout, "  ")
	methodStyle(action.Method()).Fprintf(a.stdout, "%-7s", action.Method())
	fmt.Fprintf(a.stdout, " %-12s %s\n", action.Name(), action.Endpoint().URL())

	if action.Description() != "" {
		fmt.Fprintf(a.stdout, "          %s\n", action.Description())
	}

	if required := vars.Missing(); len(required) > 0 {
		fmt.Fprintf(a.stdout, "          required: %s\n", strings.Join(required, ", "))
	}

	if optional := vars.Optional(); len(optional) > 0 {
		fmt.Fprintf(a.stdout, "          optional: %s\n", strings.Join(optional, ", "))
	}

	return nil
}

// methodStyle picks the colour a method is shown in.
func methodStyle(method string) hue.Style {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return hue.Green
	case "POST":
		return hue.Yellow
	case "PUT", "PATCH":
		return hue.Blue
	case "DELETE":
		return hue.Red
	default:
		return hue.Magenta
	}
}

// DoOptions are the flags passed to the `beekeeper do` subcommand.
type DoOptions struct {
	HiveOptions

	Output            string        // File to write the raw response body to
	Traverse          string        // Traversal path overriding the action's, e.g. "data.*.name"
	ID                string        // Address an instance of the object by this id
	Timeout           time.Duration // Overall request timeout
	ConnectionTimeout time.Duration // Connection timeout
	NoRedirect        bool          // Don't follow redirects
	DryRun            bool          // Print the rendered request instead of sending it
}

// Do implements the `beekeeper do` subcommand.
//
// args are "name=value" pairs for named variables or bare values, which may only
// fill the single variable left without a value.
func (a App) Do(ctx context.Context, location, objectName, actionName string, args []string, options DoOptions) error {
	client := transport.New(
		transport.Options{
			Timeout:           options.Timeout,
			ConnectionTimeout: options.ConnectionTimeout,
			NoRedirect:        options.NoRedirect,
		},
		a.logger,
	)

	_, built, err := a.open(ctx, location, options.HiveOptions, api.WithTransport(client))
	if err != nil {
		return err
	}

	object, err := built.Object(objectName)
	if err != nil {
		return err
	}

	action, err := object.Action(actionName)
	if err != nil {
		return err
	}

	callArgs, err := ParseArgs(args)
	if err != nil {
		return err
	}

	if options.ID != "" {
		if object.IDVariable() == "" {
			return fmt.Errorf("%w: %s", api.ErrNotAddressable, objectName)
		}
		callArgs.Named[object.IDVariable()] = parseValue(options.ID)
	}

	path, err := response.ParsePath(options.Traverse)
	if err != nil {
		return err
	}

	if options.DryRun {
		request, err := action.Render(callArgs)
		if err != nil {
			return err
		}

		fmt.Fprint(a.stdout, request.String())
		return nil
	}

	resp, err := action.Do(ctx, callArgs)
	if err != nil {
		return err
	}

	if options.Output != "" {
		if err := os.WriteFile(options.Output, resp.Body, 0o644); err != nil {
			return fmt.Errorf("could not write response: %w", err)
		}

		msg.Fsuccess(a.stdout, "%d bytes written to %s", len(resp.Body), options.Output)

		if !resp.OK() {
			return &response.StatusError{Response: resp}
		}

		return nil
	}

	if !resp.OK() {
		a.stdout.Write(resp.Body) //nolint: errcheck
		if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
			fmt.Fprintln(a.stdout)
		}
		return &response.StatusError{Response: resp}
	}

	value, err := action.Decode(resp, path)
	if err != nil {
		return err
	}

	return a.print(value)
}

// print writes a decoded response to stdout, structured values as indented JSON.
func (a App) print(value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		fmt.Fprintln(a.stdout, strings.TrimRight(v, "\n"))
		return nil
	case []byte:
		_, err := a.stdout.Write(v)
		return err
	default:
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
}

// ParseArgs parses command line call arguments.
//
// An argument "name=value" is a named value, anything else is positional. Values that
// are valid JSON (numbers, booleans, objects, lists) are decoded, "@path" reads the
// named file as raw bytes and anything else is taken as a string.
func ParseArgs(args []string) (variable.Args, error) {
	parsed := variable.Args{Named: make(map[string]any, len(args))}

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			v, err := loadValue(arg)
			if err != nil {
				return variable.Args{}, err
			}
			parsed.Positional = append(parsed.Positional, v)
			continue
		}

		if name == "" {
			return variable.Args{}, fmt.Errorf("%w: %q has no variable name", ErrBadArgument, arg)
		}

		if _, exists := parsed.Named[name]; exists {
			return variable.Args{}, fmt.Errorf("%w: %s given more than once", ErrBadArgument, name)
		}

		v, err := loadValue(value)
		if err != nil {
			return variable.Args{}, err
		}
		parsed.Named[name] = v
	}

	return parsed, nil
}

// loadValue handles the "@path" file form before falling back to parseValue.
func loadValue(raw string) (any, error) {
	if path, ok := strings.CutPrefix(raw, "@"); ok && path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadArgument, err)
		}
		return contents, nil
	}

	return parseValue(raw), nil
}

// parseValue decodes raw as JSON if it can, otherwise returns it as is.
//
// Numbers stay [json.Number] so ids like 1000000 render exactly as typed.
func parseValue(raw string) any {
	if !json.Valid([]byte(raw)) {
		return raw
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return raw
	}
	return value
}
