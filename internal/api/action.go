package api

import (
	"context"
	"fmt"
	"time"

	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/render"
	"go.followtheprocess.codes/beekeeper/internal/response"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// Transport sends a rendered request and returns the raw response.
//
// Error statuses are not errors at this level, a Transport only fails if no
// response was received at all.
type Transport interface {
	Send(ctx context.Context, request render.Request) (response.Response, error)
}

// Action is the innermost scope: one method on one endpoint, with its own variables
// and optionally a traversal applied to every response.
type Action struct {
	endpoint    *Endpoint     // The parent scope
	variables   *variable.Set // Action level declarations
	traverse    response.Path // Projected out of every decoded response
	mimetype    hive.Mimetype // Per direction overrides of the endpoint mimetype
	name        string        // Name within its object
	method      string        // HTTP method, upper case
	description string        // Help text
}

func newAction(api *API, object, name string, declared hive.Action) (*Action, error) {
	endpoint, ok := api.endpoints[declared.Endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: action %s.%s uses %q", ErrUnknownEndpoint, object, name, declared.Endpoint)
	}

	method := declared.HTTPMethod()
	if !endpoint.Allows(method) {
		return nil, fmt.Errorf(
			"%w: action %s.%s uses %s but endpoint %s only allows %v",
			ErrInvalidMethod,
			object,
			name,
			method,
			endpoint.name,
			endpoint.methods,
		)
	}

	return &Action{
		endpoint:    endpoint,
		variables:   variable.FromMap(declared.Variables),
		traverse:    declared.Traverse,
		mimetype:    declared.Mimetype,
		name:        name,
		method:      method,
		description: declared.Description,
	}, nil
}

// Name returns the action's name.
func (a *Action) Name() string {
	return a.name
}

// Method returns the HTTP method the action uses.
func (a *Action) Method() string {
	return a.method
}

// Description returns the action's help text.
func (a *Action) Description() string {
	return a.description
}

// Endpoint returns the endpoint the action calls.
func (a *Action) Endpoint() *Endpoint {
	return a.endpoint
}

// Traversal returns the path projected out of every decoded response.
func (a *Action) Traversal() response.Path {
	return a.traverse
}

// SendMimetype returns the mimetype request bodies are encoded as.
func (a *Action) SendMimetype() string {
	if a.mimetype.Send != "" {
		return a.mimetype.Send
	}
	return a.endpoint.Mimetype()
}

// ReceiveMimetype returns the mimetype responses are decoded as when they don't
// say for themselves.
func (a *Action) ReceiveMimetype() string {
	if a.mimetype.Receive != "" {
		return a.mimetype.Receive
	}
	return a.endpoint.Mimetype()
}

// Variables returns a fresh deep copy of the full variable chain for the action:
// API, then endpoint, then action declarations.
func (a *Action) Variables() (*variable.Set, error) {
	return inherit(a.endpoint.Variables, a.variables)
}

// Render builds the request a call with args would send, without sending it.
//
// Every failure (missing variables, an unsupported mimetype, two data variables)
// happens here, before any I/O.
func (a *Action) Render(args variable.Args) (render.Request, error) {
	vars, err := a.Variables()
	if err != nil {
		return render.Request{}, err
	}

	if err = vars.Fill(args); err != nil {
		return render.Request{}, fmt.Errorf("%s: %w", a.name, err)
	}

	send := a.SendMimetype()
	vars.Update(func(_ string, v *variable.Variable) {
		if v.HasType(render.TypeData) && v.Mimetype == "" {
			v.Mimetype = send
		}
	})

	fragments, err := a.endpoint.api.renderer.Render(vars)
	if err != nil {
		return render.Request{}, fmt.Errorf("%s: %w", a.name, err)
	}

	request, err := render.Assemble(a.method, a.endpoint.URL(), fragments)
	if err != nil {
		return render.Request{}, fmt.Errorf("%s: %w", a.name, err)
	}

	return request, nil
}

// Do renders and sends the request, returning the raw response whatever its status.
func (a *Action) Do(ctx context.Context, args variable.Args) (response.Response, error) {
	request, err := a.Render(args)
	if err != nil {
		return response.Response{}, err
	}

	api := a.endpoint.api
	logger := api.logger.With("action", a.name)
	logger.Debug("Sending request", "method", request.Method, "url", request.URL, "body", len(request.Body))

	start := time.Now()
	resp, err := api.transport.Send(ctx, request)
	if err != nil {
		return response.Response{}, fmt.Errorf("%s: %w", a.name, err)
	}

	logger.Debug("Received response", "status", resp.Status, "bytes", len(resp.Body), "duration", time.Since(start))

	return resp, nil
}

// Decode decodes a response to this action, traversing it with path or, if path
// is empty, the action's own traversal.
//
// Error statuses return a [*response.StatusError].
func (a *Action) Decode(resp response.Response, path response.Path) (any, error) {
	if !resp.OK() {
		return nil, &response.StatusError{Response: resp}
	}

	if len(path) == 0 {
		path = a.traverse
	}

	value, err := resp.Decode(a.endpoint.api.codecs, a.ReceiveMimetype(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}

	return value, nil
}

// Call renders and sends the request then decodes the response.
func (a *Action) Call(ctx context.Context, args variable.Args) (any, error) {
	resp, err := a.Do(ctx, args)
	if err != nil {
		return nil, err
	}
	return a.Decode(resp, nil)
}
