package api

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/render"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// Object is a named group of actions, looked up by name.
type Object struct {
	actions     map[string]*Action // Actions by name
	name        string             // Name in the hive
	description string             // What the object is
	idVariable  string             // Variable identifying an instance, may be empty
}

func newObject(api *API, name string, declared hive.Object) (*Object, error) {
	object := &Object{
		actions:     make(map[string]*Action, len(declared.Actions)),
		name:        name,
		description: declared.Description,
		idVariable:  declared.IDVariable,
	}

	for _, actionName := range declared.ActionNames() {
		action, err := newAction(api, name, actionName, declared.Actions[actionName])
		if err != nil {
			return nil, err
		}
		object.actions[actionName] = action
	}

	return object, nil
}

// Name returns the object's name.
func (o *Object) Name() string {
	return o.name
}

// Description returns what the object is.
func (o *Object) Description() string {
	return o.description
}

// IDVariable returns the name of the variable identifying an instance, empty
// if the object can't be addressed by id.
func (o *Object) IDVariable() string {
	return o.idVariable
}

// Actions returns the names of the object's actions, sorted.
func (o *Object) Actions() []string {
	return slices.Sorted(maps.Keys(o.actions))
}

// Action returns the named action.
func (o *Object) Action(name string) (*Action, error) {
	action, ok := o.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no action %q (have %s)", ErrUnknownAction, o.name, name, strings.Join(o.Actions(), ", "))
	}
	return action, nil
}

// Call calls the named action with args.
func (o *Object) Call(ctx context.Context, name string, args variable.Args) (any, error) {
	action, err := o.Action(name)
	if err != nil {
		return nil, err
	}
	return action.Call(ctx, args)
}

// Instance returns the instance of the object identified by id, whose actions are
// called with the id variable already set.
func (o *Object) Instance(id any) (*Instance, error) {
	if o.idVariable == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotAddressable, o.name)
	}
	return &Instance{object: o, id: id}, nil
}

// Instance is a single, identified, instance of an [Object].
type Instance struct {
	object *Object // The object this is an instance of
	id     any     // Value of the object's id variable
}

// ID returns the instance's id.
func (i *Instance) ID() any {
	return i.id
}

// Render renders the named action for this instance without sending it.
func (i *Instance) Render(name string, args variable.Args) (render.Request, error) {
	action, err := i.object.Action(name)
	if err != nil {
		return render.Request{}, err
	}
	return action.Render(i.with(args))
}

// Call calls the named action for this instance.
func (i *Instance) Call(ctx context.Context, name string, args variable.Args) (any, error) {
	action, err := i.object.Action(name)
	if err != nil {
		return nil, err
	}
	return action.Call(ctx, i.with(args))
}

// with returns args with the id variable set, the caller's Named map is left untouched.
func (i *Instance) with(args variable.Args) variable.Args {
	named := make(map[string]any, len(args.Named)+1)
	maps.Copy(named, args.Named)
	named[i.object.idVariable] = i.id

	return variable.Args{Named: named, Positional: args.Positional}
}
