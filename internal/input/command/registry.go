package command

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateDefinition is returned when an ID is registered twice.
var ErrDuplicateDefinition = errors.New("duplicate command definition")

// Registry is the closed table of command definitions, populated once
// at startup and read-only afterwards.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition and returns the stored pointer.
func (r *Registry) Register(def Definition) (*Definition, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("command definition without id")
	}
	if _, ok := r.defs[def.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.ID)
	}
	d := def
	r.defs[def.ID] = &d
	return &d, nil
}

// Lookup returns the definition with the given ID.
func (r *Registry) Lookup(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// MustLookup returns the definition with the given ID and panics if it
// is missing. Use only for IDs known to be built in.
func (r *Registry) MustLookup(id string) *Definition {
	d, ok := r.defs[id]
	if !ok {
		panic("unknown command: " + id)
	}
	return d
}

// All returns every definition sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Builtins returns a registry holding every built-in definition.
func Builtins() *Registry {
	r := NewRegistry()
	for _, def := range builtinDefinitions {
		if _, err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}
