package tool

import (
	"errors"
	"fmt"

	"github.com/IronClad1607/research-agent/internal/registry"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry resolves tool names to definitions.
type Registry struct {
	defs registry.Registry[Definition]
}

// NewRegistry returns a registry holding defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: registry.New[Definition]()}
	var errs []error
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func (r *Registry) Register(def Definition) error {
	if def.Function == nil {
		return fmt.Errorf("tool %q has no function", def.Name)
	}
	if !r.defs.Add(def.Name, def) {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	return nil
}

// Lookup finds a tool by exact name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	return r.defs.Get(name)
}

// Definitions returns the registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	names := r.defs.Names()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		if def, ok := r.defs.Get(name); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

func (r *Registry) Names() []string {
	return r.defs.Names()
}

func (r *Registry) Len() int {
	return r.defs.Len()
}
