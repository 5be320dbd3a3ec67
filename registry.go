package reminis

import (
	"fmt"
	"log/slog"
)

// Registry maps names to versioned functions so declarative manifests can
// reference them. A typical embedder registers its processing functions once
// at startup and loads one or more manifests against the registry.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds a named function. Registering the same name twice is a
// programming error and panics.
func (r *Registry) Register(name string, f Func) {
	if _, exists := r.funcs[name]; exists {
		panic(fmt.Sprintf("reminis: function %q already registered", name))
	}
	slog.Debug("registry: registering function", "name", name, "version", f.Version)
	r.funcs[name] = f
}

func (r *Registry) lookup(name string) (Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}
