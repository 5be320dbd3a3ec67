package reminis

import (
	"reflect"
	"runtime"
	"strings"
)

// Func pairs a Go function with a caller-supplied version tag.
//
// Go offers no way to introspect a function's source, so the version tag is
// what identifies the function's code to the cache: change the function's
// behavior, bump the tag, and every proc using it (and every transitive
// dependent) is invalidated on the next run. A content hash of the source or
// a manually incremented string both work; the tag only needs to change when
// the behavior does.
type Func struct {
	// Fn is the function itself, invoked by reflection. Supported shapes are
	// func(...) R and func(...) (R, error). Variadic functions are rejected.
	Fn any

	// Version is the identity tag folded into the proc's fingerprint.
	// Required.
	Version string
}

// Proc describes one node of a pipeline.
//
// The function is invoked with the outputs of the proc's dependencies (in
// declared order) followed by the elements of Args (in order). Arguments may
// be native Go values or cty.Value; they must serialize to the cache, and
// callers supplying collection-shaped arguments are responsible for
// order-stable representations, since argument equality is structural.
type Proc struct {
	// Fn is the versioned function this proc runs. It must be pure unless
	// Impure is set.
	Fn Func

	// Args are positional arguments appended after the dependency outputs.
	Args []any

	// Name identifies the proc within the pipeline and keys its cache
	// records. Defaults to the function's own name. Names must be unique
	// within a pipeline.
	Name string

	// DependsOn selects this proc's dependencies among the procs declared
	// before it. The zero value means "unspecified": the proc implicitly
	// depends on the immediately preceding proc, if any. Use NoDeps for an
	// explicitly independent proc.
	DependsOn DepList

	// Calls lists auxiliary functions whose code affects this proc's
	// semantics without being dependencies; their version tags are folded
	// into the fingerprint alongside Fn's.
	Calls []Func

	// Impure marks the proc as always invalid: it re-runs every evaluation
	// and never persists a value. Dependents are invalidated accordingly.
	Impure bool

	// NoCaching suppresses value persistence while keeping metadata
	// persistence, so dependents can still detect upstream change.
	NoCaching bool
}

// DepRef references an earlier proc in the pipeline, either by name or as
// "the immediately previous proc".
type DepRef struct {
	name     string
	previous bool
}

// Dep references an earlier proc by name.
func Dep(name string) DepRef { return DepRef{name: name} }

// Previous references the proc declared immediately before the current one.
func Previous() DepRef { return DepRef{previous: true} }

func (r DepRef) String() string {
	if r.previous {
		return "<previous>"
	}
	return r.name
}

// DepList is a three-way dependency declaration: unspecified (the zero
// value), explicitly empty, or an explicit list of references. The
// distinction matters because an unspecified list defaults to the previous
// proc, while an empty one means the proc has no dependencies regardless of
// its position.
type DepList struct {
	specified bool
	refs      []DepRef
}

// DependsOn declares an explicit dependency list.
func DependsOn(refs ...DepRef) DepList {
	return DepList{specified: true, refs: refs}
}

// NoDeps declares that the proc has no dependencies.
func NoDeps() DepList { return DepList{specified: true} }

// resolvedName returns the proc's cache key: the explicit Name when set,
// otherwise the function's own name with its package path stripped.
func (p *Proc) resolvedName() string {
	if p.Name != "" {
		return p.Name
	}
	return funcName(p.Fn.Fn)
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	full := runtime.FuncForPC(v.Pointer()).Name()
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}
	// Method values are reported with a -fm suffix.
	return strings.TrimSuffix(full, "-fm")
}
