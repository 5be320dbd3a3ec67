package reminis

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/KeyMaster-/reminis/internal/ctxlog"
	"github.com/KeyMaster-/reminis/internal/fingerprint"
	"github.com/zclconf/go-cty/cty"
)

// buildGraph constructs the dependency graph for an ordered list of procs
// and returns the sink (the last proc's node). Every other node stays
// reachable through dependency chains.
//
// Construction is strict: unknown dependency names, a Previous reference on
// the first proc, duplicate names, missing version tags, and unsupported
// function shapes all abort with an error rather than building a partial
// graph.
func buildGraph(ctx context.Context, procs []Proc) (*node, error) {
	logger := ctxlog.FromContext(ctx)

	if len(procs) == 0 {
		return nil, fmt.Errorf("pipeline must contain at least one proc")
	}

	nodes := make([]*node, 0, len(procs))
	index := make(map[string]int, len(procs))

	for i := range procs {
		p := &procs[i]

		name := p.resolvedName()
		if name == "" {
			return nil, fmt.Errorf("proc %d has no name and no named function", i)
		}
		if strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("proc name %q contains a path separator", name)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate proc name %q", name)
		}

		if err := validateFunc(p.Fn); err != nil {
			return nil, fmt.Errorf("proc %q: %w", name, err)
		}
		versions := make([]string, 0, 1+len(p.Calls))
		versions = append(versions, p.Fn.Version)
		for j, call := range p.Calls {
			if call.Version == "" {
				return nil, fmt.Errorf("proc %q: calls[%d] has no version tag", name, j)
			}
			versions = append(versions, call.Version)
		}

		args := make([]cty.Value, len(p.Args))
		for j, raw := range p.Args {
			v, err := toCtyValue(raw)
			if err != nil {
				return nil, fmt.Errorf("proc %q: argument %d is not serializable: %w", name, j, err)
			}
			args[j] = v
		}

		deps, err := resolveDeps(p, i, nodes, index)
		if err != nil {
			return nil, err
		}

		if err := checkArity(p.Fn.Fn, len(deps), len(args)); err != nil {
			return nil, fmt.Errorf("proc %q: %w", name, err)
		}

		n := &node{
			name:        name,
			fn:          p.Fn,
			args:        args,
			deps:        deps,
			impure:      p.Impure,
			noCaching:   p.NoCaching,
			fingerprint: fingerprint.Functions(versions...),
		}
		index[name] = i
		nodes = append(nodes, n)
		logger.Debug("graph: node constructed", "name", name, "deps", len(deps), "impure", n.impure)
	}

	return nodes[len(nodes)-1], nil
}

// resolveDeps maps a proc's dependency declaration onto already-built nodes.
// References can only point backward: a name is looked up among the procs
// declared before this one, and Previous resolves to the node built
// immediately before it.
func resolveDeps(p *Proc, pos int, nodes []*node, index map[string]int) ([]*node, error) {
	name := p.resolvedName()

	if !p.DependsOn.specified {
		// Unspecified dependencies default to the immediately preceding
		// proc, when one exists.
		if pos == 0 {
			return nil, nil
		}
		return []*node{nodes[pos-1]}, nil
	}

	deps := make([]*node, 0, len(p.DependsOn.refs))
	for _, ref := range p.DependsOn.refs {
		if ref.previous {
			if pos == 0 {
				return nil, fmt.Errorf("proc %q references the previous proc, but none exists before it", name)
			}
			deps = append(deps, nodes[pos-1])
			continue
		}
		j, ok := index[ref.name]
		if !ok {
			return nil, fmt.Errorf("proc %q depends on %q, which is not declared before it", name, ref.name)
		}
		deps = append(deps, nodes[j])
	}
	return deps, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// validateFunc rejects function shapes the executor cannot invoke.
func validateFunc(f Func) error {
	if f.Fn == nil {
		return fmt.Errorf("function is nil")
	}
	t := reflect.TypeOf(f.Fn)
	if t.Kind() != reflect.Func {
		return fmt.Errorf("function is %s, not a func", t.Kind())
	}
	if t.IsVariadic() {
		return fmt.Errorf("variadic functions are not supported")
	}
	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorType {
			return fmt.Errorf("function must return a value, not just an error")
		}
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("function's second return value must be error, got %s", t.Out(1))
		}
	default:
		return fmt.Errorf("function must return a value or (value, error), has %d return values", t.NumOut())
	}
	if f.Version == "" {
		return fmt.Errorf("function has no version tag")
	}
	return nil
}

// checkArity verifies the function's parameter count against the values it
// will receive: one per dependency output, then one per positional argument.
func checkArity(fn any, depCount, argCount int) error {
	t := reflect.TypeOf(fn)
	if got, want := depCount+argCount, t.NumIn(); got != want {
		return fmt.Errorf("function takes %d parameters, but the proc supplies %d values (%d dependency outputs + %d arguments)",
			want, got, depCount, argCount)
	}
	return nil
}
