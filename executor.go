package reminis

import (
	"context"
	"fmt"

	"github.com/KeyMaster-/reminis/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// evaluate resolves a node's value, demand-driven:
//
//  1. decide validity (memoized per run),
//  2. reuse the in-memory slot if this run already resolved the node,
//  3. for a valid, cacheable node, try the persisted value,
//  4. otherwise evaluate every dependency in declared order, invoke the
//     function, and persist fresh metadata (always) plus the value (only
//     when cacheable).
//
// Metadata is refreshed even for impure and no-caching nodes so future runs
// of dependents can still detect upstream change. Any failure aborts the
// whole evaluation; records already persisted for completed dependencies
// stay on disk and remain usable by future runs.
func (p *Pipeline) evaluate(ctx context.Context, n *node) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	valid, err := p.isValid(ctx, n)
	if err != nil {
		return cty.NilVal, err
	}

	if n.hasValue {
		return n.value, nil
	}

	if valid && n.cacheable() {
		v, ok, err := p.store.LoadValue(n.name)
		if err != nil {
			return cty.NilVal, fmt.Errorf("loading cached value for %q: %w", n.name, err)
		}
		if ok {
			logger.Debug("executor: cache hit", "proc", n.name)
			n.value = v
			n.hasValue = true
			return v, nil
		}
	}

	inputs := make([]cty.Value, len(n.deps))
	for i, dep := range n.deps {
		v, err := p.evaluate(ctx, dep)
		if err != nil {
			return cty.NilVal, err
		}
		inputs[i] = v
	}

	logger.Info("executor: computing proc", "proc", n.name)
	value, err := n.invoke(inputs)
	if err != nil {
		return cty.NilVal, err
	}

	if err := p.store.SaveMetadata(n.name, p.makeRecord(n)); err != nil {
		return cty.NilVal, fmt.Errorf("saving metadata for %q: %w", n.name, err)
	}
	if n.cacheable() {
		if err := p.store.SaveValue(n.name, value); err != nil {
			return cty.NilVal, fmt.Errorf("saving value for %q: %w", n.name, err)
		}
	}

	n.value = value
	n.hasValue = true
	return value, nil
}
