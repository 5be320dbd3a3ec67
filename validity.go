package reminis

import (
	"context"
	"fmt"

	"github.com/KeyMaster-/reminis/internal/ctxlog"
)

// isValid decides whether the node's persisted value may be reused this run.
// The result is memoized on the node, so shared ancestors in a diamond are
// checked once.
//
// Order of the rules matters: impurity trumps everything, an invalid
// dependency invalidates the node regardless of its own fingerprint match,
// and only then is the stored metadata consulted.
func (p *Pipeline) isValid(ctx context.Context, n *node) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	if n.impure {
		n.validity = validityInvalid
		return false, nil
	}

	switch n.validity {
	case validityValid:
		return true, nil
	case validityInvalid:
		return false, nil
	}

	for _, dep := range n.deps {
		depValid, err := p.isValid(ctx, dep)
		if err != nil {
			return false, err
		}
		if !depValid {
			logger.Debug("validity: invalidated by dependency", "proc", n.name, "dependency", dep.name)
			n.validity = validityInvalid
			return false, nil
		}
	}

	stored, err := p.store.LoadMetadata(n.name)
	if err != nil {
		return false, fmt.Errorf("loading metadata for %q: %w", n.name, err)
	}
	if stored == nil {
		logger.Debug("validity: no stored metadata", "proc", n.name)
		n.validity = validityInvalid
		return false, nil
	}

	if !p.makeRecord(n).Equal(stored) {
		logger.Debug("validity: metadata changed", "proc", n.name)
		n.validity = validityInvalid
		return false, nil
	}

	n.validity = validityValid
	return true, nil
}

// makeRecord builds the node's fresh metadata record from the current run's
// configuration.
func (p *Pipeline) makeRecord(n *node) *Record {
	depFPs := make([]string, len(n.deps))
	for i, dep := range n.deps {
		depFPs[i] = dep.fingerprint
	}
	return &Record{
		OwnFingerprint:  n.fingerprint,
		DepFingerprints: depFPs,
		Args:            n.args,
	}
}
