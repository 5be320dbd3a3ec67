package reminis

import "github.com/zclconf/go-cty/cty"

// validity is the tri-state per-run memo for a node's cache-reuse decision.
// The explicit "unknown" state keeps "not yet checked" distinct from a
// computed "invalid".
type validity int

const (
	validityUnknown validity = iota
	validityValid
	validityInvalid
)

// node is one vertex of a constructed pipeline graph. Nodes are built once
// per run and discarded with the Pipeline; only their store records outlive
// the run. Dependency pointers always point at nodes constructed earlier in
// the pipeline, so the graph is acyclic by construction.
type node struct {
	name      string
	fn        Func
	args      []cty.Value
	deps      []*node
	impure    bool
	noCaching bool

	// fingerprint is the own-fingerprint over fn and the declared auxiliary
	// functions, fixed at construction.
	fingerprint string

	// value is the in-memory result slot for this run.
	value    cty.Value
	hasValue bool

	validity validity
}

// cacheable reports whether the node's value may be persisted and reused.
func (n *node) cacheable() bool { return !n.impure && !n.noCaching }
