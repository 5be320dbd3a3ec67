package reminis

import (
	"context"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// Option configures pipeline construction.
type Option func(*config)

type config struct {
	cacheDir string
	fs       afero.Fs
	store    Store
}

// WithCacheDir sets the cache root directory for the default file store.
func WithCacheDir(dir string) Option {
	return func(c *config) { c.cacheDir = dir }
}

// WithFs sets the filesystem the default file store writes to. Useful for
// tests (afero.NewMemMapFs) or embedders with their own Fs.
func WithFs(fsys afero.Fs) Option {
	return func(c *config) { c.fs = fsys }
}

// WithStore replaces the default file store entirely.
func WithStore(s Store) Option {
	return func(c *config) { c.store = s }
}

// Pipeline is a constructed dependency graph bound to a result store. It
// represents a single evaluation run: per-node validity memos and value
// slots live for the Pipeline's lifetime, so a changed environment needs a
// new Pipeline to be observed.
type Pipeline struct {
	sink  *node
	store Store
}

// New builds a pipeline graph from an ordered list of procs. Dependency
// references resolve only against procs declared earlier in the list; any
// resolution failure, duplicate name, or malformed descriptor aborts
// construction.
func New(ctx context.Context, procs []Proc, opts ...Option) (*Pipeline, error) {
	cfg := config{
		cacheDir: DefaultCacheDir,
		fs:       afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	store := cfg.store
	if store == nil {
		store = NewFileStore(cfg.fs, cfg.cacheDir)
	}

	sink, err := buildGraph(ctx, procs)
	if err != nil {
		return nil, err
	}
	return &Pipeline{sink: sink, store: store}, nil
}

// Evaluate resolves the sink proc's value, reusing cached results for every
// proc that is still valid and recomputing the rest. Calling Evaluate again
// on the same Pipeline returns values from the same run's in-memory slots.
func (p *Pipeline) Evaluate(ctx context.Context) (cty.Value, error) {
	return p.evaluate(ctx, p.sink)
}

// Compute is the one-shot form: build the pipeline, evaluate the sink.
func Compute(ctx context.Context, procs []Proc, opts ...Option) (cty.Value, error) {
	p, err := New(ctx, procs, opts...)
	if err != nil {
		return cty.NilVal, err
	}
	return p.Evaluate(ctx)
}
