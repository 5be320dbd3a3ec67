package reminis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(x int) int      { return x }
func sum2(a, b int) int { return a + b }

func fnv(name string) Func {
	return Func{Fn: id, Version: name}
}

func TestBuildGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pipeline is rejected", func(t *testing.T) {
		_, err := buildGraph(ctx, nil)
		assert.ErrorContains(t, err, "at least one proc")
	})

	t.Run("sink is the last proc", func(t *testing.T) {
		sink, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "first", Args: []any{1}},
			{Fn: fnv("1"), Name: "second"},
		})
		require.NoError(t, err)
		assert.Equal(t, "second", sink.name)
	})

	t.Run("unspecified dependencies default to previous", func(t *testing.T) {
		sink, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}},
			{Fn: fnv("1"), Name: "b"},
		})
		require.NoError(t, err)
		require.Len(t, sink.deps, 1)
		assert.Equal(t, "a", sink.deps[0].name)
	})

	t.Run("first proc has no implicit dependency", func(t *testing.T) {
		sink, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "only", Args: []any{1}},
		})
		require.NoError(t, err)
		assert.Empty(t, sink.deps)
	})

	t.Run("explicit empty list means no dependencies", func(t *testing.T) {
		sink, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}},
			{Fn: fnv("1"), Name: "b", Args: []any{2}, DependsOn: NoDeps()},
		})
		require.NoError(t, err)
		assert.Empty(t, sink.deps)
	})

	t.Run("name and previous references resolve in order", func(t *testing.T) {
		sink, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}},
			{Fn: fnv("1"), Name: "b"},
			{Fn: Func{Fn: sum2, Version: "1"}, Name: "c", DependsOn: DependsOn(Previous(), Dep("a"))},
		})
		require.NoError(t, err)
		require.Len(t, sink.deps, 2)
		assert.Equal(t, "b", sink.deps[0].name)
		assert.Equal(t, "a", sink.deps[1].name)
	})

	t.Run("unknown dependency name fails", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}, DependsOn: DependsOn(Dep("missing"))},
		})
		assert.ErrorContains(t, err, `depends on "missing"`)
	})

	t.Run("forward references do not resolve", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}, DependsOn: DependsOn(Dep("later"))},
			{Fn: fnv("1"), Name: "later", Args: []any{2}, DependsOn: NoDeps()},
		})
		assert.ErrorContains(t, err, "not declared before it")
	})

	t.Run("previous on first proc fails", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}, DependsOn: DependsOn(Previous())},
		})
		assert.ErrorContains(t, err, "none exists before it")
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}},
			{Fn: fnv("2"), Name: "a"},
		})
		assert.ErrorContains(t, err, `duplicate proc name "a"`)
	})

	t.Run("missing version tag is rejected", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: Func{Fn: id}, Name: "a", Args: []any{1}},
		})
		assert.ErrorContains(t, err, "no version tag")
	})

	t.Run("missing call version tag is rejected", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}, Calls: []Func{{Fn: double}}},
		})
		assert.ErrorContains(t, err, "calls[0] has no version tag")
	})

	t.Run("non-function is rejected", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: Func{Fn: 42, Version: "1"}, Name: "a"},
		})
		assert.ErrorContains(t, err, "not a func")
	})

	t.Run("unsupported return shape is rejected", func(t *testing.T) {
		bad := func() (int, int) { return 1, 2 }
		_, err := buildGraph(ctx, []Proc{
			{Fn: Func{Fn: bad, Version: "1"}, Name: "a", DependsOn: NoDeps()},
		})
		assert.ErrorContains(t, err, "second return value must be error")
	})

	t.Run("arity mismatch is a construction error", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1, 2}},
		})
		assert.ErrorContains(t, err, "supplies 2 values")
	})

	t.Run("unserializable argument names the proc", func(t *testing.T) {
		_, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{func() {}}},
		})
		assert.ErrorContains(t, err, `proc "a": argument 0 is not serializable`)
	})

	t.Run("calls change the fingerprint", func(t *testing.T) {
		plain, err := buildGraph(ctx, []Proc{{Fn: fnv("1"), Name: "a", Args: []any{1}}})
		require.NoError(t, err)
		withCall, err := buildGraph(ctx, []Proc{
			{Fn: fnv("1"), Name: "a", Args: []any{1}, Calls: []Func{{Fn: double, Version: "h1"}}},
		})
		require.NoError(t, err)
		assert.NotEqual(t, plain.fingerprint, withCall.fingerprint)
	})
}
