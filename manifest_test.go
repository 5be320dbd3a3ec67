package reminis

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(calls map[string]int) *Registry {
	reg := NewRegistry()
	reg.Register("add", Func{Fn: func(a, b int) int { calls["add"]++; return a + b }, Version: "1"})
	reg.Register("square", Func{Fn: func(a int) int { calls["square"]++; return a * a }, Version: "1"})
	reg.Register("mul", Func{Fn: func(a, b int) int { calls["mul"]++; return a * b }, Version: "1"})
	reg.Register("helper", Func{Fn: func() int { return 0 }, Version: "h1"})
	return reg
}

const exampleManifest = `
proc "adder" {
  fn   = "add"
  args = [2, 5]
}

proc "square" {
  fn = "square"
}

proc "mul" {
  fn         = "mul"
  depends_on = ["adder", "square"]
}

proc "total" {
  fn         = "add"
  depends_on = [-1, "square"]
}
`

func TestLoadManifest(t *testing.T) {
	calls := make(map[string]int)
	reg := testRegistry(calls)

	procs, err := LoadManifest("pipeline.hcl", []byte(exampleManifest), reg)
	require.NoError(t, err)
	require.Len(t, procs, 4)

	t.Run("blocks decode in document order", func(t *testing.T) {
		assert.Equal(t, "adder", procs[0].Name)
		assert.Equal(t, "square", procs[1].Name)
		assert.Equal(t, "mul", procs[2].Name)
		assert.Equal(t, "total", procs[3].Name)
	})

	t.Run("args stay as cty values", func(t *testing.T) {
		require.Len(t, procs[0].Args, 2)
	})

	t.Run("omitted depends_on stays unspecified", func(t *testing.T) {
		assert.False(t, procs[1].DependsOn.specified)
	})

	t.Run("depends_on decodes names and the -1 sentinel", func(t *testing.T) {
		assert.Equal(t, DependsOn(Dep("adder"), Dep("square")), procs[2].DependsOn)
		assert.Equal(t, DependsOn(Previous(), Dep("square")), procs[3].DependsOn)
	})

	t.Run("manifest pipeline evaluates", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		result, err := Compute(context.Background(), procs, WithFs(fs), WithCacheDir("cache"))
		require.NoError(t, err)
		assert.Equal(t, 392, intValue(t, result))
		assert.Equal(t, map[string]int{"add": 2, "square": 1, "mul": 1}, calls)
	})
}

func TestLoadManifestFlags(t *testing.T) {
	reg := testRegistry(make(map[string]int))

	src := `
proc "volatile" {
  fn         = "square"
  args       = [3]
  depends_on = []
  impure     = true
  no_caching = true
  calls      = ["helper"]
}
`
	procs, err := LoadManifest("pipeline.hcl", []byte(src), reg)
	require.NoError(t, err)
	require.Len(t, procs, 1)

	p := procs[0]
	assert.True(t, p.Impure)
	assert.True(t, p.NoCaching)
	assert.Equal(t, NoDeps(), p.DependsOn, "an explicit empty list is not the same as omission")
	require.Len(t, p.Calls, 1)
	assert.Equal(t, "h1", p.Calls[0].Version)
}

func TestLoadManifestErrors(t *testing.T) {
	reg := testRegistry(make(map[string]int))

	t.Run("unregistered function", func(t *testing.T) {
		_, err := LoadManifest("p.hcl", []byte(`
proc "a" {
  fn = "nope"
}
`), reg)
		assert.ErrorContains(t, err, `function "nope" is not registered`)
	})

	t.Run("bad depends_on entry", func(t *testing.T) {
		_, err := LoadManifest("p.hcl", []byte(`
proc "a" {
  fn         = "square"
  depends_on = [-2]
}
`), reg)
		assert.ErrorContains(t, err, "depends_on[0] must be a proc name or -1")
	})

	t.Run("unregistered call", func(t *testing.T) {
		_, err := LoadManifest("p.hcl", []byte(`
proc "a" {
  fn    = "square"
  calls = ["nope"]
}
`), reg)
		assert.ErrorContains(t, err, `called function "nope" is not registered`)
	})

	t.Run("missing fn attribute", func(t *testing.T) {
		_, err := LoadManifest("p.hcl", []byte(`
proc "a" {
  args = [1]
}
`), reg)
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := LoadManifest("p.hcl", []byte(`proc "a" {`), reg)
		assert.Error(t, err)
	})
}

func TestLoadManifestFile(t *testing.T) {
	reg := testRegistry(make(map[string]int))
	fs := afero.NewMemMapFs()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifestFile(fs, "missing.hcl", reg)
		assert.ErrorContains(t, err, "reading manifest")
	})

	t.Run("reads from the filesystem", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "pipeline.hcl", []byte(exampleManifest), 0o644))
		procs, err := LoadManifestFile(fs, "pipeline.hcl", reg)
		require.NoError(t, err)
		assert.Len(t, procs, 4)
	})
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register("f", Func{Fn: double, Version: "1"})
	assert.Panics(t, func() {
		reg.Register("f", Func{Fn: double, Version: "2"})
	})
}
