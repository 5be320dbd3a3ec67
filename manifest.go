package reminis

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// Manifests are an optional declarative front end for pipelines: each `proc`
// block becomes one Proc, in document order, with functions referenced by
// their registered names.
//
//	proc "adder" {
//	  fn   = "add"
//	  args = [2, 5]
//	}
//
//	proc "total" {
//	  fn         = "add"
//	  depends_on = [-1, "adder"]
//	}
//
// depends_on entries are proc names; the number -1 references the
// immediately preceding proc. Omitting depends_on keeps the implicit
// previous-proc dependency; an empty list declares independence.

var manifestSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "proc", LabelNames: []string{"name"}},
	},
}

var procSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "fn", Required: true},
		{Name: "args"},
		{Name: "depends_on"},
		{Name: "calls"},
		{Name: "impure"},
		{Name: "no_caching"},
	},
}

// LoadManifest parses an HCL pipeline manifest into an ordered list of
// procs, resolving function references against the registry. The result
// feeds straight into New or Compute.
func LoadManifest(filename string, src []byte, reg *Registry) ([]Proc, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	content, diags := file.Body.Content(manifestSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	procs := make([]Proc, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		p, err := decodeProcBlock(block, reg)
		if err != nil {
			return nil, err
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// LoadManifestFile reads path from the given filesystem and parses it.
func LoadManifestFile(fsys afero.Fs, path string, reg *Registry) ([]Proc, error) {
	src, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return LoadManifest(path, src, reg)
}

func decodeProcBlock(block *hcl.Block, reg *Registry) (Proc, error) {
	name := block.Labels[0]

	content, diags := block.Body.Content(procSchema)
	if diags.HasErrors() {
		return Proc{}, diags
	}

	p := Proc{Name: name}

	fnName, err := attrString(content, "fn", name)
	if err != nil {
		return Proc{}, err
	}
	fn, ok := reg.lookup(fnName)
	if !ok {
		return Proc{}, fmt.Errorf("proc %q: function %q is not registered", name, fnName)
	}
	p.Fn = fn

	if attr, ok := content.Attributes["args"]; ok {
		elems, err := attrTuple(attr, name)
		if err != nil {
			return Proc{}, err
		}
		for _, el := range elems {
			p.Args = append(p.Args, el)
		}
	}

	if attr, ok := content.Attributes["depends_on"]; ok {
		elems, err := attrTuple(attr, name)
		if err != nil {
			return Proc{}, err
		}
		refs := make([]DepRef, 0, len(elems))
		for i, el := range elems {
			switch {
			case el.Type() == cty.String:
				refs = append(refs, Dep(el.AsString()))
			case el.RawEquals(cty.NumberIntVal(-1)):
				refs = append(refs, Previous())
			default:
				return Proc{}, fmt.Errorf("proc %q: depends_on[%d] must be a proc name or -1", name, i)
			}
		}
		p.DependsOn = DependsOn(refs...)
	}

	if attr, ok := content.Attributes["calls"]; ok {
		elems, err := attrTuple(attr, name)
		if err != nil {
			return Proc{}, err
		}
		for i, el := range elems {
			if el.Type() != cty.String {
				return Proc{}, fmt.Errorf("proc %q: calls[%d] must be a function name", name, i)
			}
			call, ok := reg.lookup(el.AsString())
			if !ok {
				return Proc{}, fmt.Errorf("proc %q: called function %q is not registered", name, el.AsString())
			}
			p.Calls = append(p.Calls, call)
		}
	}

	if p.Impure, err = attrBool(content, "impure", name); err != nil {
		return Proc{}, err
	}
	if p.NoCaching, err = attrBool(content, "no_caching", name); err != nil {
		return Proc{}, err
	}

	return p, nil
}

func attrString(content *hcl.BodyContent, attrName, procName string) (string, error) {
	attr := content.Attributes[attrName]
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if v.Type() != cty.String {
		return "", fmt.Errorf("proc %q: %s must be a string", procName, attrName)
	}
	return v.AsString(), nil
}

func attrBool(content *hcl.BodyContent, attrName, procName string) (bool, error) {
	attr, ok := content.Attributes[attrName]
	if !ok {
		return false, nil
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return false, diags
	}
	if v.Type() != cty.Bool {
		return false, fmt.Errorf("proc %q: %s must be a bool", procName, attrName)
	}
	return v.True(), nil
}

func attrTuple(attr *hcl.Attribute, procName string) ([]cty.Value, error) {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("proc %q: %s must be a list", procName, attr.Name)
	}
	var elems []cty.Value
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		elems = append(elems, el)
	}
	return elems, nil
}
