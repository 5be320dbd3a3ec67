package reminis

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCtyValue lifts a caller-supplied argument into the cty value system.
// Values that are already cty.Value pass through untouched.
func toCtyValue(raw any) (cty.Value, error) {
	if v, ok := raw.(cty.Value); ok {
		return v, nil
	}
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return gocty.ToCtyValue(raw, ty)
}

// invoke calls the node's function with the dependency outputs (in declared
// order) followed by the node's positional arguments. Each value is
// converted to the corresponding parameter type; the result is lifted back
// into cty. A non-nil error returned by the function propagates unmodified.
func (n *node) invoke(inputs []cty.Value) (cty.Value, error) {
	fv := reflect.ValueOf(n.fn.Fn)
	ft := fv.Type()

	values := make([]cty.Value, 0, len(inputs)+len(n.args))
	values = append(values, inputs...)
	values = append(values, n.args...)

	in := make([]reflect.Value, len(values))
	for i, v := range values {
		param := reflect.New(ft.In(i))
		if err := gocty.FromCtyValue(v, param.Interface()); err != nil {
			return cty.NilVal, fmt.Errorf("proc %q: converting value %d to parameter type %s: %w", n.name, i, ft.In(i), err)
		}
		in[i] = param.Elem()
	}

	out := fv.Call(in)
	if ft.NumOut() == 2 {
		if errv := out[1]; !errv.IsNil() {
			return cty.NilVal, errv.Interface().(error)
		}
	}

	result, err := toCtyValue(out[0].Interface())
	if err != nil {
		return cty.NilVal, fmt.Errorf("proc %q: result is not serializable: %w", n.name, err)
	}
	return result, nil
}
