package hcl_adapter

import (
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// newEvalContext exposes the functions usable in code and run blocks.
func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"range":      stdlib.RangeFunc,
			"concat":     stdlib.ConcatFunc,
			"singletons": singletonsFunc,
		},
	}
}

// singletonsFunc returns [[0], [1], ..., [n-1]]: syndrome v reports qubit
// v-1 alone.
var singletonsFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "n", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.List(cty.List(cty.Number))),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		var n int
		if err := gocty.FromCtyValue(args[0], &n); err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		if n <= 0 {
			return cty.ListValEmpty(cty.List(cty.Number)), nil
		}
		return gocty.ToCtyValue(stabilizer.Singletons(n), cty.List(cty.List(cty.Number)))
	},
})
