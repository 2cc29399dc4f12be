package hcl_adapter

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// DecodeBody iterates through the fields of a Go struct, finds the corresponding
// HCL arguments, and uses the recursive `decode` helper to populate them.
// Fields are matched by their `qec` tag.
func (c *Converter) DecodeBody(
	ctx context.Context,
	target any,
	args map[string]hcl.Expression,
	defs map[string]*argDef,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting HCL body decoding.")

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for name := range args {
		if _, ok := defs[name]; !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
	}

	for i := 0; i < structType.NumField(); i++ {
		fieldDef := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}

		tagName := strings.Split(fieldDef.Tag.Get("qec"), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}

		def, ok := defs[tagName]
		if !ok {
			continue
		}

		var valueToDecode cty.Value
		argExpr, provided := args[tagName]

		switch {
		case provided && isExprDefined(argExpr):
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return diags
			}
			valueToDecode = val
		case def.Default != nil:
			valueToDecode = *def.Default
		case def.Optional:
			continue
		default:
			return fmt.Errorf("missing required argument %q", tagName)
		}

		if err := c.decode(ctx, valueToDecode, def.Type, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument '%s': %w", tagName, err)
		}
	}
	logger.Debug("Finished HCL body decoding successfully.")
	return nil
}
