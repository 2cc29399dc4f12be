package hcl_adapter

import (
	"context"
	"fmt"
	"reflect"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decode is a recursive function that populates a Go value from a cty.Value,
// guided by the declared argument type.
func (c *Converter) decode(ctx context.Context, val cty.Value, want cty.Type, goVal any) error {
	goPtr := reflect.ValueOf(goVal).Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_kind", goType.Kind().String())

	if !val.IsKnown() || val.IsNull() {
		logger.Debug("Skipping decode for null or unknown value.")
		return nil
	}

	switch goType.Kind() {
	case reflect.Slice:
		if !val.Type().IsListType() && !val.Type().IsTupleType() && !val.Type().IsSetType() {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into Go slice %s", val.Type().FriendlyName(), goType.String())
		}
		if !want.IsListType() {
			return fmt.Errorf("type mismatch: expected a list for Go slice %s, but got %s", goType.String(), want.FriendlyName())
		}
		if val.Type().IsTupleType() || val.Type().IsSetType() {
			logger.Debug("Converting collection to list before decoding to slice.")
			listVal, err := convert.Convert(val, want)
			if err != nil {
				return fmt.Errorf("cannot convert %s to a uniform list for slice %s: %w", val.Type().FriendlyName(), goType.String(), err)
			}
			val = listVal
		}

		newSlice := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		it := val.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elemVal := it.Element()
			if err := c.decode(ctx, elemVal, want.ElementType(), newSlice.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in element %d: %w", i, err)
			}
		}
		goPtr.Set(newSlice)
		return nil

	default:
		convertedVal, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("cannot convert value of type %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
		}
		return gocty.FromCtyValue(convertedVal, goVal)
	}
}
