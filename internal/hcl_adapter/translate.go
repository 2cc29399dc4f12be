// This file translates the HCL schema structs into the format-agnostic
// configuration model.

package hcl_adapter

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// groupArgDefs describes the arguments accepted inside a group block.
var groupArgDefs = map[string]*argDef{
	"coordinates": {Type: cty.List(cty.List(cty.Number))},
	"targets":     {Type: cty.List(cty.Number), Optional: true},
	"rows":        {Type: cty.List(cty.List(cty.Number)), Optional: true},
}

func (l *Loader) translateCode(ctx context.Context, c *Code, evalCtx *hcl.EvalContext) (*config.CodeDefinition, error) {
	logger := ctxlog.FromContext(ctx).With("code", c.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL code to internal config model.", "groups", len(c.Groups))

	def := &config.CodeDefinition{Name: c.Name, Length: c.Length}
	if c.Transversal != nil {
		def.Transversal = *c.Transversal
	}
	for i, g := range c.Groups {
		var args groupArgs
		attrs, err := extractBodyAttributes(g.Body)
		if err != nil {
			return nil, fmt.Errorf("code %q group %d: %w", c.Name, i, err)
		}
		if err := l.conv.DecodeBody(ctx, &args, attrs, groupArgDefs, evalCtx); err != nil {
			return nil, fmt.Errorf("code %q group %d: %w", c.Name, i, err)
		}
		def.Groups = append(def.Groups, &config.GroupDefinition{
			Family:      g.Family,
			Coordinates: args.Coordinates,
			Targets:     args.Targets,
			Rows:        args.Rows,
		})
	}
	return def, nil
}

// translateRun overlays the attributes present in r on the default run.
func translateRun(r *Run) (*config.RunSpec, error) {
	spec := config.DefaultRun()
	set(&spec.Code, r.Code)
	set(&spec.Rounds, r.Rounds)
	set(&spec.Bell, r.Bell)
	set(&spec.Strategy, r.Strategy)
	set(&spec.MaxControls, r.MaxControls)
	set(&spec.Shots, r.Shots)
	set(&spec.RandomFaults, r.RandomFaults)
	set(&spec.Workers, r.Workers)
	if r.Seed != nil {
		seed, err := safecast.Conv[uint64](*r.Seed)
		if err != nil {
			return nil, fmt.Errorf("run: invalid seed %d: %w", *r.Seed, err)
		}
		spec.Seed = seed
	}
	for _, in := range r.Inputs {
		spec.Inputs = append(spec.Inputs, config.InputSpec{Block: in.Block, State: in.State})
	}
	for _, f := range r.Faults {
		spec.Faults = append(spec.Faults, config.FaultSpec{Block: f.Block, Qubit: f.Qubit, Pauli: f.Pauli})
	}
	return spec, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// extractBodyAttributes converts a block body into a map of expressions.
func extractBodyAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprMap := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap, nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. Omitted optional attributes decode to zero-width placeholders, so
// a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
