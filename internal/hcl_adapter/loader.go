package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	conv *Converter
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{conv: NewConverter()}
}

// Load parses every .hcl file under paths and translates its code and run
// blocks into the model. A file may hold any mix of blocks.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := config.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	parser := hclparse.NewParser()
	evalCtx := newEvalContext()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part := config.NewModel()
		for _, c := range root.Codes {
			def, err := l.translateCode(ctx, c, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if err := part.Merge(&config.Model{Codes: map[string]*config.CodeDefinition{def.Name: def}}); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		for _, r := range root.Runs {
			run, err := translateRun(r)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if err := part.Merge(&config.Model{Run: run}); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "codes", len(model.Codes), "run", model.Run != nil)
	return model, nil
}
