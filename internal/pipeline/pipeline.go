// Package pipeline orchestrates a full synthesis run: allocate the blocks,
// prepare and encode the logical inputs, optionally entangle them, inject
// faults, run the QEC rounds, decode and measure.
//
// Allocation happens serially before anything else. The remaining stages
// are nodes of a dependency graph, each writing its own circuit fragment;
// the fragments are joined in plan order, so the result does not depend on
// how many workers ran the graph.
package pipeline

import (
	"context"
	"fmt"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/bell"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/dag"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/encoder"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/noise"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/qubit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/syndrome"
	"github.com/pkg/errors"
)

// BlockInfo is the layout of one block in the finished circuit.
type BlockInfo struct {
	Name     string
	Input    Input
	Data     []int
	Ancillas []int
	Scratch  []int
	Carrier  int
	// Clbit holds the carrier measurement.
	Clbit int
	// SyndromeBits receive ancilla readouts under the measured strategy.
	SyndromeBits []int
}

// Result is a synthesized run.
type Result struct {
	Circuit   *circuit.Circuit
	Code      *stabilizer.Code
	Corrector string
	Blocks    []BlockInfo
	Faults    []noise.Fault
	// Stages lists the stage IDs in the order their fragments were joined.
	Stages []string
}

type stage struct {
	id   string
	deps []string
	run  func(ctx context.Context, bld *circuit.Builder) error
}

func lookup(cfg Config) (*stabilizer.Code, error) {
	if cfg.Factory != nil {
		return cfg.Factory.Lookup(cfg.Code)
	}
	return stabilizer.Lookup(cfg.Code)
}

// Run synthesizes the circuit described by cfg.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	code, err := lookup(cfg)
	if err != nil {
		return nil, err
	}
	ctx, logger := ctxlog.With(ctx, "code", code.Name())

	var allocOpts []qubit.Option
	if cfg.Capacity > 0 {
		allocOpts = append(allocOpts, qubit.WithCapacity(cfg.Capacity))
	}
	alloc := qubit.NewAllocator(allocOpts...)
	blocks, infos, err := allocate(code, alloc, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Allocated blocks.", "blocks", len(blocks), "width", alloc.Width())

	faults := append([]noise.Fault(nil), cfg.Faults...)
	if cfg.RandomFaults > 0 {
		inj := noise.NewInjector(cfg.Seed)
		for _, blk := range blocks {
			faults = append(faults, inj.Draw(blk.Name(), code.Len(), cfg.RandomFaults)...)
		}
	}

	stages := plan(cfg, blocks, infos, faults)
	fragments, err := execute(ctx, cfg.Workers, alloc, stages)
	if err != nil {
		return nil, err
	}

	bld := circuit.NewBuilder(alloc.Width())
	ids := make([]string, len(stages))
	for i, st := range stages {
		if err := bld.Extend(fragments[i]); err != nil {
			return nil, errors.Wrapf(err, "stage %s", st.id)
		}
		ids[i] = st.id
	}
	c := bld.Finalize()
	logger.Info("Synthesized circuit.", "qubits", c.Qubits(), "clbits", c.Clbits(), "ops", c.Len(), "depth", c.Depth())

	return &Result{
		Circuit:   c,
		Code:      code,
		Corrector: cfg.Corrector.Name(),
		Blocks:    infos,
		Faults:    faults,
		Stages:    ids,
	}, nil
}

// allocate lays out every block in order. Carrier bits come first, then
// each block's syndrome bits.
func allocate(code *stabilizer.Code, alloc *qubit.Allocator, cfg Config) ([]*block.Block, []BlockInfo, error) {
	req := syndrome.RequirementsFor(cfg.Corrector, code)
	n := len(cfg.Inputs)
	blocks := make([]*block.Block, n)
	infos := make([]BlockInfo, n)
	for i, in := range cfg.Inputs {
		bits := make([]int, req.Clbits)
		for j := range bits {
			bits[j] = n + i*req.Clbits + j
		}
		blk, err := block.New(blockName(i), code, alloc, block.WithScratch(req.Scratch), block.WithClbits(bits))
		if err != nil {
			return nil, nil, err
		}
		blocks[i] = blk
		infos[i] = BlockInfo{
			Name:         blk.Name(),
			Input:        in,
			Data:         blk.Data(),
			Ancillas:     blk.Ancillas(),
			Scratch:      blk.ScratchQubits(),
			Carrier:      blk.Carrier(),
			Clbit:        i,
			SyndromeBits: bits,
		}
	}
	return blocks, infos, nil
}

// plan returns the stages in the order their fragments are joined. Each
// block runs prepare, encode, fault, its rounds, decode, measure and
// release; a Bell pair sits between encode and fault of both blocks.
func plan(cfg Config, blocks []*block.Block, infos []BlockInfo, faults []noise.Fault) []stage {
	var stages []stage
	last := make([]string, len(blocks))
	each := func(name string, run func(i int, blk *block.Block) func(context.Context, *circuit.Builder) error) {
		for i, blk := range blocks {
			id := fmt.Sprintf("%s/%s", name, blk.Name())
			st := stage{id: id, run: run(i, blk)}
			if last[i] != "" {
				st.deps = []string{last[i]}
			}
			stages = append(stages, st)
			last[i] = id
		}
	}

	each("prepare", func(i int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(_ context.Context, bld *circuit.Builder) error {
			return bld.AppendAll(infos[i].Input.Ops(blk.Carrier())...)
		}
	})
	each("encode", func(_ int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(ctx context.Context, bld *circuit.Builder) error {
			return encoder.Encode(ctx, bld, blk)
		}
	})
	if cfg.Bell {
		stages = append(stages, stage{
			id:   "bell",
			deps: []string{last[0], last[1]},
			run: func(ctx context.Context, bld *circuit.Builder) error {
				return bell.Compose(ctx, bld, blocks[0], blocks[1])
			},
		})
		for i := range last {
			last[i] = "bell"
		}
	}
	each("fault", func(_ int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(ctx context.Context, bld *circuit.Builder) error {
			return noise.Apply(ctx, bld, blk, faults)
		}
	})
	for r := 1; r <= cfg.Rounds; r++ {
		each(fmt.Sprintf("round%d", r), func(_ int, blk *block.Block) func(context.Context, *circuit.Builder) error {
			return func(ctx context.Context, bld *circuit.Builder) error {
				return syndrome.Round(ctx, bld, blk, cfg.Corrector)
			}
		})
	}
	each("decode", func(_ int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(ctx context.Context, bld *circuit.Builder) error {
			return encoder.Decode(ctx, bld, blk)
		}
	})
	each("measure", func(i int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(_ context.Context, bld *circuit.Builder) error {
			if err := bld.Append(circuit.Measure(blk.Carrier(), infos[i].Clbit)); err != nil {
				return err
			}
			return blk.MarkMeasured()
		}
	})
	each("release", func(_ int, blk *block.Block) func(context.Context, *circuit.Builder) error {
		return func(_ context.Context, bld *circuit.Builder) error {
			return blk.Release(bld)
		}
	})
	return stages
}

// execute runs the stages on a dependency graph and returns one finalized
// fragment per stage, indexed like stages.
func execute(ctx context.Context, workers int, alloc *qubit.Allocator, stages []stage) ([]*circuit.Circuit, error) {
	g := dag.New()
	fragments := make([]*circuit.Circuit, len(stages))
	for i, st := range stages {
		g.AddTask(st.id, func(ctx context.Context) error {
			bld := circuit.NewBuilder(0, circuit.WithGuard(alloc))
			ctx, _ = ctxlog.With(ctx, "stage", st.id)
			if err := st.run(ctx, bld); err != nil {
				return errors.Wrapf(err, "stage %s", st.id)
			}
			fragments[i] = bld.Finalize()
			return nil
		})
	}
	for _, st := range stages {
		for _, d := range st.deps {
			if err := g.AddEdge(d, st.id); err != nil {
				return nil, err
			}
		}
	}
	if err := dag.NewExecutor(g, workers).Run(ctx); err != nil {
		return nil, err
	}
	return fragments, nil
}
