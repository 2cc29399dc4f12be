package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/noise"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/pipeline"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/syndrome"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	logFile io.Closer
	cfg     *Config
	factory *stabilizer.Factory
	run     *config.RunSpec
}

// NewApp is the constructor for the main application. It loads every
// configuration file through loader, registers the codes they define on a
// fresh factory and applies the CLI overrides to the run.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	sink, closer := logSink(cfg.LogFile, outW)
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, sink)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "log_file", cfg.LogFile)

	a := &App{outW: outW, logger: logger, logFile: closer, cfg: cfg, factory: stabilizer.NewFactory()}

	model := config.NewModel()
	if len(cfg.ConfigPaths) > 0 && loader != nil {
		m, err := loader.Load(ctx, cfg.ConfigPaths...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		model = m
	}
	logger.Debug("Configuration loaded and translated into unified model.", "codes", len(model.Codes), "run", model.Run != nil)

	if err := model.Register(a.factory); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register codes: %w", err)
	}

	a.run = model.Run
	if a.run == nil {
		a.run = config.DefaultRun()
	}
	if err := applyOverrides(a.run, cfg.Overrides); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("Run configured.", "code", a.run.Code, "rounds", a.run.Rounds, "bell", a.run.Bell, "strategy", a.run.Strategy)
	return a, nil
}

// Close releases the log file, if any.
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

// Factory returns the code factory, including codes loaded from files.
func (a *App) Factory() *stabilizer.Factory { return a.factory }

// RunSpec returns the effective run after overrides.
func (a *App) RunSpec() config.RunSpec { return *a.run }

func applyOverrides(run *config.RunSpec, o Overrides) error {
	set(&run.Code, o.Code)
	set(&run.Rounds, o.Rounds)
	set(&run.Bell, o.Bell)
	set(&run.Strategy, o.Strategy)
	set(&run.MaxControls, o.MaxControls)
	set(&run.RandomFaults, o.RandomFaults)
	set(&run.Seed, o.Seed)
	set(&run.Shots, o.Shots)
	if o.InputA != nil {
		run.Inputs = setInput(run.Inputs, "a", *o.InputA)
	}
	if o.InputB != nil {
		run.Inputs = setInput(run.Inputs, "b", *o.InputB)
	}
	for _, s := range o.Faults {
		f, err := noise.ParseFault(s)
		if err != nil {
			return err
		}
		run.Faults = append(run.Faults, config.FaultSpec{Block: f.Block, Qubit: f.Qubit, Pauli: f.Pauli.String()})
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setInput(inputs []config.InputSpec, block, state string) []config.InputSpec {
	for i := range inputs {
		if inputs[i].Block == block {
			inputs[i].State = state
			return inputs
		}
	}
	return append(inputs, config.InputSpec{Block: block, State: state})
}

// pipelineConfig translates a run into a pipeline configuration. The block
// count is two for a Bell pair, otherwise enough to cover every named input.
func pipelineConfig(run *config.RunSpec, factory *stabilizer.Factory, workers int) (pipeline.Config, error) {
	corrector, err := syndrome.New(run.Strategy, run.MaxControls)
	if err != nil {
		return pipeline.Config{}, err
	}

	n := 1
	if run.Bell {
		n = 2
	}
	for _, in := range run.Inputs {
		i, err := blockIndex(in.Block)
		if err != nil {
			return pipeline.Config{}, err
		}
		n = max(n, i+1)
	}
	inputs := make([]pipeline.Input, n)
	for i := range inputs {
		inputs[i] = pipeline.InputZero
	}
	for _, in := range run.Inputs {
		i, _ := blockIndex(in.Block)
		state, err := pipeline.ParseInput(in.State)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("input %q: %w", in.Block, err)
		}
		inputs[i] = state
	}

	faults := make([]noise.Fault, 0, len(run.Faults))
	for _, f := range run.Faults {
		p, err := noise.ParsePauli(f.Pauli)
		if err != nil {
			return pipeline.Config{}, err
		}
		faults = append(faults, noise.Fault{Block: f.Block, Qubit: f.Qubit, Pauli: p})
	}

	return pipeline.Config{
		Code:         run.Code,
		Factory:      factory,
		Inputs:       inputs,
		Bell:         run.Bell,
		Rounds:       run.Rounds,
		Corrector:    corrector,
		Faults:       faults,
		RandomFaults: run.RandomFaults,
		Seed:         run.Seed,
		Workers:      workers,
	}, nil
}

func blockIndex(name string) (int, error) {
	if len(name) != 1 || name[0] < 'a' || name[0] > 'z' {
		return 0, fmt.Errorf("%w: block name %q must be a single letter a-z", pipeline.ErrInvalidConfig, name)
	}
	return int(name[0] - 'a'), nil
}
