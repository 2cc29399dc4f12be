package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/pipeline"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/remote"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/sim"
)

// backend executes a finished circuit.
type backend interface {
	Execute(ctx context.Context, c *circuit.Circuit, shots int, seed uint64) (sim.Counts, error)
}

type localBackend struct{ sim *sim.Simulator }

func (b localBackend) Execute(ctx context.Context, c *circuit.Circuit, shots int, seed uint64) (sim.Counts, error) {
	return b.sim.Run(ctx, c, shots, seed)
}

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.ListCodes {
		return a.writeCodes(a.outW)
	}

	workers := a.cfg.WorkerCount
	if workers == 0 {
		workers = a.run.Workers
	}
	pcfg, err := pipelineConfig(a.run, a.factory, workers)
	if err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	a.logger.Info("Synthesizing circuit...", "code", pcfg.Code, "blocks", len(pcfg.Inputs), "rounds", pcfg.Rounds, "strategy", pcfg.Corrector.Name())
	res, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if a.cfg.OutPath != "" {
		if err := a.writeArtifact(res.Circuit); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
	}

	var counts sim.Counts
	if a.cfg.Simulate {
		b, err := a.backend(workers)
		if err != nil {
			return err
		}
		a.logger.Info("Executing circuit...", "backend", a.cfg.Backend, "shots", a.run.Shots, "seed", a.run.Seed)
		counts, err = b.Execute(ctx, res.Circuit, a.run.Shots, a.run.Seed)
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}

	// The artifact owns the output stream when written there.
	if a.cfg.OutPath != "-" {
		if err := a.writeReport(a.outW, res, counts); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) backend(workers int) (backend, error) {
	if a.cfg.Backend == BackendRemote {
		cl, err := remote.New(remote.Options{URL: a.cfg.RemoteURL, InsecureSkipVerify: a.cfg.InsecureSkipVerify})
		if err != nil {
			return nil, err
		}
		return cl, nil
	}
	return localBackend{sim: &sim.Simulator{Workers: workers}}, nil
}

func (a *App) writeArtifact(c *circuit.Circuit) (err error) {
	var w io.Writer = a.outW
	if a.cfg.OutPath != "-" {
		f, cerr := os.Create(a.cfg.OutPath)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch a.cfg.Format {
	case FormatMsgpack:
		err = c.WriteMsgpack(w)
	case FormatQASM:
		err = c.WriteQASM(w)
	default:
		err = c.WriteJSON(w)
	}
	if err == nil {
		a.logger.Info("Artifact written.", "path", a.cfg.OutPath, "format", a.cfg.Format)
	}
	return err
}
