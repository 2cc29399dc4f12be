package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/app"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/cli"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/hcl_adapter"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/toml_adapter"
)

// main is the entrypoint for the qec application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Files are dispatched to a loader by extension.
	loaders := config.Loaders{
		".hcl":  hcl_adapter.NewLoader(),
		".toml": toml_adapter.NewLoader(),
	}
	qecApp, err := app.NewApp(outW, appConfig, loaders)
	if err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}
	defer qecApp.Close()

	return qecApp.Run(ctx)
}
