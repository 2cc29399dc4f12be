package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/app"
	"golang.org/x/term"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("qec", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
qec - synthesizes error-corrected logical qubit circuits from CSS stabilizer codes.

Usage:
  qec [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a .hcl or .toml file, or a directory containing them. Files may
    define codes and at most one run; flags override the run.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file or directory.")
	codeFlag := flagSet.String("code", "", "Code of every block, e.g. steane7, shor9, repetition3_bit.")
	roundsFlag := flagSet.Int("rounds", 1, "QEC rounds per block.")
	bellFlag := flagSet.Bool("bell", false, "Entangle blocks a and b into a logical Bell pair.")
	inputAFlag := flagSet.String("input-a", "zero", "Logical input of block a: zero, one, plus or minus.")
	inputBFlag := flagSet.String("input-b", "zero", "Logical input of block b.")
	strategyFlag := flagSet.String("strategy", "network", "Correction strategy: network, decomposed, measured or fallback.")
	maxControlsFlag := flagSet.Int("max-controls", 0, "Largest native control set. 0 is unbounded for network.")
	var faults stringList
	flagSet.Var(&faults, "fault", "Inject a Pauli fault as block:qubit:pauli, e.g. a:1:X. Repeatable.")
	randomFaultsFlag := flagSet.Int("random-faults", 0, "Random single-qubit faults drawn per block from the seed.")
	seedFlag := flagSet.Uint64("seed", 1, "Seed for random faults and sampling.")
	shotsFlag := flagSet.Int("shots", 1000, "Shots when simulating.")
	simulateFlag := flagSet.Bool("simulate", false, "Execute the circuit and report the counts.")
	backendFlag := flagSet.String("backend", app.BackendLocal, "Execution backend: 'local' or 'remote'.")
	remoteURLFlag := flagSet.String("remote-url", "", "socket.io URL of the remote execution service.")
	insecureFlag := flagSet.Bool("insecure-skip-verify", false, "Skip TLS verification for the remote backend.")
	outFlag := flagSet.String("out", "", "Write the circuit artifact to this path. '-' writes to stdout.")
	formatFlag := flagSet.String("format", app.FormatJSON, "Artifact format: 'json', 'msgpack' or 'qasm'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 0 uses GOMAXPROCS.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Write logs to this size-rotated file instead of the output.")
	listCodesFlag := flagSet.Bool("list-codes", false, "List the available codes and exit.")
	colorFlag := flagSet.String("color", "auto", "Colorize the report: auto, on or off.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *configFlag != "" {
		paths = append(paths, *configFlag)
	}
	paths = append(paths, flagSet.Args()...)

	// Only flags given on the command line override the loaded run.
	set := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })
	var o app.Overrides
	if set["code"] {
		o.Code = codeFlag
	}
	if set["rounds"] {
		o.Rounds = roundsFlag
	}
	if set["bell"] {
		o.Bell = bellFlag
	}
	if set["input-a"] {
		o.InputA = inputAFlag
	}
	if set["input-b"] {
		o.InputB = inputBFlag
	}
	if set["strategy"] {
		o.Strategy = strategyFlag
	}
	if set["max-controls"] {
		o.MaxControls = maxControlsFlag
	}
	if set["random-faults"] {
		o.RandomFaults = randomFaultsFlag
	}
	if set["seed"] {
		o.Seed = seedFlag
	}
	if set["shots"] {
		o.Shots = shotsFlag
	}
	o.Faults = faults

	useColor, err := colorMode(*colorFlag, output)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPaths:        paths,
		Overrides:          o,
		Simulate:           *simulateFlag,
		Backend:            strings.ToLower(*backendFlag),
		RemoteURL:          *remoteURLFlag,
		InsecureSkipVerify: *insecureFlag,
		OutPath:            *outFlag,
		Format:             strings.ToLower(*formatFlag),
		ListCodes:          *listCodesFlag,
		Color:              useColor,
		LogFormat:          strings.ToLower(*logFormatFlag),
		LogLevel:           strings.ToLower(*logLevelFlag),
		LogFile:            *logFileFlag,
		WorkerCount:        *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// colorMode resolves -color. auto enables colour only when output is a
// terminal.
func colorMode(mode string, output io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := output.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode %q: must be 'auto', 'on' or 'off'", mode)
	}
}
