package app

import (
	"errors"
	"fmt"
	"slices"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatQASM    = "qasm"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	formats    = []string{FormatJSON, FormatMsgpack, FormatQASM}
	backends   = []string{BackendLocal, BackendRemote}
)

// Overrides replace individual run settings loaded from files. Nil fields
// keep the loaded value.
type Overrides struct {
	Code         *string
	Rounds       *int
	Bell         *bool
	InputA       *string
	InputB       *string
	Strategy     *string
	MaxControls  *int
	Faults       []string
	RandomFaults *int
	Seed         *uint64
	Shots        *int
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // .hcl and .toml files or directories
	Overrides   Overrides

	Simulate           bool
	Backend            string
	RemoteURL          string
	InsecureSkipVerify bool

	OutPath string // "-" is the output writer
	Format  string

	ListCodes bool
	Color     bool

	LogFormat   string
	LogLevel    string
	LogFile     string
	WorkerCount int
}

// NewConfig fills in defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLocal
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if !slices.Contains(formats, cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, formats)
	}
	if !slices.Contains(backends, cfg.Backend) {
		return nil, fmt.Errorf("invalid backend %q: must be one of %v", cfg.Backend, backends)
	}
	if cfg.Backend == BackendRemote && cfg.Simulate && cfg.RemoteURL == "" {
		return nil, errors.New("the remote backend requires a remote URL")
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be one of %v", cfg.LogFormat, logFormats)
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be one of %v", cfg.LogLevel, logLevels)
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", cfg.WorkerCount)
	}
	return &cfg, nil
}
