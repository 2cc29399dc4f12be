// Package toml_adapter is the TOML implementation of config.Loader. It
// accepts the same code and run definitions as the HCL loader:
//
//	[codes.hamming_css]
//	length = 7
//	transversal = true
//
//	[[codes.hamming_css.group]]
//	family = "bit_flip"
//	coordinates = [[0], [1], [2], [3], [4], [5], [6]]
//
//	[run]
//	code = "hamming_css"
//
//	[[run.fault]]
//	block = "a"
//	qubit = 2
//	pauli = "X"
package toml_adapter

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
)

type file struct {
	Codes map[string]*code `toml:"codes"`
	Run   *run             `toml:"run"`
}

type code struct {
	Length      int      `toml:"length"`
	Transversal bool     `toml:"transversal"`
	Groups      []*group `toml:"group"`
}

type group struct {
	Family      string  `toml:"family"`
	Coordinates [][]int `toml:"coordinates"`
	Targets     []int   `toml:"targets"`
	Rows        [][]int `toml:"rows"`
}

type run struct {
	Code         string  `toml:"code"`
	Rounds       int     `toml:"rounds"`
	Bell         bool    `toml:"bell"`
	Strategy     string  `toml:"strategy"`
	MaxControls  int     `toml:"max_controls"`
	Shots        int     `toml:"shots"`
	Seed         *int64  `toml:"seed"`
	RandomFaults int     `toml:"random_faults"`
	Workers      int     `toml:"workers"`
	Inputs       []input `toml:"input"`
	Faults       []fault `toml:"fault"`
}

type input struct {
	Block string `toml:"block"`
	State string `toml:"state"`
}

type fault struct {
	Block string `toml:"block"`
	Qubit int    `toml:"qubit"`
	Pauli string `toml:"pauli"`
}

// Loader reads .toml configuration files.
type Loader struct{}

// NewLoader creates a new TOML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes every .toml file under paths into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := config.FindFiles(paths, ".toml")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered TOML files.", "count", len(files))

	model := config.NewModel()
	for _, path := range files {
		part, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("in %s: %w", path, err)
		}
	}
	logger.Debug("TOML loading complete.", "codes", len(model.Codes), "run", model.Run != nil)
	return model, nil
}

func decodeFile(path string) (*config.Model, error) {
	def := config.DefaultRun()
	f := file{Run: &run{
		Code:     def.Code,
		Rounds:   def.Rounds,
		Strategy: def.Strategy,
		Shots:    def.Shots,
	}}
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	m := config.NewModel()
	for name, c := range f.Codes {
		if !meta.IsDefined("codes", name, "length") {
			return nil, fmt.Errorf("%s: missing [codes.%s].length", path, name)
		}
		d := &config.CodeDefinition{Name: name, Length: c.Length, Transversal: c.Transversal}
		for i, g := range c.Groups {
			if g.Coordinates == nil {
				return nil, fmt.Errorf("%s: codes.%s group %d: missing coordinates", path, name, i)
			}
			d.Groups = append(d.Groups, &config.GroupDefinition{
				Family:      g.Family,
				Coordinates: g.Coordinates,
				Targets:     g.Targets,
				Rows:        g.Rows,
			})
		}
		if err := m.Merge(&config.Model{Codes: map[string]*config.CodeDefinition{name: d}}); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if meta.IsDefined("run") {
		r := f.Run
		spec := &config.RunSpec{
			Code:         r.Code,
			Rounds:       r.Rounds,
			Bell:         r.Bell,
			Strategy:     r.Strategy,
			MaxControls:  r.MaxControls,
			Shots:        r.Shots,
			Seed:         def.Seed,
			RandomFaults: r.RandomFaults,
			Workers:      r.Workers,
		}
		if r.Seed != nil {
			seed, err := safecast.Conv[uint64](*r.Seed)
			if err != nil {
				return nil, fmt.Errorf("%s: run: invalid seed %d: %w", path, *r.Seed, err)
			}
			spec.Seed = seed
		}
		for _, in := range r.Inputs {
			spec.Inputs = append(spec.Inputs, config.InputSpec(in))
		}
		for _, flt := range r.Faults {
			spec.Faults = append(spec.Faults, config.FaultSpec(flt))
		}
		m.Run = spec
	}
	return m, nil
}
