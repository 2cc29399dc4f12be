package stabilizer

import (
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const defaultCacheSize = 32

// Factory resolves code names to validated codes. Built-in families are
// always available; Define adds custom ones. Derived codes are cached.
type Factory struct {
	mu      sync.Mutex
	entries map[string]entry
	cache   *lru.Cache[string, *Code]
}

type entry struct {
	name string
	ctor func() (*Code, error)
}

// NewFactory returns a factory knowing the built-in families.
func NewFactory() *Factory {
	cache, err := lru.New[string, *Code](defaultCacheSize)
	if err != nil {
		// Only a non-positive size can fail.
		panic(err)
	}
	f := &Factory{entries: make(map[string]entry), cache: cache}
	f.register(NameRepetition3Bit, Repetition3Bit)
	f.register(NameRepetition3Phase, Repetition3Phase)
	f.register(NameSteane7, Steane7)
	f.register(NameShor9, Shor9)
	f.register(NameShor9Standard, Shor9Standard)
	return f
}

func (f *Factory) register(name string, ctor func() (*Code, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[normalize(name)] = entry{name: name, ctor: ctor}
}

// Lookup returns the named code. Names are matched ignoring case, '_' and
// '-', so "Steane7", "steane7" and "STEANE-7" are the same code.
func (f *Factory) Lookup(name string) (*Code, error) {
	key := normalize(name)
	if c, ok := f.cache.Get(key); ok {
		return c, nil
	}

	f.mu.Lock()
	e, ok := f.entries[key]
	f.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedCode, "%q (known: %s)", name, strings.Join(f.Names(), ", "))
	}

	c, err := e.ctor()
	if err != nil {
		return nil, err
	}
	f.cache.Add(key, c)
	return c, nil
}

// Define validates def and registers it under def.Name, replacing any
// previous definition of that name. Validation errors surface here, never
// during Lookup.
func (f *Factory) Define(def Definition) (*Code, error) {
	c, err := Build(def)
	if err != nil {
		return nil, err
	}
	f.register(def.Name, func() (*Code, error) { return c, nil })
	f.cache.Add(normalize(def.Name), c)
	return c, nil
}

// Names lists every resolvable code in canonical form, sorted.
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.name)
	}
	slices.Sort(out)
	return out
}

var defaultFactory = NewFactory()

// Lookup resolves a built-in code by name.
func Lookup(name string) (*Code, error) {
	return defaultFactory.Lookup(name)
}

// Names lists the built-in codes.
func Names() []string {
	return NewFactory().Names()
}

func normalize(name string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return r.Replace(strings.ToLower(name))
}
