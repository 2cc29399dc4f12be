package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hammingCSS() *CodeDefinition {
	coords := [][]int{{0}, {1}, {2}, {3}, {4}, {5}, {6}}
	return &CodeDefinition{
		Name:        "my_steane",
		Length:      7,
		Transversal: true,
		Groups: []*GroupDefinition{
			{Family: "bit_flip", Coordinates: coords},
			{Family: "phase", Coordinates: coords},
		},
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()
	m := NewModel()
	require.NoError(t, m.Merge(&Model{Codes: map[string]*CodeDefinition{"My_Steane": hammingCSS()}}))
	require.NoError(t, m.Merge(&Model{Run: DefaultRun()}))

	err := m.Merge(&Model{Codes: map[string]*CodeDefinition{"my_steane": hammingCSS()}})
	assert.ErrorContains(t, err, "defined more than once")
	err = m.Merge(&Model{Run: DefaultRun()})
	assert.ErrorContains(t, err, "more than one run")
}

func TestRegister(t *testing.T) {
	t.Parallel()
	f := stabilizer.NewFactory()
	m := NewModel()
	m.Codes["my_steane"] = hammingCSS()

	require.NoError(t, m.Register(f))

	code, err := f.Lookup("my_steane")
	require.NoError(t, err)
	assert.Equal(t, 7, code.Len())
	assert.True(t, code.Transversal())

	bad := hammingCSS()
	bad.Groups[1].Family = "diagonal"
	_, err = bad.Definition()
	assert.ErrorContains(t, err, "unknown family")

	broken := hammingCSS()
	broken.Name = "broken"
	broken.Groups[0].Coordinates = [][]int{{0}, {0}, {1}}
	m2 := &Model{Codes: map[string]*CodeDefinition{"broken": broken}}
	assert.ErrorIs(t, m2.Register(f), stabilizer.ErrConfiguration)
}

type fakeLoader struct{ seen []string }

func (l *fakeLoader) Load(_ context.Context, paths ...string) (*Model, error) {
	l.seen = append(l.seen, paths...)
	m := NewModel()
	for _, p := range paths {
		m.Codes[filepath.Base(p)] = &CodeDefinition{Name: filepath.Base(p)}
	}
	return m, nil
}

func TestLoaders(t *testing.T) {
	t.Parallel()
	// Arrange
	dir := t.TempDir()
	for _, name := range []string{"a.hcl", "b.toml", "notes.txt", "sub/c.hcl"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}
	hclLoader, tomlLoader := &fakeLoader{}, &fakeLoader{}
	ls := Loaders{".hcl": hclLoader, ".toml": tomlLoader}

	// Act
	m, err := ls.Load(context.Background(), dir, filepath.Join(dir, "missing.hcl"))

	// Assert
	require.NoError(t, err)
	assert.Len(t, hclLoader.seen, 2)
	assert.Equal(t, []string{filepath.Join(dir, "b.toml")}, tomlLoader.seen)
	assert.Len(t, m.Codes, 3)
}

func TestFindFilesSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "run.HCL")
	require.NoError(t, os.WriteFile(p, nil, 0o600))

	files, err := FindFiles([]string{p, p}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{p}, files)
}
