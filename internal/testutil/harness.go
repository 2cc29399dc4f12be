// Package testutil holds helpers shared by the application-level tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/app"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/config"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/hcl_adapter"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/toml_adapter"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Loaders returns the loaders the CLI uses.
func Loaders() config.Loaders {
	return config.Loaders{
		".hcl":  hcl_adapter.NewLoader(),
		".toml": toml_adapter.NewLoader(),
	}
}

// HarnessResult holds the outcomes of an application run.
type HarnessResult struct {
	Output string
	Dir    string
	Err    error
	App    *app.App
}

// WriteFiles writes files, keyed by relative path, under a fresh temporary
// directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

// RunApp writes files to a temporary directory, points cfg at it and runs
// the application once. Logs share the output buffer, as in the CLI.
func RunApp(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	if len(files) > 0 {
		cfg.ConfigPaths = append(cfg.ConfigPaths, dir)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	res := &HarnessResult{Dir: dir}
	out := &SafeBuffer{}
	appCfg, err := app.NewConfig(cfg)
	require.NoError(t, err)

	a, err := app.NewApp(out, appCfg, Loaders())
	if err == nil {
		res.App = a
		err = a.Run(context.Background())
		require.NoError(t, a.Close())
	}
	res.Err = err
	res.Output = out.String()

	t.Cleanup(func() {
		if os.Getenv("QEC_TEST_LOGS") == "true" {
			t.Logf("--- Full Output for %s ---\n%s", t.Name(), res.Output)
		}
	})
	return res
}
