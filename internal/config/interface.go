package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every file the loader understands under paths and
	// translates them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Loaders dispatches to one Loader per file extension and merges the
// results.
type Loaders map[string]Loader

// Load runs every registered loader over paths and merges their models.
func (ls Loaders) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	exts := make([]string, 0, len(ls))
	for ext := range ls {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	model := NewModel()
	for _, ext := range exts {
		files, err := FindFiles(paths, ext)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}
		logger.Debug("Loading configuration files.", "extension", ext, "count", len(files))
		m, err := ls[ext].Load(ctx, files...)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// FindFiles walks all given paths and returns a flat list of the files with
// extension ext. Missing paths are skipped.
func FindFiles(paths []string, ext string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if !strings.EqualFold(filepath.Ext(p), ext) {
			return
		}
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
