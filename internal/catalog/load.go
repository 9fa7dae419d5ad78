package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

// fixtureExts are tried in order for each table; later files override earlier keys.
var fixtureExts = []string{".yaml", ".yml", ".json"}

// LoadDir reads <table>.yaml, <table>.yml and <table>.json fixtures from dir.
// Missing table files are skipped; a missing directory is an error.
func LoadDir(dir string) (*Memory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("load catalog dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load catalog dir: %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS reads fixtures from dir inside fsys.
func LoadFS(fsys fs.FS, dir string) (*Memory, error) {
	m := NewMemory()
	for _, t := range Tables {
		for _, ext := range fixtureExts {
			name := path.Join(dir, string(t)+ext)
			data, err := fs.ReadFile(fsys, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if err := loadTable(m, t, data); err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
		}
	}
	return m, nil
}

func loadTable(m *Memory, t Table, data []byte) error {
	var rows map[string]map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return err
	}
	for key, rec := range rows {
		if err := m.Put(t, key, rec); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the embedded sample dataset.
func Default() (*Memory, error) {
	return LoadFS(defaultData, "data")
}

// IsFixture reports whether path names a fixture file LoadDir would read.
func IsFixture(p string) bool {
	base := filepath.Base(p)
	for _, t := range Tables {
		for _, ext := range fixtureExts {
			if base == string(t)+ext {
				return true
			}
		}
	}
	return false
}
