// Package fsstore implements the model source and store ports over a
// directory of .opencm.json files, the conventional on-disk layout for a
// model collection.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"opencm/domain/core"
	"opencm/domain/model"
	"opencm/internal/validate"
	"opencm/ports"
)

// Store reads and writes OpenCM documents under a single directory. File
// names are <model-id>.opencm.json.
type Store struct {
	dir string
}

// New creates a store over the given directory.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// List returns every .opencm.json document in the directory, sorted by
// file name for deterministic discovery order.
func (s *Store) List(ctx context.Context) ([]ports.RawModel, error) {
	pattern := filepath.Join(s.dir, "*"+model.FileExtension)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}
	sort.Strings(paths)

	raws := make([]ports.RawModel, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		raws = append(raws, ports.RawModel{Origin: path, Data: data})
	}
	return raws, nil
}

// Get reads the document for one model id.
func (s *Store) Get(_ context.Context, id string) (ports.RawModel, error) {
	path := s.pathFor(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ports.RawModel{}, fmt.Errorf("%w: %s", core.ErrModelNotFound, id)
	}
	if err != nil {
		return ports.RawModel{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ports.RawModel{Origin: path, Data: data}, nil
}

// Put writes a document under the id's conventional file name.
func (s *Store) Put(_ context.Context, id string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}
	path := s.pathFor(id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Delete removes a model's document.
func (s *Store) Delete(_ context.Context, id string) error {
	err := os.Remove(s.pathFor(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrModelNotFound, id)
	}
	return err
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.dir, id+model.FileExtension)
}

// Load reads and validates a single document by path, independent of the
// store directory. Convenience for collaborators that take explicit file
// arguments.
func Load(path string) (*model.CausalModel, []validate.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, diags := validate.ValidateBytes(data)
	return m, diags, nil
}
