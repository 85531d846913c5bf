package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"GoldPulse/internal/domain/models"
)

// snapshotFile persists one JSON document atomically: marshal to a
// temp file in the same directory, then rename over the target. A
// crash mid-save leaves the previous snapshot intact.
type snapshotFile struct {
	path string
	mu   sync.Mutex
}

func (f *snapshotFile) load(dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode state %s: %w", f.path, err)
	}
	return nil
}

func (f *snapshotFile) save(src interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state %s: %w", f.path, err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state %s: %w", f.path, err)
	}
	return nil
}

// BayesFileStore keeps the reliability state in a JSON file.
type BayesFileStore struct {
	file snapshotFile
}

// NewBayesFileStore builds a file-backed reliability state store.
func NewBayesFileStore(path string) *BayesFileStore {
	return &BayesFileStore{file: snapshotFile{path: path}}
}

func (s *BayesFileStore) Load(_ context.Context) (map[string]*models.SymbolState, error) {
	state := make(map[string]*models.SymbolState)
	if err := s.file.load(&state); err != nil {
		return make(map[string]*models.SymbolState), err
	}
	return state, nil
}

func (s *BayesFileStore) Save(_ context.Context, state map[string]*models.SymbolState) error {
	return s.file.save(state)
}

// WeightFileStore keeps the dynamic weighting track record in a JSON
// file.
type WeightFileStore struct {
	file snapshotFile
}

// NewWeightFileStore builds a file-backed weight state store.
func NewWeightFileStore(path string) *WeightFileStore {
	return &WeightFileStore{file: snapshotFile{path: path}}
}

func (s *WeightFileStore) Load(_ context.Context) (map[string]models.SymbolWeights, error) {
	state := make(map[string]models.SymbolWeights)
	if err := s.file.load(&state); err != nil {
		return make(map[string]models.SymbolWeights), err
	}
	return state, nil
}

func (s *WeightFileStore) Save(_ context.Context, state map[string]models.SymbolWeights) error {
	return s.file.save(state)
}
