package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

const metadataFile = "metadata.json"

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Params     map[string]float64 `json:"params,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Files      []string           `json:"files,omitempty"`
}

// Run is an open run directory.
type Run struct {
	Meta RunMetadata
	Dir  string
}

// NewRun creates a fresh run directory named <kind>_<id prefix>.
func (s *Store) NewRun(kind string, meta RunMetadata) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s_%s", kind, uuid.NewString()[:8])
	dir := filepath.Join(s.baseDir, id)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, err
	}

	meta.ID = id
	meta.Kind = kind
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	r := &Run{Meta: meta, Dir: dir}
	return r, r.Flush()
}

// Path returns the location of a file inside the run and records it in the metadata.
func (r *Run) Path(name string) string {
	for _, f := range r.Meta.Files {
		if f == name {
			return filepath.Join(r.Dir, name)
		}
	}
	r.Meta.Files = append(r.Meta.Files, name)
	return filepath.Join(r.Dir, name)
}

// Flush rewrites metadata.json.
func (r *Run) Flush() error {
	f, err := os.Create(filepath.Join(r.Dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Meta)
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Dir returns the directory of a stored run.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}
