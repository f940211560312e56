package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default dataset file names inside a catalog directory.
const (
	CategorizedFile = "ipl_categorized_players.json"
	WithStatsFile   = "ipl_players_with_stats.json"
)

// FileSource reads both datasets from JSON files in a directory.
type FileSource struct {
	Dir string
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (Catalog, error) {
	categorized, err := readDataset(filepath.Join(s.Dir, CategorizedFile))
	if err != nil {
		return Catalog{}, err
	}
	withStats, err := readDataset(filepath.Join(s.Dir, WithStatsFile))
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Categorized: categorized, WithStats: withStats}, nil
}

// ReadDatasetFile parses a single dataset file.
func ReadDatasetFile(path string) (Dataset, error) {
	return readDataset(path)
}

func readDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return ds, nil
}
