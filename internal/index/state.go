package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "state.json"

// State tracks which corpus files have been indexed and their content
// hashes, so unchanged files are skipped on incremental rebuilds.
type State struct {
	FileHashes  map[string]string `json:"file_hashes"`
	LastUpdated time.Time         `json:"last_updated"`
}

// LoadState reads index state from dir/state.json. A missing file yields an
// empty state.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{FileHashes: make(map[string]string)}, nil
		}
		return nil, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.FileHashes == nil {
		s.FileHashes = make(map[string]string)
	}
	return &s, nil
}

// Save writes the index state to dir/state.json.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}

// IsChanged returns true if the file's content hash differs from the stored
// hash.
func (s *State) IsChanged(file, contentHash string) bool {
	stored, ok := s.FileHashes[file]
	if !ok {
		return true
	}
	return stored != contentHash
}
