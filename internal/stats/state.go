package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"MoveSentinel/internal/model"
)

// LoadState reads the stats from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.DetectorStats, error) {
	if filePath == "" {
		return &model.DetectorStats{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.DetectorStats{}, nil
		}
		return nil, err
	}
	var state model.DetectorStats
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the stats to a JSON file. An empty path keeps them in memory only.
func SaveState(filePath string, state *model.DetectorStats) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
