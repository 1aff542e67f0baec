package gridsearch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Checkpoint is the persisted set of run IDs that have already completed
// (spec.md §4.8: "persist a set of completed run IDs to checkpoint.json;
// on restart, skip IDs already in that set"). Run keeps this file in the
// grid directory it creates, grid_search_{strategy}_{YYYYMMDD_HHMMSS}; a
// later invocation of Run creates a new directory and so starts from an
// empty checkpoint. IDs are skipped only when Run resolves to a directory
// that already holds checkpoint.json.
type Checkpoint struct {
	CompletedRunIDs []string `json:"completed_run_ids"`
}

func checkpointPath(outputDir string) string {
	return filepath.Join(outputDir, "checkpoint.json")
}

// loadCheckpoint reads checkpoint.json if present, returning an empty
// checkpoint (not an error) when the grid is starting fresh.
func loadCheckpoint(outputDir string) (Checkpoint, error) {
	raw, err := os.ReadFile(checkpointPath(outputDir))
	if os.IsNotExist(err) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return cp, nil
}

func (c Checkpoint) has(runID string) bool {
	for _, id := range c.CompletedRunIDs {
		if id == runID {
			return true
		}
	}
	return false
}

func saveCheckpoint(outputDir string, cp Checkpoint) error {
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	if err := os.WriteFile(checkpointPath(outputDir), raw, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}
