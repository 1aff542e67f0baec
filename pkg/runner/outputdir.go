package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// runTimestampFormat produces the {strategy_name}_{timestamp} directory
// naming spec.md §4.7 requires; seconds resolution is enough to keep
// concurrent single-runner invocations from colliding under normal use.
const runTimestampFormat = "20060102_150405"

// makeOutputDir creates and returns outputRoot/{strategy}_{timestamp}/,
// along with the bare "{strategy}_{timestamp}" tag used to name the CSVs
// placed inside it. An explicit runTag (set by the grid-search
// orchestrator to its own "run_NNN" naming) bypasses the timestamp and
// is used as-is, so a grid's per-run directories nest under its own
// grid_search_{strategy}_{ts}/ root instead of each minting a fresh one.
func makeOutputDir(outputRoot, strategyName, runTag string) (dir, tag string, err error) {
	tag = runTag
	if tag == "" {
		tag = fmt.Sprintf("%s_%s", strategyName, time.Now().UTC().Format(runTimestampFormat))
	}
	dir = filepath.Join(outputRoot, tag)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return dir, tag, nil
}
