package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	logfilter "github.com/jmylchreest/slog-logfilter"
)

// LoadFilters reads a JSON array of log filter rules from the given file and
// installs them via slog-logfilter. Filters can suppress or force log records
// (e.g. silencing noisy health-check logs) without code changes.
//
// A missing path is not an error; filtering is simply disabled.
func LoadFilters(path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("log filter file not found, filtering disabled", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read log filters: %w", err)
	}

	var filters []logfilter.LogFilter
	if err := json.Unmarshal(data, &filters); err != nil {
		return fmt.Errorf("failed to parse log filters: %w", err)
	}

	logfilter.SetFilters(filters)
	logger.Info("log filters applied", "path", path, "count", len(filters))
	return nil
}
