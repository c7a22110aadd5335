package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

const indent = "    "

// Load reads the report at path. A missing file or one that does not decode
// yields an empty report: the run then becomes the first baseline.
func (s *JSONStorage) Load(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no previous report, starting a new baseline", "path", path)
			return &domain.Report{}, nil
		}
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		s.log.Warn("previous report is not valid, ignoring it", "path", path, "error", err)
		return &domain.Report{}, nil
	}
	return &report, nil
}

// Save overwrites the report at path.
func (s *JSONStorage) Save(path string, report *domain.Report) error {
	data, err := json.MarshalIndent(report, "", indent)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.log.Debug("report saved", "path", path, "phases", report.Results.Len())
	return nil
}
