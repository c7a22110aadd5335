package storage

import (
	"log/slog"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

// Storage loads the previous run's report and persists the current one.
type Storage interface {
	Load(path string) (*domain.Report, error)
	Save(path string, report *domain.Report) error
}

// JSONStorage keeps a single report per test as an indented JSON file.
type JSONStorage struct {
	log *slog.Logger
}

func NewJSONStorage(log *slog.Logger) *JSONStorage {
	return &JSONStorage{log: log}
}
