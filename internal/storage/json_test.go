package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

func newStorage() *JSONStorage {
	return NewJSONStorage(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	s := newStorage()
	path := filepath.Join(t.TempDir(), "perf_test", "report", "loadTestReport")

	report := domain.NewReport("febrl", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	report.Results.Set("train", domain.MinutesValue(12.34))
	report.Results.Set("match", domain.SentinelValue(domain.SentinelErrored))

	require.NoError(t, s.Save(path, report))

	loaded, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", loaded.Date)
	assert.Equal(t, "03:04:05", loaded.Time)
	assert.Equal(t, "febrl", loaded.Test)
	assert.Equal(t, []string{"train", "match"}, loaded.Results.Names())

	train, _ := loaded.Results.Get("train")
	assert.Equal(t, 12.34, train.Minutes)
	match, _ := loaded.Results.Get("match")
	assert.Equal(t, domain.SentinelErrored, match.Sentinel)
}

func TestJSONStorage_SaveUsesFourSpaceIndent(t *testing.T) {
	s := newStorage()
	path := filepath.Join(t.TempDir(), "report.json")

	report := domain.NewReport("febrl", time.Now())
	report.Results.Set("train", domain.MinutesValue(1))
	require.NoError(t, s.Save(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(t, "{", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `    "date"`), lines[1])
	assert.Contains(t, string(data), "        \"train\": 1")
}

func TestJSONStorage_SaveOverwrites(t *testing.T) {
	s := newStorage()
	path := filepath.Join(t.TempDir(), "report.json")

	first := domain.NewReport("a", time.Now())
	first.Results.Set("old", domain.MinutesValue(1))
	require.NoError(t, s.Save(path, first))

	second := domain.NewReport("a", time.Now())
	second.Results.Set("new", domain.MinutesValue(2))
	require.NoError(t, s.Save(path, second))

	loaded, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, loaded.Results.Names())
}

func TestJSONStorage_LoadMissingIsEmpty(t *testing.T) {
	loaded, err := newStorage().Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Results.Len())
}

func TestJSONStorage_LoadCorruptIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `{"date": "2026-01-01", "results": {"train": 1`},
		{name: "empty file", content: ``},
		{name: "array", content: `[1, 2, 3]`},
		{name: "bad result", content: `{"results": {"train": [1]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			loaded, err := newStorage().Load(path)
			require.NoError(t, err)
			assert.Equal(t, 0, loaded.Results.Len())
		})
	}
}

func TestJSONStorage_LoadReadErrorIsFatal(t *testing.T) {
	// A directory where the report should be cannot be read as a file.
	path := filepath.Join(t.TempDir(), "report")
	require.NoError(t, os.Mkdir(path, 0755))

	report, err := newStorage().Load(path)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "read report")
}
