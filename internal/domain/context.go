package domain

import (
	"path/filepath"
	"sort"
	"time"
)

const (
	TimestampLayout = "20060102_150405"

	EnvTimestamp = "TIMESTAMP"
	EnvRunID     = "PERFRUN_RUN_ID"
)

// ExecContext carries the working directory and environment of one run to
// everything that spawns processes. The process-wide working directory and
// environment are left untouched.
type ExecContext struct {
	Dir       string
	Timestamp string
	RunID     string

	base  []string
	extra map[string]string
}

func NewExecContext(dir string, startedAt time.Time, runID string, base []string) *ExecContext {
	return &ExecContext{
		Dir:       dir,
		Timestamp: startedAt.Format(TimestampLayout),
		RunID:     runID,
		base:      base,
		extra:     make(map[string]string),
	}
}

func (c *ExecContext) Setenv(key, value string) {
	c.extra[key] = value
}

// Environ returns the environment for child processes. Later entries win when
// keys repeat, which is how os/exec resolves duplicates.
func (c *ExecContext) Environ() []string {
	env := make([]string, 0, len(c.base)+len(c.extra)+2)
	env = append(env, c.base...)

	keys := make([]string, 0, len(c.extra))
	for k := range c.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.extra[k])
	}

	env = append(env, EnvTimestamp+"="+c.Timestamp)
	if c.RunID != "" {
		env = append(env, EnvRunID+"="+c.RunID)
	}
	return env
}

// Resolve makes a relative path absolute against the run directory.
func (c *ExecContext) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}
