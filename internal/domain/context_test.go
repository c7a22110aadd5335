package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecContext_Environ(t *testing.T) {
	startedAt := time.Date(2026, 10, 17, 9, 5, 3, 0, time.Local)
	ec := NewExecContext("/work", startedAt, "run-1", []string{"PATH=/bin", "TIMESTAMP=stale"})
	ec.Setenv("SPARK_HOME", "/opt/spark")

	env := ec.Environ()
	assert.Equal(t, "20261017_090503", ec.Timestamp)
	assert.Equal(t, []string{
		"PATH=/bin",
		"TIMESTAMP=stale",
		"SPARK_HOME=/opt/spark",
		"TIMESTAMP=20261017_090503",
		"PERFRUN_RUN_ID=run-1",
	}, env)
}

func TestExecContext_Resolve(t *testing.T) {
	ec := NewExecContext("/work", time.Now(), "", nil)

	assert.Equal(t, "/work/report.json", ec.Resolve("report.json"))
	assert.Equal(t, "/tmp/report.json", ec.Resolve("/tmp/report.json"))
	assert.Equal(t, "", ec.Resolve(""))
}
