package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("TRUSTLEDGER_CONFIG", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoSelection(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "nothing to do")
}

func TestRun_All(t *testing.T) {
	code, stdout, _ := runCLI(t, "--all", "--store=memory")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Anomaly detection completed. Found 0 anomalies:")
	assert.Contains(t, stdout, "  - Budget overruns: 0")
	assert.Contains(t, stdout, "Trust score calculation completed.")
}

func TestRun_TrustScoresOnly(t *testing.T) {
	code, stdout, _ := runCLI(t, "--trust-scores")
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, "Running anomaly detection")
	assert.Contains(t, stdout, "Calculating trust scores...")
}

func TestRun_JSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "--anomaly-detection", "--json")
	require.Equal(t, 0, code)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Contains(t, report, "detections")
	assert.Contains(t, report, "started_at")
}

func TestRun_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	code, _, stderr := runCLI(t, "--all", "--export", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "report written to")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_InvalidStore(t *testing.T) {
	code, _, stderr := runCLI(t, "--all", "--store=sqlite")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid config")
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "--verbose")
	assert.Equal(t, 2, code)
}
