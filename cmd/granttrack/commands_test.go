package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const spring = "Project Name,Amount Requested,Notes\nMural,1000,acct 12345678\nGarden,2500,\nZine,300,\n"

func TestInferColumnCommand(t *testing.T) {
	out, err := run(t, "infer-column", writeCSV(t, "spring.csv", spring))
	require.NoError(t, err)
	assert.Contains(t, out, "match column: Project Name (confidence high)")
	assert.Contains(t, out, "Amount Requested")
}

func TestExtractCodesCommand(t *testing.T) {
	out, err := run(t, "extract-codes", writeCSV(t, "spring.csv", spring))
	require.NoError(t, err)
	assert.Contains(t, out, "12345678")
	assert.Contains(t, out, "row_text")

	_, err = run(t, "extract-codes", writeCSV(t, "spring.csv", spring), "--column", "Missing")
	assert.Error(t, err)
}

func TestBalanceCommand(t *testing.T) {
	path := writeCSV(t, "spring.csv", spring)
	out, err := run(t, "balance", path,
		"--date", "2025-03-15", "--date", "2025-03-01",
		"--reviewer", "Ana", "--reviewer", "Ben", "--reviewer", "Cy",
		"--k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-01")
	assert.Contains(t, out, "loads: min 2, max 2")

	_, err = run(t, "balance", path, "--reviewer", "Ana", "--k", "1")
	assert.Error(t, err)
}

func TestMatchCommand(t *testing.T) {
	active := writeCSV(t, "spring.csv", spring)
	fall := writeCSV(t, "fall.csv", "Project Name,Amount Requested\nMural,800\n")

	out, err := run(t, "--json", "match", active, "Mural", "--cycle", fall)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "matched"`)
	assert.Contains(t, out, `"searched": 1`)
}
