package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRunRequiresTheme(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "Card.js")
	require.NoError(t, os.WriteFile(file, []byte("export const x = 1;\n"), 0o600))

	_, err := execute(t, "--root", root, file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "themePath is required")
}

func TestRunSkipsPlainModules(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"),
		[]byte(`{"flair": {"themePath": "theme.json"}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Plain.js"), []byte("export const x = 1;\n"), 0o600))

	out, err := execute(t, "--root", root, "--json")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Empty(t, results)
}

func TestVersionFlag(t *testing.T) {
	var stdout bytes.Buffer
	cmd := newRootCommand(&stdout)
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "flair-collect")
}
