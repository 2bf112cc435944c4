package mover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunScriptExecutesSuccessfully(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "plan.sh")
	marker := filepath.Join(dir, "ran")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0o755))

	m := &Mover{}
	require.NoError(t, m.RunScript(t.Context(), script))

	_, err := os.Stat(marker)
	require.NoError(t, err, "script should have run and created the marker file")
}

func TestRunScriptDryRunSkipsExecution(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "plan.sh")
	marker := filepath.Join(dir, "ran")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0o755))

	m := &Mover{DryRun: true}
	require.NoError(t, m.RunScript(t.Context(), script))

	_, err := os.Stat(marker)
	require.True(t, os.IsNotExist(err), "dry run must not execute the script")
}

func TestRunScriptPropagatesFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "plan.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	m := &Mover{}
	require.Error(t, m.RunScript(t.Context(), script))
}
