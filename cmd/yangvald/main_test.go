package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen_address: x\n  unknown: 1\n"), 0o600))

	err := run(path, "")
	require.Error(t, err)
}

func TestRunMissingConfig(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
}

func TestRunListenError(t *testing.T) {
	err := run("", "256.0.0.1:bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
