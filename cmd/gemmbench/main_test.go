package main

import (
	"testing"

	"github.com/haormj/version"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownBackend(t *testing.T) {
	dev, err := openDevice("metal")
	require.Error(t, err)
	require.Nil(t, dev)
	require.Contains(t, err.Error(), "emulated")
}

func TestRootCommandVersion(t *testing.T) {
	require.Equal(t, version.FullVersion(), newRootCmd().Version)
}

func TestEmulatedBackendIsAlwaysAvailable(t *testing.T) {
	require.Contains(t, backendNames(), "emulated")

	dev, err := openDevice("emulated")
	require.NoError(t, err)
	require.Equal(t, "emulated", dev.Name())
}

func TestRootCommandEmulated(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--backend", "emulated",
		"--dimension", "16",
		"--tests", "2",
		"--loops", "2",
		"--log-level", "warn",
	})

	require.NoError(t, cmd.Execute())
}

func TestRootCommandBadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level", "loud", "--dimension", "8", "--tests", "1", "--loops", "1"})

	require.Error(t, cmd.Execute())
}
