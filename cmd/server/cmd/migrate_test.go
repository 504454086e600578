package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestMigrateCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "sqlite:///"+filepath.Join(t.TempDir(), "migrate.db"))

	out, err := runRoot(t, "migrate", "version")
	require.NoError(t, err)
	require.Contains(t, out, "schema version: none")

	out, err = runRoot(t, "migrate", "up")
	require.NoError(t, err)
	require.Contains(t, out, "schema version: 1 (dirty: false)")

	out, err = runRoot(t, "migrate", "up")
	require.NoError(t, err, "re-running up is a no-op")
	require.Contains(t, out, "schema version: 1")

	out, err = runRoot(t, "migrate", "down")
	require.NoError(t, err)
	require.Contains(t, out, "schema version: none")
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	for _, arg := range []string{"0", "two"} {
		_, err := runRoot(t, "migrate", "down", arg)
		require.ErrorContains(t, err, "steps must be a positive integer")
	}
}
