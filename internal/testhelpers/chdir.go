package testhelpers

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// ChdirInPath changes the working directory to path until the test ends
func ChdirInPath(tb testing.TB, path string) {
	tb.Helper()

	cwd, err := os.Getwd()
	require.NoError(tb, err, "Cannot Getwd")

	require.NoError(tb, os.Chdir(path), "Cannot Chdir")

	tb.Cleanup(func() {
		require.NoError(tb, os.Chdir(cwd), "Cannot Chdir in cleanup")
	})
}
