package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TmpDir returns a temporary document root with symlinks resolved
func TmpDir(tb testing.TB) string {
	tb.Helper()

	// On some systems `/tmp` can be a symlink
	tmpDir, err := filepath.EvalSymlinks(tb.TempDir())
	require.NoError(tb, err)

	return tmpDir
}

// DocumentRoot returns a temporary document root populated with files.
// Keys are slash separated paths relative to the root.
func DocumentRoot(tb testing.TB, files map[string]string) string {
	tb.Helper()

	dir := TmpDir(tb)
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(tb, os.WriteFile(path, []byte(content), 0644))
	}

	return dir
}
