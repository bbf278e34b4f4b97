package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/array"
	"github.com/absfs/convertfs/format/all"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		verbose = false
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func saveArray(t *testing.T, path string) {
	t.Helper()
	fsys, err := convertfs.NewOSFS()
	require.NoError(t, err)
	c, err := all.New(fsys, nil)
	require.NoError(t, err)
	a, err := array.NewFloat64([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, c.Save(path, a))
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.npy")
	saveArray(t, src)

	out, err := execute(t, src, ".txt.gz")
	require.NoError(t, err)
	want := filepath.Join(dir, "data.txt.gz")
	assert.Equal(t, want+"\n", out)
	_, err = os.Stat(want)
	assert.NoError(t, err)
}

func TestConvertWithConfig(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.npy")
	saveArray(t, src)

	config := filepath.Join(dir, "levels.yaml")
	require.NoError(t, os.WriteFile(config, []byte("levels:\n  zstd: 3\n"), 0o644))

	_, err := execute(t, "--config", config, "-v", src, ".npy.zst")
	require.NoError(t, err)

	_, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), src, ".npz")
	assert.Error(t, err)
}

func TestInvalidArguments(t *testing.T) {
	_, err := execute(t, "data.npy", ".csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid extension ".csv"`)

	_, err = execute(t, "data.npy")
	assert.Error(t, err)

	_, err = execute(t, filepath.Join(t.TempDir(), "missing.npy"), ".txt")
	assert.Error(t, err)
}

func TestExtensionsCommand(t *testing.T) {
	out, err := execute(t, "extensions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# array\n.npy\n.npz\n.txt\n"))
	assert.Contains(t, out, "\n\n# sparse\n.mtx\n.rua\n")
	for _, ext := range all.Extensions() {
		assert.Contains(t, out, ext+"\n")
	}
}

func TestCompleteArgs(t *testing.T) {
	got, directive := completeArgs(rootCmd, nil, "")
	assert.Empty(t, got)
	assert.Equal(t, cobra.ShellCompDirectiveDefault, directive)

	got, directive = completeArgs(rootCmd, []string{"data.npy"}, ".")
	assert.Equal(t, all.Extensions(), got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}
