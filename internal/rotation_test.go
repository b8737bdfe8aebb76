package internal

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	file, size, err := OpenAppend(path)
	require.NoError(t, err)
	assert.Zero(t, size)
	_, err = file.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	file, size, err = OpenAppend(path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)
	require.NoError(t, file.Close())
}

func TestNeedsRotation(t *testing.T) {
	assert.False(t, NeedsRotation(100, 100, 0), "0 disables rotation")
	assert.False(t, NeedsRotation(50, 50, 100))
	assert.True(t, NeedsRotation(50, 51, 100))
	assert.True(t, NeedsRotation(200, 1, 100))
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "app.log.1", BackupPath("app.log", 1, false))
	assert.Equal(t, "app.log.12.gz", BackupPath("app.log", 12, true))
}

func TestBackupIndex(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"app.log.1", 1},
		{"app.log.12", 12},
		{"app.log.3.gz", 3},
		{"app.log", -1},
		{"app.log.abc", -1},
		{"app.log.0", -1},
		{"app.log.-2", -1},
		{"other.log.1", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backupIndex(tt.name, "app.log"), tt.name)
	}
}

func TestNextBackupIndex(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.log")

	assert.Equal(t, 1, NextBackupIndex(base))

	require.NoError(t, os.WriteFile(base+".1", []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(base+".3.gz", []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("c"), 0o600))

	assert.Equal(t, 4, NextBackupIndex(base))
}

func TestPruneBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.log")
	for _, suffix := range []string{".1", ".2", ".3.gz", ".4"} {
		require.NoError(t, os.WriteFile(base+suffix, []byte("x"), 0o600))
	}

	PruneBackups(base, 2)

	_, err := os.Stat(base + ".1")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(base + ".2")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(base + ".3.gz")
	assert.NoError(t, err)
	_, err = os.Stat(base + ".4")
	assert.NoError(t, err)
}

func TestPruneBackups_Disabled(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(base+".1", []byte("x"), 0o600))

	PruneBackups(base, 0)

	_, err := os.Stat(base + ".1")
	assert.NoError(t, err)
}

func TestCompressFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log.1")
	content := []byte("some rotated log content\nwith two lines\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	require.NoError(t, CompressFile(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "original should be removed")

	f, err := os.Open(path + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gr.Close()
	got, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestCompressFile_MissingSource(t *testing.T) {
	assert.Error(t, CompressFile(filepath.Join(t.TempDir(), "nope.log")))
}
