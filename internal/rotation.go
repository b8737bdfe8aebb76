// Package internal holds the file rotation helpers shared by the lumber
// file device.
package internal

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FilePermissions is the mode for created log files (rw-------).
const FilePermissions = 0o600

// OpenAppend opens (creating if needed) a log file for appending and
// returns it with its current size.
func OpenAppend(path string) (*os.File, int64, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, FilePermissions)
	if err != nil {
		return nil, 0, fmt.Errorf("open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat file: %w", err)
	}
	return file, info.Size(), nil
}

// NeedsRotation reports whether appending writeSize bytes would push the
// file past maxSize. A maxSize of 0 disables rotation.
func NeedsRotation(currentSize, writeSize, maxSize int64) bool {
	return maxSize > 0 && currentSize+writeSize > maxSize
}

// BackupPath returns the path of the index-th backup of basePath:
// app.log -> app.log.3 (or app.log.3.gz when compressed).
func BackupPath(basePath string, index int, compress bool) string {
	p := basePath + "." + strconv.Itoa(index)
	if compress {
		p += ".gz"
	}
	return p
}

// backupIndex parses the backup index out of a directory entry name, or
// returns -1 when the name is not a backup of base.
func backupIndex(name, base string) int {
	rest, ok := strings.CutPrefix(name, base+".")
	if !ok {
		return -1
	}
	rest = strings.TrimSuffix(rest, ".gz")
	index, err := strconv.Atoi(rest)
	if err != nil || index < 1 {
		return -1
	}
	return index
}

// NextBackupIndex returns one past the highest existing backup index for
// basePath, starting at 1.
func NextBackupIndex(basePath string) int {
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	maxIndex := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if index := backupIndex(entry.Name(), base); index > maxIndex {
			maxIndex = index
		}
	}
	return maxIndex + 1
}

// PruneBackups removes the oldest (lowest-index) backups of basePath so at
// most maxBackups remain. Removal errors are ignored; pruning is cleanup
// and must not affect logging.
func PruneBackups(basePath string, maxBackups int) {
	if maxBackups <= 0 {
		return
	}
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type backup struct {
		name  string
		index int
	}
	backups := make([]backup, 0, 16)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if index := backupIndex(entry.Name(), base); index > 0 {
			backups = append(backups, backup{name: entry.Name(), index: index})
		}
	}

	excess := len(backups) - maxBackups
	if excess <= 0 {
		return
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].index < backups[j].index
	})
	for i := 0; i < excess; i++ {
		_ = os.Remove(filepath.Join(dir, backups[i].name))
	}
}

// CompressFile gzips path into path.gz and removes the original. The
// compressed file is written to a temp name first and verified before it
// replaces anything.
func CompressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	tmpPath := path + ".gz.tmp"
	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePermissions)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy data: %w", err)
	}
	if err := gw.Close(); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("gzip close: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}

	if err := verifyGzip(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("verify: %w", err)
	}

	finalPath := path + ".gz"
	_ = os.Remove(finalPath)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return os.Remove(path)
}

func verifyGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	if _, err := io.Copy(io.Discard, gr); err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return nil
}
