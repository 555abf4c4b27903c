package geolib

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FsTempPrefix is a prefix of temporary files and directories which
// are created next to the target files during updates. All such
// entries are ok to be removed at any given moment in time.
const FsTempPrefix = "tmp_"

// TempDir creates a new uniquely named temporary directory next to a
// given path. It is the responsibility of the caller to remove it.
func TempDir(fs afero.Fs, path string) (string, error) {
	dir := filepath.Dir(path)

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create a directory %s: %w", dir, err)
	}

	rv, err := afero.TempDir(fs, dir, FsTempPrefix)
	if err != nil {
		return "", fmt.Errorf("cannot create a temporary directory: %w", err)
	}

	return rv, nil
}

// WriteFileAtomically writes a contents produced by callback into a
// temporary file and renames it into path. Readers of path always see
// either old or new version of the file.
func WriteFileAtomically(fs afero.Fs, path string, callback func(io.Writer) error) error {
	dir := filepath.Dir(path)

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create a directory %s: %w", dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, FsTempPrefix)
	if err != nil {
		return fmt.Errorf("cannot create a temporary file: %w", err)
	}

	tmpName := tmpFile.Name()

	defer fs.Remove(tmpName) // nolint: errcheck

	bufWriter := bufio.NewWriter(tmpFile)

	if err := callback(bufWriter); err != nil {
		tmpFile.Close()

		return err
	}

	if err := bufWriter.Flush(); err != nil {
		tmpFile.Close()

		return fmt.Errorf("cannot flush a temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("cannot close a temporary file: %w", err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("cannot rename %s to %s: %w", tmpName, path, err)
	}

	return nil
}

// CopyFile atomically copies src into dst.
func CopyFile(fs afero.Fs, src, dst string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open a file %s: %w", src, err)
	}

	defer srcFile.Close()

	return WriteFileAtomically(fs, dst, func(w io.Writer) error {
		if _, err := io.Copy(w, bufio.NewReader(srcFile)); err != nil {
			return fmt.Errorf("cannot copy %s: %w", src, err)
		}

		return nil
	})
}

// FileExists checks if a given path exists and is a regular file.
func FileExists(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)

	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	return info.Mode().IsRegular(), nil
}
