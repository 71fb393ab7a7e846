// Package validation checks source and output paths before any bytes move.
package validation

import (
	"io"
	"os"
	"path/filepath"

	"github.com/encodingman/encodingman/pkg/errors"
)

// MaxFileSize is the maximum allowed source file size (1GB). Sources are
// held in memory while every candidate is scored.
const MaxFileSize = 1 * 1024 * 1024 * 1024

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// ValidateFilePath validates a path and returns its absolute form.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.CodeUnreadableSource, "empty file path")
	}

	// Check length
	if len(path) > MaxPathLength {
		return "", errors.New(errors.CodeUnreadableSource, "path too long").
			WithContext("maxLength", MaxPathLength)
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUnreadableSource, "invalid path")
	}
	return abs, nil
}

// ValidateSource checks that a source exists, is a regular file within the
// size limit and can be opened for reading.
func ValidateSource(path string) error {
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(cleanPath)
	if os.IsNotExist(err) {
		return errors.UnreadableSource(path, err)
	}
	if os.IsPermission(err) {
		return errors.Wrap(err, errors.CodePermissionDenied, "permission denied").
			WithContext("path", path)
	}
	if err != nil {
		return errors.UnreadableSource(path, err)
	}

	if info.IsDir() {
		return errors.New(errors.CodeUnreadableSource, "path is a directory, expected file").
			WithContext("path", path)
	}
	if !info.Mode().IsRegular() {
		return errors.New(errors.CodeUnreadableSource, "not a regular file").
			WithContext("path", path)
	}

	if info.Size() > MaxFileSize {
		return errors.New(errors.CodeUnreadableSource, "file exceeds maximum size").
			WithContext("size", info.Size()).
			WithContext("maxSize", MaxFileSize)
	}

	// Check readability
	file, err := os.Open(cleanPath)
	if err != nil {
		if os.IsPermission(err) {
			return errors.Wrap(err, errors.CodePermissionDenied, "permission denied").
				WithContext("path", path)
		}
		return errors.UnreadableSource(path, err)
	}
	file.Close()

	return nil
}

// ReadSource validates path and reads it through a read-only handle.
func ReadSource(path string) ([]byte, error) {
	if err := ValidateSource(path); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.Wrap(err, errors.CodePermissionDenied, "permission denied").
				WithContext("path", path)
		}
		return nil, errors.UnreadableSource(path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.UnreadableSource(path, err)
	}
	return data, nil
}

// ValidateOutputDir checks that dir exists, or can be created, and is a directory.
func ValidateOutputDir(dir string) error {
	cleanPath, err := ValidateFilePath(dir)
	if err != nil {
		return errors.UnwritableOutput(dir, err)
	}

	if err := os.MkdirAll(cleanPath, 0o755); err != nil {
		return errors.UnwritableOutput(dir, err)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return errors.UnwritableOutput(dir, err)
	}
	if !info.IsDir() {
		return errors.New(errors.CodeUnwritableOutput, "output path is not a directory").
			WithContext("path", dir)
	}
	return nil
}
