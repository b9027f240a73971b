package storage

import (
	"errors"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"

	"ocsf-standard-creator/internal/apperrors"
)

// SourceExists reports whether a raw schema for eventName is on disk.
func (l Layout) SourceExists(eventName string) (bool, error) {
	path, err := l.SourcePath(eventName)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.New(apperrors.CodeFilesystem, "stat source", err).WithPath(path)
	}
	return info.Mode().IsRegular(), nil
}

// WriteSource stores the raw schema for eventName verbatim, replacing any
// previous copy.
func (l Layout) WriteSource(eventName string, data []byte) (string, error) {
	path, err := l.SourcePath(eventName)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return path, err
	}
	return path, nil
}

// WriteOutput stores the default document for eventName, replacing any
// previous output.
func (l Layout) WriteOutput(eventName string, data []byte) (string, error) {
	path, err := l.OutputPath(eventName)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return path, err
	}
	return path, nil
}

// writeFileAtomic replaces path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return apperrors.New(apperrors.CodeFilesystem, "write file", err).WithPath(path)
	}
	return nil
}
