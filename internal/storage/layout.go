// Package storage manages the on-disk layout of fetched schemas and
// generated default documents.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"ocsf-standard-creator/internal/apperrors"
)

const (
	DefaultSourceDir = "base_standards"
	DefaultOutputDir = "standards"
)

// Layout names the directory of raw schemas and the directory of derived
// default documents. Both hold one <event>.json file per event class.
type Layout struct {
	SourceDir string
	OutputDir string
}

// DefaultLayout returns the layout relative to the working directory.
func DefaultLayout() Layout {
	return Layout{SourceDir: DefaultSourceDir, OutputDir: DefaultOutputDir}
}

// Ensure creates both directories if missing. Existing directories are left
// untouched; a non-directory at either path is a FILESYSTEM error.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.SourceDir, l.OutputDir} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return apperrors.Newf(apperrors.CodeConfig, "ensure directory", "empty directory path")
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return apperrors.Newf(apperrors.CodeFilesystem, "ensure directory", "path exists and is not a directory").WithPath(dir)
	case !errors.Is(err, fs.ErrNotExist):
		return apperrors.New(apperrors.CodeFilesystem, "ensure directory", err).WithPath(dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.New(apperrors.CodeFilesystem, "create directory", err).WithPath(dir)
	}
	log.Debug().Str("dir", dir).Msg("Directory created")
	return nil
}

// SourcePath returns the raw schema path for eventName.
func (l Layout) SourcePath(eventName string) (string, error) {
	if err := ValidateEventName(eventName); err != nil {
		return "", err
	}
	return filepath.Join(l.SourceDir, eventName+".json"), nil
}

// OutputPath returns the default document path for eventName.
func (l Layout) OutputPath(eventName string) (string, error) {
	if err := ValidateEventName(eventName); err != nil {
		return "", err
	}
	return filepath.Join(l.OutputDir, eventName+".json"), nil
}

// ValidateEventName rejects names that cannot be used as a single file name.
func ValidateEventName(name string) error {
	switch {
	case name == "":
		return apperrors.Newf(apperrors.CodeConfig, "validate event name", "event name is empty")
	case name == "." || name == "..":
		return apperrors.Newf(apperrors.CodeConfig, "validate event name", fmt.Sprintf("invalid event name %q", name))
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return apperrors.Newf(apperrors.CodeConfig, "validate event name", fmt.Sprintf("event name %q contains a path separator", name))
	}
	return nil
}
