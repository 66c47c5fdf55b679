package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "windorbit/internal/errors"
	"windorbit/internal/record"
)

// Manager provides the output file operations
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager() *Manager {
	return &Manager{logger: slog.Default()}
}

// WithLogger returns a copy of m that logs to logger
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// CheckDir verifies that dir exists and is a directory
func (m *Manager) CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return apperrors.NewStorageError("output directory is not accessible", err).
			WithContext("dir", dir)
	}
	if !info.IsDir() {
		return apperrors.NewStorageError(fmt.Sprintf("%s is not a directory", dir), nil).
			WithContext("dir", dir)
	}
	return nil
}

// Exists checks if dir/filename exists
func (m *Manager) Exists(dir, filename string) bool {
	_, err := os.Stat(filepath.Join(dir, filename))
	return err == nil
}

// Write creates or truncates dir/filename and writes each line followed by a
// newline. It returns the full path written.
func (m *Manager) Write(dir, filename string, lines []string) (string, error) {
	path := filepath.Join(dir, filename)

	m.logger.Debug("Creating output file", slog.String("path", path))

	out, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create file", err).
			WithContext("path", path)
	}

	if _, err := out.Write(record.DailyRecord{Lines: lines}.Bytes()); err != nil {
		out.Close()
		return "", apperrors.NewStorageError("failed to write file content", err).
			WithContext("path", path)
	}
	if err := out.Close(); err != nil {
		return "", apperrors.NewStorageError("failed to close file", err).
			WithContext("path", path)
	}

	m.logger.Info("File written",
		slog.String("file", filename),
		slog.Int("lines", len(lines)))

	return path, nil
}
