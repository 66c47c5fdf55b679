package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the application paths derived from the executable location
type Paths struct {
	ExecutableDir string
	LogsDir       string
	ConfigFile    string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return newPaths(filepath.Dir(exe)), nil
}

func newPaths(exeDir string) *Paths {
	return &Paths{
		ExecutableDir: exeDir,
		LogsDir:       filepath.Join(exeDir, "logs"),
		ConfigFile:    filepath.Join(exeDir, ConfigFileName),
	}
}

// EnsureDirectories creates the log directory if it doesn't exist.
// The output directory is never created here: a missing output directory is
// reported to the user instead.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.LogsDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.LogsDir, err)
	}
	slog.Debug("Ensured directory exists", slog.String("directory", p.LogsDir))
	return nil
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FindConfigFile returns the first existing config file among the working
// directory and the executable directory, or "" if there is none
func (p *Paths) FindConfigFile() string {
	for _, candidate := range []string{ConfigFileName, p.ConfigFile} {
		if FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
