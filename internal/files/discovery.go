package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"windorbit/internal/record"
)

// FileInfo represents information about a discovered daily file
type FileInfo struct {
	Path    string
	Name    string
	Day     time.Time
	Size    int64
	ModTime time.Time
}

// Discovery finds daily orbit files in an output directory
type Discovery struct{}

// NewDiscovery creates a new file discovery instance
func NewDiscovery() *Discovery {
	return &Discovery{}
}

// FindDailyFiles returns the daily files in dir, oldest day first. Files
// whose names don't follow the daily naming scheme are ignored.
func (d *Discovery) FindDailyFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		day, ok := record.ParseFilename(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Day:     day,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Day.Before(files[j].Day)
	})

	return files, nil
}

// CountInRange counts files whose day falls within [from, to]
func CountInRange(files []FileInfo, from, to time.Time) int {
	n := 0
	for _, f := range files {
		if !f.Day.Before(from) && !f.Day.After(to) {
			n++
		}
	}
	return n
}

// LatestDay returns the most recent day among files
func LatestDay(files []FileInfo) (time.Time, bool) {
	if len(files) == 0 {
		return time.Time{}, false
	}
	latest := files[0].Day
	for _, f := range files[1:] {
		if f.Day.After(latest) {
			latest = f.Day
		}
	}
	return latest, true
}
