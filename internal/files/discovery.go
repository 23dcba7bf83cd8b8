package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Office writes lock files named "~$<workbook>" next to open workbooks
const lockFilePrefix = "~$"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds input tables on disk
type Discovery struct {
	extensions map[string]bool
}

// NewDiscovery creates a discovery accepting the given extensions (with
// leading dot, any case)
func NewDiscovery(extensions []string) *Discovery {
	d := &Discovery{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		d.extensions[strings.ToLower(ext)] = true
	}
	return d
}

// Accepts reports whether name is an input table this discovery picks up
func (d *Discovery) Accepts(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, lockFilePrefix) || strings.HasPrefix(base, ".") {
		return false
	}
	return d.extensions[strings.ToLower(filepath.Ext(base))]
}

// FindTables lists the accepted files directly inside dir, sorted by name
func (d *Discovery) FindTables(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.Accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Resolve expands inputs into table paths. Directories are searched with
// FindTables, plain files are kept in the order given. Paths in exclude
// (the benchmark and the output file) are dropped from the result.
func (d *Discovery) Resolve(inputs []string, exclude ...string) ([]string, error) {
	skip := newPathSet(exclude)

	var paths []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if !info.IsDir() {
			if !skip.has(input) {
				paths = append(paths, input)
			}
			continue
		}

		found, err := d.FindTables(input)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !skip.has(f.Path) {
				paths = append(paths, f.Path)
			}
		}
	}
	return paths, nil
}

// pathSet matches paths by their absolute, cleaned form
type pathSet map[string]struct{}

func newPathSet(paths []string) pathSet {
	set := make(pathSet, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = struct{}{}
		}
	}
	return set
}

func (s pathSet) has(path string) bool {
	if len(s) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := s[abs]
	return ok
}
