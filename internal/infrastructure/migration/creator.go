package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// File is one migration, identified by its sequence number.
type File struct {
	Version  int
	Name     string
	UpPath   string
	DownPath string
}

var (
	fileRe   = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)
	unsafeRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeName lowercases name and collapses everything else to underscores.
func SanitizeName(name string) string {
	return strings.Trim(unsafeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// List returns the migrations in dir ordered by version. A missing
// directory yields an empty list.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []File{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := map[int]*File{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := fileRe.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		v, _ := strconv.Atoi(match[1])
		f, ok := byVersion[v]
		if !ok {
			f = &File{Version: v, Name: match[2]}
			byVersion[v] = f
		}
		path := filepath.Join(dir, e.Name())
		if match[3] == "up" {
			f.UpPath = path
		} else {
			f.DownPath = path
		}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// Create writes an empty up/down pair numbered after the highest existing
// version.
func Create(dir, name string) (*File, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := List(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, clean)
	f := &File{
		Version:  next,
		Name:     clean,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}
	header := fmt.Sprintf("-- %s (%s)\n\n", clean, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(f.UpPath, []byte(header), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(f.DownPath, []byte(header), 0o644); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}
