package scenario

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Find walks dir and returns the scenario files whose slash-separated path
// relative to dir matches filter, in lexical order. An empty filter
// matches every file. Files and directories whose names start with "_" or
// "." are skipped.
func Find(dir, filter string) ([]string, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, loadError(ErrCodeBadFilter, dir, nil, "invalid filter %q", filter)
	}

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, loadError(ErrCodeNotFound, dir, err, "scenario directory not found")
	}
	if err != nil {
		return nil, loadError(ErrCodeNotFound, dir, err, "error accessing scenario directory: %v", err)
	}
	if !info.IsDir() {
		return nil, loadError(ErrCodeNotFound, dir, nil, "not a directory")
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if filter != "" {
			matched, err := doublestar.Match(filter, filepath.ToSlash(rel))
			if err != nil || !matched {
				return err
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, loadError(ErrCodeScanError, dir, err, "error scanning directory: %v", err)
	}

	slices.Sort(files)
	return files, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

// ModuleNames maps scenario file names under dir to dotted module names
// rooted at pkg: "dir/extend_<hex>.yaml" becomes "pkg.extend_<hex>". Files
// whose names start with "_" and unsupported extensions are dropped.
func ModuleNames(files []string, pkg, dir string) []string {
	names := []string{}
	for _, file := range files {
		if hidden(filepath.Base(file)) || !Supported(file) {
			continue
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(file)
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		names = append(names, pkg+"."+strings.ReplaceAll(filepath.ToSlash(rel), "/", "."))
	}
	slices.Sort(names)
	return slices.Compact(names)
}
