package mcp

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/chunklink/internal/sourceset"
)

// CodeFiles answers file questions about the project tree. Ignored directories are skipped.
type CodeFiles struct {
	rootDir    string
	filter     *sourceset.Filter
	extensions map[string]bool
}

// NewCodeFiles creates a file lister for the given extensions (".tsx", ".css", ...).
func NewCodeFiles(rootDir string, filter *sourceset.Filter, extensions []string) *CodeFiles {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &CodeFiles{rootDir: rootDir, filter: filter, extensions: exts}
}

// List returns the base names of files with a listed extension, sorted. Files with the
// same name in different directories appear once per file.
func (c *CodeFiles) List() ([]string, error) {
	names := []string{}
	err := c.filter.WalkFiles(func(relPath string) {
		if c.extensions[strings.ToLower(path.Ext(relPath))] {
			names = append(names, path.Base(relPath))
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Find returns the relative path of the first file, in path order, whose base name is filename.
func (c *CodeFiles) Find(filename string) (string, bool, error) {
	var found string
	err := c.filter.WalkFiles(func(relPath string) {
		if found == "" && path.Base(relPath) == filename {
			found = relPath
		}
	})
	if err != nil {
		return "", false, err
	}
	return found, found != "", nil
}

// Contents returns the trimmed contents of the file named filename.
func (c *CodeFiles) Contents(filename string) (string, error) {
	relPath, ok, err := c.Find(filename)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("file %s not found", filename)
	}

	data, err := os.ReadFile(filepath.Join(c.rootDir, filepath.FromSlash(relPath)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	return strings.TrimSpace(string(data)), nil
}
