// Package sourceset discovers the source files of a project and parses the ones
// worth analyzing.
package sourceset

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/chunklink/internal/config"
	"github.com/mvp-joe/chunklink/internal/syntax"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Patterns is a compiled list of slash-separated glob patterns.
type Patterns []compiledPattern

// CompilePatterns compiles glob patterns with '/' as separator.
func CompilePatterns(patterns []string) (Patterns, error) {
	var out Patterns
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Match reports whether relPath matches any pattern.
func (ps Patterns) Match(relPath string) bool {
	for _, cp := range ps {
		if cp.glob.Match(relPath) {
			return true
		}
	}

	// Root-level files: "**/*.ts" should also match "index.ts".
	if !strings.Contains(relPath, "/") {
		for _, cp := range ps {
			if strings.HasPrefix(cp.pattern, "**/") {
				if simplified, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && simplified.Match(relPath) {
					return true
				}
			}
		}
	}

	return false
}

// Stats are the diagnostic counts of one discovery run.
type Stats struct {
	Discovered int // files matching the include patterns
	Ignored    int // files skipped by ignore patterns
	TypeOnly   int // parsed files excluded because they only declare types
	Parsed     int // units handed to the engine
}

// Filter selects and parses the analyzable source files under a root directory.
type Filter struct {
	rootDir string
	include Patterns
	ignore  Patterns
	tests   Patterns
	parser  *syntax.Parser
}

// New creates a filter from the project paths configuration.
func New(rootDir string, paths config.PathsConfig) (*Filter, error) {
	include, err := CompilePatterns(paths.Include)
	if err != nil {
		return nil, err
	}
	ignore, err := CompilePatterns(paths.Ignore)
	if err != nil {
		return nil, err
	}
	tests, err := CompilePatterns(paths.TestFiles)
	if err != nil {
		return nil, err
	}
	return &Filter{
		rootDir: rootDir,
		include: include,
		ignore:  ignore,
		tests:   tests,
		parser:  syntax.NewParser(),
	}, nil
}

// IsTestFile reports whether a relative path is a test file under the configured policy.
func (f *Filter) IsTestFile(relPath string) bool {
	return f.tests.Match(relPath)
}

// TestMatcher returns the test-file policy as a predicate.
func (f *Filter) TestMatcher() func(string) bool {
	return f.IsTestFile
}

// ShouldIgnore checks if a relative path (file or directory) is excluded.
func (f *Filter) ShouldIgnore(relPath string) bool {
	if relPath == config.DirName || strings.HasPrefix(relPath, config.DirName+"/") {
		return true
	}
	if f.ignore.Match(relPath) {
		return true
	}
	// "node_modules" should match pattern "node_modules/**"
	return f.ignore.Match(relPath + "/**")
}

// WalkFiles calls fn with the relative slash path of every file outside ignored
// directories, in lexical order.
func (f *Filter) WalkFiles(fn func(relPath string)) error {
	err := filepath.WalkDir(f.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(f.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && f.ShouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		fn(relPath)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", f.rootDir, err)
	}
	return nil
}

// Discover walks the root and returns the relative slash paths of included files, sorted.
func (f *Filter) Discover() ([]string, Stats, error) {
	var (
		files []string
		stats Stats
	)

	err := f.WalkFiles(func(relPath string) {
		if !f.include.Match(relPath) {
			return
		}
		stats.Discovered++

		if f.ShouldIgnore(relPath) {
			stats.Ignored++
			return
		}
		files = append(files, relPath)
	})
	if err != nil {
		return nil, stats, err
	}

	sort.Strings(files)
	return files, stats, nil
}

// Load discovers and parses every included file, dropping units that only declare types.
// Units are returned in path order so that downstream output is deterministic.
func (f *Filter) Load(ctx context.Context) ([]*syntax.Unit, Stats, error) {
	files, stats, err := f.Discover()
	if err != nil {
		return nil, stats, err
	}

	units := make([]*syntax.Unit, 0, len(files))
	for _, relPath := range files {
		unit, err := f.parser.ParseFile(ctx, f.rootDir, relPath)
		if err != nil {
			return nil, stats, err
		}
		if unit.TypeOnly() {
			stats.TypeOnly++
			continue
		}
		units = append(units, unit)
	}
	stats.Parsed = len(units)

	return units, stats, nil
}
