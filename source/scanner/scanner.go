// Package scanner enumerates source documents under configured roots.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Config controls document discovery.
type Config struct {
	// Roots are directories (or glob patterns) to scan.
	Roots []string `yaml:"roots"`

	// Exclude are doublestar patterns matched against paths relative to
	// each root (e.g. "**/drafts/**", "*.tmp.md").
	Exclude []string `yaml:"exclude"`

	// Extensions lists recognized file extensions. Empty means ".md".
	Extensions []string `yaml:"extensions"`
}

// DefaultConfig returns scanner defaults.
func DefaultConfig() Config {
	return Config{
		Extensions: []string{".md"},
		Exclude:    []string{"**/.git/**", "**/node_modules/**"},
	}
}

// File is one discovered source document.
type File struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the scan root.
	RelPath string

	// Root is the resolved root the file was found under.
	Root string
}

// Scanner discovers source documents.
type Scanner struct {
	config Config
	logger *slog.Logger
}

// New creates a Scanner. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Scanner {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".md"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{config: cfg, logger: logger}
}

// Scan enumerates documents under all configured roots in deterministic
// sorted order. A missing or unreadable root is an error: the caller treats
// it as fatal.
func (s *Scanner) Scan() ([]File, error) {
	roots, err := resolveRoots(s.config.Roots)
	if err != nil {
		return nil, err
	}

	var files []File
	for _, root := range roots {
		found, err := s.scanRoot(root)
		if err != nil {
			return nil, fmt.Errorf("scan root %s: %w", root, err)
		}
		files = append(files, found...)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	s.logger.Debug("Scan complete", "roots", len(roots), "files", len(files))
	return files, nil
}

// scanRoot walks one root directory.
func (s *Scanner) scanRoot(root string) ([]File, error) {
	var files []File

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") || s.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.recognizedExtension(path) || s.excluded(rel) {
			return nil
		}

		files = append(files, File{Path: path, RelPath: rel, Root: root})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// excluded matches the relative path against configured exclude patterns.
func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.config.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		// Allow directory patterns like "**/drafts/**" to match the
		// directory itself during the walk.
		if ok, err := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); err == nil && ok {
			return true
		}
	}
	return false
}

// recognizedExtension reports whether the file has a configured extension.
func (s *Scanner) recognizedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.config.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Read loads a discovered file, verifying it is valid UTF-8.
func (s *Scanner) Read(f File) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read %s: not valid UTF-8", f.Path)
	}
	return data, nil
}

// resolveRoots expands root patterns to concrete directories. Supports
// doublestar globs; plain paths must exist and be directories.
func resolveRoots(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no scan roots configured")
	}

	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		dirs, err := resolveRoot(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", pattern, err)
		}
		for _, d := range dirs {
			if !seen[d] {
				seen[d] = true
				resolved = append(resolved, d)
			}
		}
	}

	sort.Strings(resolved)
	return resolved, nil
}

// resolveRoot expands a single root pattern.
func resolveRoot(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		return []string{abs}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var dirs []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			dirs = append(dirs, abs)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories match pattern: %s", pattern)
	}
	return dirs, nil
}
