package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// maxLineBytes bounds a single JSON Lines record.
const maxLineBytes = 16 * 1024 * 1024

var supportedExtensions = map[string]bool{
	".json":      true,
	".jsonl":     true,
	".jsonlines": true,
	".yaml":      true,
	".yml":       true,
}

// IsSupported reports whether the path's extension names a loadable
// document format.
func IsSupported(path string) bool {
	return supportedExtensions[extension(path)]
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(filepath.Base(path)))
}

// Open creates a source for a single file based on its extension.
// JSON and YAML files yield exactly one document; JSON Lines files
// yield one document per line.
func Open(path string) (Source, error) {
	ext := extension(path)
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("loader: unsupported file type %q", ext)
	}
	return &fileSource{path: path, ext: ext}, nil
}

// Files creates a source over a list of file paths. Unsupported paths
// are silently filtered unless strict is set, in which case they fail.
func Files(paths []string, strict bool) (Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		if !IsSupported(path) {
			if strict {
				return nil, fmt.Errorf("loader: unsupported file type %q", extension(path))
			}
			continue
		}
		src, err := Open(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return Multi(sources...), nil
}

// Dir creates a source over every supported file in a directory,
// optionally recursing into subdirectories.
func Dir(dir string, recursive bool) (Source, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return Files(paths, false)
}

// Glob creates a source over every supported file matching the patterns.
func Glob(patterns ...string) (Source, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("loader: bad pattern %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return Files(paths, false)
}

type fileSource struct {
	path string
	ext  string

	done    bool
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

func (s *fileSource) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s.ext {
	case ".jsonl", ".jsonlines":
		return s.nextLine()
	default:
		return s.single()
	}
}

// single reads the whole file as one JSON or YAML document.
func (s *fileSource) single() (any, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", s.path, err)
	}

	var doc any
	switch s.ext {
	case ".json":
		err = gojson.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &DecodeError{Source: s.path, Err: err}
	}
	return doc, nil
}

func (s *fileSource) nextLine() (any, error) {
	if s.scanner == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", s.path, err)
		}
		s.f = f
		s.scanner = bufio.NewScanner(f)
		s.scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	}

	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		var doc any
		if err := gojson.Unmarshal([]byte(text), &doc); err != nil {
			return nil, &DecodeError{Source: s.path, Line: s.line, Err: err}
		}
		return doc, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: scan %s: %w", s.path, err)
	}
	return nil, io.EOF
}

func (s *fileSource) Close() error {
	if s.f != nil {
		f := s.f
		s.f = nil
		return f.Close()
	}
	return nil
}
