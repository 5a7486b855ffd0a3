package frontend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/dusk-indust/xref/internal/symtab"
)

// Language identifies a source language with a declaration stream producer.
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
)

// Frontend turns one source file into a declaration stream. The engine never
// sees source text; producers are the boundary collaborators that do.
type Frontend interface {
	// Produce parses source and emits the file's declaration events.
	Produce(ctx context.Context, path string, source []byte) (symtab.DeclarationStream, error)

	// Language returns the language this front-end handles.
	Language() Language
}

// extToLanguage maps file extensions to languages.
var extToLanguage = map[string]Language{
	".py":  LangPython,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".go":  LangGo,
}

// Defaults returns the built-in producers keyed by language.
func Defaults() map[Language]Frontend {
	return map[Language]Frontend{
		LangPython:     NewPythonFrontend(),
		LangTypeScript: NewTypeScriptFrontend(),
		LangGo:         NewGoFrontend(),
	}
}

// WalkRepo walks root and produces one declaration stream per supported
// source file, in lexical path order. Directories named .git and any path
// matching an exclude glob are skipped. A file whose producer fails still
// yields a stream, carrying the parse error so the engine records it instead
// of aborting the run.
func WalkRepo(ctx context.Context, root string, excludes []string, fronts map[Language]Frontend) ([]symtab.DeclarationStream, error) {
	var streams []symtab.DeclarationStream

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relSlash := filepath.ToSlash(relPath)

		if d.IsDir() {
			if d.Name() == ".git" || matchesAny(excludes, relSlash) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(excludes, relSlash) {
			return nil
		}

		lang, ok := extToLanguage[filepath.Ext(path)]
		if !ok {
			return nil
		}
		front, ok := fronts[lang]
		if !ok {
			return nil
		}

		source, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil // skip unreadable files
		}

		stream, prodErr := front.Produce(ctx, relSlash, source)
		if prodErr != nil {
			stream = symtab.DeclarationStream{
				FilePath:   relSlash,
				ModulePath: ModulePathFor(relSlash),
				ParseError: prodErr.Error(),
			}
		}
		stream.Digest = xxhash.Sum64(source)
		streams = append(streams, stream)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("frontend: walk %s: %w", root, walkErr)
	}

	return streams, nil
}

// matchesAny reports whether a slash-separated relative path matches any of
// the doublestar glob patterns.
func matchesAny(patterns []string, relSlash string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relSlash); err == nil && ok {
			return true
		}
	}
	return false
}

// ModulePathFor derives a dotted module path from a repo-relative file path:
// "pkg/mod.py" becomes "pkg.mod", package markers ("__init__.py", "index.ts")
// collapse to their directory. A marker at the repo root has no directory to
// collapse into and maps to "root" so the module keeps a usable name.
func ModulePathFor(relSlash string) string {
	p := strings.TrimSuffix(relSlash, filepath.Ext(relSlash))
	for _, marker := range []string{"/__init__", "/index"} {
		p = strings.TrimSuffix(p, marker)
	}
	if p == "__init__" || p == "index" {
		return "root"
	}
	return strings.ReplaceAll(p, "/", ".")
}
