// Package documents loads the corpus to be tagged from a folder.
package documents

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"text-tagger/model"
	"text-tagger/scraper"
)

// ErrNotDirectory is returned when the documents path is not a directory.
var ErrNotDirectory = errors.New("documents path is not a directory")

// textExtensions are read verbatim; htmlExtensions go through readability.
var (
	textExtensions = map[string]bool{".txt": true, ".md": true, ".markdown": true}
	htmlExtensions = map[string]bool{".html": true, ".htm": true}
)

// Supported reports whether a file name has a loadable extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return textExtensions[ext] || htmlExtensions[ext]
}

// Load reads every supported file directly under dir, in name order.
// Files that cannot be read are logged and skipped.
func Load(dir string) ([]model.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("documents: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents: %s: %w", dir, ErrNotDirectory)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("documents: read dir %s: %w", dir, err)
	}

	var docs []model.Document
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		content, err := readFile(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("could not read document", "filename", e.Name(), "error", err)
			continue
		}
		docs = append(docs, model.Document{Filename: e.Name(), Content: content})
	}

	slog.Info("documents loaded", "dir", dir, "count", len(docs))
	return docs, nil
}

// Texts indexes documents by filename.
func Texts(docs []model.Document) map[string]string {
	texts := make(map[string]string, len(docs))
	for _, d := range docs {
		texts[d.Filename] = d.Content
	}
	return texts
}

func readFile(path string) (string, error) {
	if htmlExtensions[strings.ToLower(filepath.Ext(path))] {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return scraper.Extract(f, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
