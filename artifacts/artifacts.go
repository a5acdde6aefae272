// Package artifacts persists pipeline outputs as JSON files.
//
// Every write goes to a temp file in the destination directory, is synced,
// and is then renamed over the target, so readers see either the previous
// file or the complete new one.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"text-tagger/learner"
	"text-tagger/model"
)

// Standard artifact file names inside the output directory.
const (
	TagsFile     = "tags.json"
	FeedbackFile = "feedback.json"
	WeightsFile  = "tag_weights.json"
)

// Paths locates the artifacts of one output directory.
type Paths struct {
	Tags     string `json:"tags"`
	Feedback string `json:"feedback"`
	Weights  string `json:"weights"`
}

// In returns the standard artifact paths under dir.
func In(dir string) Paths {
	return Paths{
		Tags:     filepath.Join(dir, TagsFile),
		Feedback: filepath.Join(dir, FeedbackFile),
		Weights:  filepath.Join(dir, WeightsFile),
	}
}

// SaveTags writes generated tags.
func SaveTags(path string, tags []model.DocumentTags) error {
	if tags == nil {
		tags = []model.DocumentTags{}
	}
	return writeJSON(path, tags)
}

// LoadTags reads generated tags.
func LoadTags(path string) ([]model.DocumentTags, error) {
	var tags []model.DocumentTags
	if err := readJSON(path, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// SaveFeedback writes feedback records.
func SaveFeedback(path string, fb []model.DocumentFeedback) error {
	if fb == nil {
		fb = []model.DocumentFeedback{}
	}
	return writeJSON(path, fb)
}

// LoadFeedback reads feedback records.
func LoadFeedback(path string) ([]model.DocumentFeedback, error) {
	var fb []model.DocumentFeedback
	if err := readJSON(path, &fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// SaveWeights replaces the weight table file.
func SaveWeights(path string, table learner.Table) error {
	if table == nil {
		table = learner.Table{}
	}
	return writeJSON(path, table)
}

// LoadWeights reads a weight table. A missing file is the first cycle and
// yields an empty table without error. Keys are lower-cased on load.
func LoadWeights(path string) (learner.Table, error) {
	var raw map[string]float64
	err := readJSON(path, &raw)
	if errors.Is(err, fs.ErrNotExist) {
		return learner.Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	table := make(learner.Table, len(raw))
	for tag, w := range raw {
		table[strings.ToLower(tag)] = w
	}
	return table, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifacts: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifacts: parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	err := atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
	if err != nil {
		return fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	return nil
}

// atomicWrite writes to a temp file and renames atomically.
func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}
