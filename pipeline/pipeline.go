// Package pipeline runs the tag → feedback → learn cycle end to end.
//
// Each cycle reads the weight table written by the previous one as a
// snapshot, tags the corpus with it, scores the tags against the documents,
// and replaces the table with weights learned from that feedback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"text-tagger/artifacts"
	"text-tagger/documents"
	"text-tagger/feedback"
	"text-tagger/learner"
	"text-tagger/model"
	"text-tagger/tagger"
)

// ErrNoDocuments is returned when neither the documents directory nor any
// URL source produced a document.
var ErrNoDocuments = errors.New("no documents to process")

// Result.Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DocumentLoader reads every document in a directory.
type DocumentLoader func(dir string) ([]model.Document, error)

// PageScraper fetches a URL as a document.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (model.Document, error)
}

// Generator produces weighted tags for a corpus.
type Generator interface {
	Generate(docs []model.Document, weights learner.Table) []model.DocumentTags
}

// FeedbackSimulator scores generated tags against their documents.
type FeedbackSimulator interface {
	Run(ctx context.Context, tags []model.DocumentTags, texts map[string]string) ([]model.DocumentFeedback, error)
}

// History records completed cycles. It mirrors the JSON artifacts and
// stands in for the weights file when that is missing or corrupt; a failing
// History never fails a cycle.
type History interface {
	SaveRun(rec *RunRecord) (int64, error)
	SaveFeedback(runID int64, docs []model.DocumentFeedback) error
	ReplaceTagWeights(table learner.Table, rates learner.Rates) error
	GetWeightTable() (learner.Table, error)
}

// RunRecord is the history entry for one cycle.
type RunRecord struct {
	StartedAt    time.Time
	Duration     time.Duration
	Status       string
	Error        string
	Documents    int
	Tags         int
	ApprovalRate float64
	Learned      int
	Boosted      int
	Penalized    int
}

// Config holds pipeline configuration.
type Config struct {
	DocumentsDir string
	Sources      []string
	OutputDir    string
	Rules        learner.Rules
	TopWeights   int // entries in the learning summary
}

// Result reports the outcome of a full cycle.
type Result struct {
	Status       string
	Error        string
	RunID        int64
	StartedAt    time.Time
	Duration     time.Duration
	Documents    int
	Tags         int
	ApprovalRate float64 // percent
	Learned      int
	Boosted      int
	Penalized    int
	Outputs      artifacts.Paths
	Feedback     feedback.Summary
	Learning     learner.Summary
}

// Runner orchestrates the tagging cycle.
type Runner struct {
	load      DocumentLoader
	scraper   PageScraper
	generator Generator
	simulator FeedbackSimulator
	history   History
	config    Config
}

// NewRunner creates a Runner. scraper may be nil when no URL sources are
// configured; history may be nil to keep only the JSON artifacts.
func NewRunner(load DocumentLoader, scraper PageScraper, generator Generator, simulator FeedbackSimulator, history History, cfg Config) *Runner {
	if cfg.TopWeights <= 0 {
		cfg.TopWeights = 5
	}
	return &Runner{
		load:      load,
		scraper:   scraper,
		generator: generator,
		simulator: simulator,
		history:   history,
		config:    cfg,
	}
}

// UpdateConfig updates the pipeline configuration.
func (r *Runner) UpdateConfig(cfg Config) {
	if cfg.TopWeights <= 0 {
		cfg.TopWeights = 5
	}
	r.config = cfg
}

// Paths returns the artifact locations for the configured output directory.
func (r *Runner) Paths() artifacts.Paths {
	return artifacts.In(r.config.OutputDir)
}

// Run executes a complete cycle. On failure the returned Result carries
// StatusError and the same error is returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{StartedAt: start, Outputs: r.Paths()}
	slog.Info("pipeline cycle starting", "documents_dir", r.config.DocumentsDir, "sources", len(r.config.Sources))

	out, err := r.cycle(ctx, &res)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		slog.Error("pipeline cycle failed", "error", err, "duration", res.Duration)
	} else {
		res.Status = StatusSuccess
		slog.Info("pipeline cycle complete",
			"documents", res.Documents,
			"tags", res.Tags,
			"approval_rate", res.ApprovalRate,
			"learned", res.Learned,
			"duration", res.Duration,
		)
	}

	r.record(&res, out)
	return res, err
}

type cycleOutput struct {
	feedback []model.DocumentFeedback
	table    learner.Table
	rates    learner.Rates
}

func (r *Runner) cycle(ctx context.Context, res *Result) (*cycleOutput, error) {
	docs, err := r.Documents(ctx)
	if err != nil {
		return nil, err
	}
	res.Documents = len(docs)

	tags, err := r.tag(docs)
	if err != nil {
		return nil, err
	}
	res.Tags = tagger.Count(tags)

	results, err := r.evaluate(ctx, tags, docs)
	if err != nil {
		return nil, err
	}
	res.Feedback = feedback.Summarize(results)
	res.ApprovalRate = res.Feedback.ApprovalPercent()

	table, rates, err := r.learn(results)
	if err != nil {
		return nil, err
	}
	res.Learning = learner.Summarize(table, r.config.Rules, r.config.TopWeights)
	res.Learned = len(table)
	res.Boosted = table.Boosted()
	res.Penalized = table.Penalized()

	return &cycleOutput{feedback: results, table: table, rates: rates}, nil
}

// Generate loads the corpus and writes tags.json using the current weight
// table.
func (r *Runner) Generate(ctx context.Context) ([]model.DocumentTags, error) {
	docs, err := r.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return r.tag(docs)
}

// Feedback scores the tags in tags.json against the corpus and writes
// feedback.json.
func (r *Runner) Feedback(ctx context.Context) ([]model.DocumentFeedback, error) {
	tags := loadOrEmpty("tags", r.Paths().Tags, artifacts.LoadTags)
	if len(tags) == 0 {
		slog.Warn("no generated tags to evaluate", "path", r.Paths().Tags)
	}
	docs, err := r.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return r.evaluate(ctx, tags, docs)
}

// Learn derives a new weight table from feedback.json and writes
// tag_weights.json.
func (r *Runner) Learn() (learner.Table, error) {
	results := loadOrEmpty("feedback", r.Paths().Feedback, artifacts.LoadFeedback)
	table, rates, err := r.learn(results)
	if err != nil {
		return nil, err
	}
	if r.history != nil {
		if err := r.history.ReplaceTagWeights(table, rates); err != nil {
			slog.Error("failed to store tag weights", "error", err)
		}
	}
	return table, nil
}

// Weights returns the current weight table snapshot. When the weights file
// is missing or unreadable the table stored in History is used; without
// either the table is empty.
func (r *Runner) Weights() learner.Table {
	path := r.Paths().Weights
	table, err := artifacts.LoadWeights(path)
	if err != nil {
		slog.Warn("could not load tag weights", "path", path, "error", err)
	} else if _, statErr := os.Stat(path); statErr == nil {
		return table
	}

	if r.history != nil {
		stored, err := r.history.GetWeightTable()
		if err != nil {
			slog.Warn("could not load tag weights from history", "error", err)
		} else if len(stored) > 0 {
			slog.Info("using tag weights from history", "tags", len(stored))
			return stored
		}
	}
	return learner.Table{}
}

// Documents loads the documents directory and fetches every URL source.
// Unreadable sources are logged and skipped.
func (r *Runner) Documents(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document

	if r.config.DocumentsDir != "" {
		loaded, err := r.load(r.config.DocumentsDir)
		if err != nil {
			slog.Warn("could not load documents directory", "dir", r.config.DocumentsDir, "error", err)
		}
		docs = append(docs, loaded...)
	}

	for _, src := range r.config.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.scraper == nil {
			slog.Warn("no scraper configured, skipping source", "url", src)
			continue
		}
		doc, err := r.scraper.Scrape(ctx, src)
		if err != nil {
			slog.Warn("failed to fetch source, skipping", "url", src, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}

func (r *Runner) tag(docs []model.Document) ([]model.DocumentTags, error) {
	weights := r.Weights()
	slog.Info("generating tags", "documents", len(docs), "learned_weights", len(weights))

	tags := r.generator.Generate(docs, weights)
	if err := artifacts.SaveTags(r.Paths().Tags, tags); err != nil {
		return nil, fmt.Errorf("saving tags: %w", err)
	}
	return tags, nil
}

func (r *Runner) evaluate(ctx context.Context, tags []model.DocumentTags, docs []model.Document) ([]model.DocumentFeedback, error) {
	results, err := r.simulator.Run(ctx, tags, documents.Texts(docs))
	if err != nil {
		return nil, fmt.Errorf("simulating feedback: %w", err)
	}
	if err := artifacts.SaveFeedback(r.Paths().Feedback, results); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}

	s := feedback.Summarize(results)
	slog.Info("feedback simulated", "documents", s.Documents, "approved", s.Approved, "rejected", s.Rejected)
	return results, nil
}

func (r *Runner) learn(results []model.DocumentFeedback) (learner.Table, learner.Rates, error) {
	rates := learner.ComputeRates(results)
	table := learner.DeriveWeights(rates, r.config.Rules)
	if err := artifacts.SaveWeights(r.Paths().Weights, table); err != nil {
		return nil, nil, fmt.Errorf("saving tag weights: %w", err)
	}
	slog.Info("tag weights learned", "tags", len(table), "boosted", table.Boosted(), "penalized", table.Penalized())
	return table, rates, nil
}

// record stores the run row and, for a successful cycle, its feedback and
// the new weight table.
func (r *Runner) record(res *Result, out *cycleOutput) {
	if r.history == nil {
		return
	}

	runID, err := r.history.SaveRun(&RunRecord{
		StartedAt:    res.StartedAt,
		Duration:     res.Duration,
		Status:       res.Status,
		Error:        res.Error,
		Documents:    res.Documents,
		Tags:         res.Tags,
		ApprovalRate: res.ApprovalRate,
		Learned:      res.Learned,
		Boosted:      res.Boosted,
		Penalized:    res.Penalized,
	})
	if err != nil {
		slog.Error("failed to save run", "error", err)
		return
	}
	res.RunID = runID

	if out == nil {
		return
	}
	if err := r.history.SaveFeedback(runID, out.feedback); err != nil {
		slog.Error("failed to save feedback history", "run_id", runID, "error", err)
	}
	if err := r.history.ReplaceTagWeights(out.table, out.rates); err != nil {
		slog.Error("failed to store tag weights", "run_id", runID, "error", err)
	}
}

func loadOrEmpty[T any](what, path string, load func(string) ([]T, error)) []T {
	items, err := load(path)
	if err != nil {
		slog.Warn("could not load "+what+", continuing with none", "path", path, "error", err)
		return nil
	}
	return items
}
