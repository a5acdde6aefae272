package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"text-tagger/config"
	"text-tagger/documents"
	"text-tagger/feedback"
	"text-tagger/learner"
	"text-tagger/model"
	"text-tagger/pipeline"
	"text-tagger/scraper"
	"text-tagger/storage"
	"text-tagger/tagger"
	"text-tagger/textclean"
)

// Settings keys written after each full cycle.
const (
	settingLastRunAt     = "last_run_at"
	settingLastRunStatus = "last_run_status"
)

// app holds the wired components for one command invocation.
type app struct {
	runner *pipeline.Runner
	store  *storage.Store // nil when db_path is empty
	rules  learner.Rules
}

func newApp(c config.Config) (*app, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, fmt.Errorf("learning tiers: %w", err)
	}

	var cleaner *textclean.Cleaner
	stopwords := textclean.WithStopwords(c.Stopwords...)
	if c.Lemmatize {
		cleaner, err = textclean.NewEnglish(stopwords)
		if err != nil {
			return nil, fmt.Errorf("init lemmatizer: %w", err)
		}
	} else {
		cleaner = textclean.New(stopwords)
	}

	a := &app{rules: rules}

	var history pipeline.History
	if c.DBPath != "" {
		store, err := storage.New(c.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Debug("storage initialized", "db_path", c.DBPath)
		a.store = store
		history = &historyAdapter{store: store}
	}

	a.runner = pipeline.NewRunner(
		documents.Load,
		scraper.NewScraper(c.FetchTimeout()),
		tagger.New(cleaner, c.TopK, c.MaxFeatures),
		feedback.NewSimulator(c.Evaluator(), cleaner.Clean, c.Workers),
		history,
		runnerConfig(c, rules),
	)
	return a, nil
}

func runnerConfig(c config.Config, rules learner.Rules) pipeline.Config {
	return pipeline.Config{
		DocumentsDir: c.DocumentsDir,
		Sources:      c.Sources,
		OutputDir:    c.OutputDir,
		Rules:        rules,
	}
}

// reload re-reads the config file and applies the runner settings:
// documents_dir, sources, output_dir and learning_tiers. Tagging and
// scoring parameters take effect on the next start.
func (a *app) reload(path string) (config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	rules, err := c.Rules()
	if err != nil {
		return config.Config{}, fmt.Errorf("learning tiers: %w", err)
	}
	a.rules = rules
	a.runner.UpdateConfig(runnerConfig(withURLs(c), rules))
	return c, nil
}

// recordLastRun stores the outcome of a full cycle in the settings table.
func (a *app) recordLastRun(res pipeline.Result) {
	if a.store == nil {
		return
	}
	if err := a.store.SetSetting(settingLastRunAt, strconv.FormatInt(res.StartedAt.Unix(), 10)); err != nil {
		slog.Error("failed to save setting", "key", settingLastRunAt, "error", err)
	}
	if err := a.store.SetSetting(settingLastRunStatus, res.Status); err != nil {
		slog.Error("failed to save setting", "key", settingLastRunStatus, "error", err)
	}
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// --- Adapters to bridge package types ---

// historyAdapter bridges storage.Store to pipeline.History
type historyAdapter struct {
	store *storage.Store
}

func (h *historyAdapter) SaveRun(rec *pipeline.RunRecord) (int64, error) {
	return h.store.SaveRun(&storage.Run{
		StartedAt:    rec.StartedAt.Unix(),
		DurationMs:   rec.Duration.Milliseconds(),
		Status:       rec.Status,
		Error:        rec.Error,
		Documents:    rec.Documents,
		Tags:         rec.Tags,
		ApprovalRate: rec.ApprovalRate,
		Learned:      rec.Learned,
		Boosted:      rec.Boosted,
		Penalized:    rec.Penalized,
	})
}

func (h *historyAdapter) SaveFeedback(runID int64, docs []model.DocumentFeedback) error {
	return h.store.SaveFeedback(runID, docs)
}

func (h *historyAdapter) ReplaceTagWeights(table learner.Table, rates learner.Rates) error {
	return h.store.ReplaceTagWeights(table, rates)
}

func (h *historyAdapter) GetWeightTable() (learner.Table, error) {
	return h.store.GetWeightTable()
}
