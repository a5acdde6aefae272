package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"text-tagger/artifacts"
	"text-tagger/feedback"
	"text-tagger/learner"
	"text-tagger/model"
	"text-tagger/tagger"
	"text-tagger/textclean"
)

// --- Mock implementations ---

type mockLoader struct {
	docs []model.Document
	err  error
	dirs []string
}

func (m *mockLoader) Load(dir string) ([]model.Document, error) {
	m.dirs = append(m.dirs, dir)
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

type mockScraper struct {
	docs map[string]model.Document
	err  map[string]error
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (model.Document, error) {
	if err, ok := m.err[url]; ok {
		return model.Document{}, err
	}
	doc, ok := m.docs[url]
	if !ok {
		return model.Document{}, fmt.Errorf("no page at %s", url)
	}
	return doc, nil
}

// mockGenerator tags every document with fixed terms and records the
// weights it was given.
type mockGenerator struct {
	terms   []string
	weights []learner.Table
}

func (m *mockGenerator) Generate(docs []model.Document, weights learner.Table) []model.DocumentTags {
	m.weights = append(m.weights, weights)
	out := make([]model.DocumentTags, 0, len(docs))
	for _, d := range docs {
		dt := model.DocumentTags{Filename: d.Filename}
		for _, term := range m.terms {
			dt.Tags = append(dt.Tags, model.Tag{Tag: term, Importance: 0.5, Adjusted: weights.Adjust(term, 0.5)})
		}
		out = append(out, dt)
	}
	return out
}

type mockStorage struct {
	runs     []*RunRecord
	feedback map[int64][]model.DocumentFeedback
	table    learner.Table
	rates    learner.Rates
	runErr   error
	stored   learner.Table
}

func newMockStorage() *mockStorage {
	return &mockStorage{feedback: make(map[int64][]model.DocumentFeedback)}
}

func (m *mockStorage) SaveRun(rec *RunRecord) (int64, error) {
	if m.runErr != nil {
		return 0, m.runErr
	}
	m.runs = append(m.runs, rec)
	return int64(len(m.runs)), nil
}

func (m *mockStorage) SaveFeedback(runID int64, docs []model.DocumentFeedback) error {
	m.feedback[runID] = docs
	return nil
}

func (m *mockStorage) ReplaceTagWeights(table learner.Table, rates learner.Rates) error {
	m.table = table
	m.rates = rates
	return nil
}

func (m *mockStorage) GetWeightTable() (learner.Table, error) {
	return m.stored, nil
}

func testDocs() []model.Document {
	return []model.Document{
		{Filename: "api.txt", Content: "API design\n\nThe api returns errors. Each api call is logged."},
		{Filename: "cache.txt", Content: "Notes\n\nNothing relevant here."},
	}
}

func newTestRunner(t *testing.T, loader *mockLoader, gen Generator, history History, sources ...string) *Runner {
	t.Helper()
	cleaner := textclean.New()
	sim := feedback.NewSimulator(feedback.DefaultEvaluator(), cleaner.Clean, 2)
	cfg := Config{
		DocumentsDir: "docs",
		Sources:      sources,
		OutputDir:    t.TempDir(),
		Rules:        learner.DefaultRules(),
	}
	return NewRunner(loader.Load, nil, gen, sim, history, cfg)
}

// --- Tests ---

func TestRun_FullCycle(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	gen := &mockGenerator{terms: []string{"api", "zebra"}}
	store := newMockStorage()
	r := newTestRunner(t, loader, gen, store)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("expected success, got %s", res.Status)
	}
	if res.Documents != 2 || res.Tags != 4 {
		t.Errorf("expected 2 documents and 4 tags, got %d and %d", res.Documents, res.Tags)
	}
	// api is approved in api.txt only; zebra is never found.
	if res.Feedback.Approved != 1 || res.Feedback.Rejected != 3 {
		t.Errorf("unexpected feedback summary %+v", res.Feedback)
	}
	if res.ApprovalRate != 25 {
		t.Errorf("expected approval rate 25, got %f", res.ApprovalRate)
	}
	// api: 1/2 → 1.1; zebra: 0/2 → 0.5
	if res.Learned != 2 || res.Boosted != 1 || res.Penalized != 1 {
		t.Errorf("unexpected learning metrics %+v", res)
	}

	for _, p := range []string{res.Outputs.Tags, res.Outputs.Feedback, res.Outputs.Weights} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected artifact %s: %v", p, err)
		}
	}

	if len(store.runs) != 1 || store.runs[0].Status != StatusSuccess {
		t.Fatalf("expected one successful run recorded, got %+v", store.runs)
	}
	if res.RunID != 1 {
		t.Errorf("expected run ID 1, got %d", res.RunID)
	}
	if len(store.feedback[1]) != 2 {
		t.Errorf("expected feedback for 2 documents stored, got %d", len(store.feedback[1]))
	}
	if store.table["api"] != 1.1 || store.rates["zebra"] != 0 {
		t.Errorf("unexpected stored weights %v rates %v", store.table, store.rates)
	}
}

func TestRun_UsesPreviousWeights(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	gen := &mockGenerator{terms: []string{"api"}}
	r := newTestRunner(t, loader, gen, nil)

	if err := artifacts.SaveWeights(r.Paths().Weights, learner.Table{"api": 1.3}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.weights[0]["api"] != 1.3 {
		t.Errorf("expected generator to receive previous table, got %v", gen.weights[0])
	}

	table, err := artifacts.LoadWeights(r.Paths().Weights)
	if err != nil {
		t.Fatal(err)
	}
	if table["api"] != 1.1 {
		t.Errorf("expected table replaced with learned weight 1.1, got %v", table)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if gen.weights[1]["api"] != 1.1 {
		t.Errorf("expected second cycle to use learned weight 1.1, got %v", gen.weights[1])
	}
}

func TestRun_NoDocuments(t *testing.T) {
	loader := &mockLoader{err: errors.New("missing dir")}
	store := newMockStorage()
	r := newTestRunner(t, loader, &mockGenerator{}, store)

	res, err := r.Run(context.Background())
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if res.Status != StatusError || res.Error == "" {
		t.Errorf("expected error result, got %+v", res)
	}
	if len(store.runs) != 1 || store.runs[0].Status != StatusError {
		t.Errorf("expected failed run recorded, got %+v", store.runs)
	}
	if len(store.feedback) != 0 || store.table != nil {
		t.Error("expected no feedback or weights stored for a failed run")
	}
}

func TestRun_HistoryErrorDoesNotFail(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	store := newMockStorage()
	store.runErr = errors.New("db locked")
	r := newTestRunner(t, loader, &mockGenerator{terms: []string{"api"}}, store)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("expected history failure to be logged only, got %v", err)
	}
	if res.RunID != 0 {
		t.Errorf("expected no run ID, got %d", res.RunID)
	}
}

func TestRun_OutputNotWritable(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	r := newTestRunner(t, loader, &mockGenerator{terms: []string{"api"}}, nil)

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := r.config
	cfg.OutputDir = filepath.Join(blocker, "out")
	r.UpdateConfig(cfg)

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when output directory cannot be created")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	r := newTestRunner(t, loader, &mockGenerator{terms: []string{"api"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDocuments_Sources(t *testing.T) {
	loader := &mockLoader{docs: testDocs()[:1]}
	r := newTestRunner(t, loader, &mockGenerator{}, nil, "https://ok.test/a", "https://bad.test/b")
	r.scraper = &mockScraper{
		docs: map[string]model.Document{
			"https://ok.test/a": {Filename: "ok.test_a", Content: "page"},
		},
		err: map[string]error{"https://bad.test/b": errors.New("timeout")},
	}

	docs, err := r.Documents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected directory doc plus one scraped page, got %d", len(docs))
	}
	if docs[1].Filename != "ok.test_a" {
		t.Errorf("expected scraped page second, got %s", docs[1].Filename)
	}
}

func TestDocuments_SourcesOnly(t *testing.T) {
	loader := &mockLoader{}
	r := newTestRunner(t, loader, &mockGenerator{}, nil, "https://ok.test/a")
	r.config.DocumentsDir = ""
	r.scraper = &mockScraper{docs: map[string]model.Document{
		"https://ok.test/a": {Filename: "ok.test_a", Content: "page"},
	}}

	docs, err := r.Documents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
	if len(loader.dirs) != 0 {
		t.Error("expected directory loader not to be called without a documents dir")
	}
}

func TestStages(t *testing.T) {
	loader := &mockLoader{docs: testDocs()}
	gen := &mockGenerator{terms: []string{"api"}}
	store := newMockStorage()
	r := newTestRunner(t, loader, gen, store)
	ctx := context.Background()

	tags, err := r.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected tags for 2 documents, got %d", len(tags))
	}

	fb, err := r.Feedback(ctx)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(fb) != 2 || fb[0].Feedback[0].Status != model.StatusApproved {
		t.Errorf("unexpected feedback %+v", fb)
	}

	table, err := r.Learn()
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if table["api"] != 1.1 {
		t.Errorf("expected api weight 1.1, got %v", table)
	}
	if store.table["api"] != 1.1 {
		t.Errorf("expected Learn to mirror weights to history, got %v", store.table)
	}
	if len(store.runs) != 0 {
		t.Error("expected stage commands not to record runs")
	}
}

func TestLearn_MissingFeedback(t *testing.T) {
	r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, nil)

	table, err := r.Learn()
	if err != nil {
		t.Fatalf("expected missing feedback to be tolerated, got %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %v", table)
	}
}

func TestWeights_Corrupt(t *testing.T) {
	r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, nil)
	if err := os.WriteFile(r.Paths().Weights, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if w := r.Weights(); len(w) != 0 {
		t.Errorf("expected empty table for corrupt file, got %v", w)
	}
}

func TestWeights_FallsBackToHistory(t *testing.T) {
	store := newMockStorage()
	store.stored = learner.Table{"api": 1.3}

	t.Run("missing file", func(t *testing.T) {
		r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, store)
		if w := r.Weights(); w.Weight("api") != 1.3 {
			t.Errorf("expected stored weight 1.3, got %v", w)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, store)
		if err := os.WriteFile(r.Paths().Weights, []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		if w := r.Weights(); w.Weight("api") != 1.3 {
			t.Errorf("expected stored weight 1.3, got %v", w)
		}
	})

	t.Run("file wins", func(t *testing.T) {
		r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, store)
		if err := artifacts.SaveWeights(r.Paths().Weights, learner.Table{"api": 0.5}); err != nil {
			t.Fatal(err)
		}
		if w := r.Weights(); w.Weight("api") != 0.5 {
			t.Errorf("expected file weight 0.5, got %v", w)
		}
	})

	t.Run("empty file wins", func(t *testing.T) {
		r := newTestRunner(t, &mockLoader{}, &mockGenerator{}, store)
		if err := artifacts.SaveWeights(r.Paths().Weights, learner.Table{}); err != nil {
			t.Fatal(err)
		}
		if w := r.Weights(); len(w) != 0 {
			t.Errorf("expected empty table from file, got %v", w)
		}
	})
}

func TestRun_RealComponents(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"go.md":   "# Go concurrency\n\nGoroutines and channels make concurrency simple.\n\nChannels carry values between goroutines.",
		"db.md":   "# Database indexing\n\nAn index speeds up database queries.\n\nEvery database needs a good index.",
		"web.txt": "Web servers\n\nA web server answers requests.\n\nRequests arrive over the network.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cleaner := textclean.New()
	r := NewRunner(
		func(d string) ([]model.Document, error) {
			var docs []model.Document
			for _, name := range []string{"db.md", "go.md", "web.txt"} {
				data, err := os.ReadFile(filepath.Join(d, name))
				if err != nil {
					return nil, err
				}
				docs = append(docs, model.Document{Filename: name, Content: string(data)})
			}
			return docs, nil
		},
		nil,
		tagger.New(cleaner, 3, 100),
		feedback.NewSimulator(feedback.DefaultEvaluator(), cleaner.Clean, 2),
		nil,
		Config{DocumentsDir: dir, OutputDir: t.TempDir(), Rules: learner.DefaultRules()},
	)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Documents != 3 {
		t.Errorf("expected 3 documents, got %d", res.Documents)
	}
	if res.Tags == 0 || res.Tags > 9 {
		t.Errorf("expected between 1 and 9 tags, got %d", res.Tags)
	}
	if res.Feedback.Total() != res.Tags {
		t.Errorf("expected one record per tag, got %d records for %d tags", res.Feedback.Total(), res.Tags)
	}
	if res.Learned == 0 {
		t.Error("expected learned weights")
	}
}
