package feedback

import (
	"context"
	"log/slog"
	"sync"

	"text-tagger/model"
)

// TextCleaner produces the normalized form of a raw document used for
// frequency counting.
type TextCleaner func(raw string) string

// Simulator runs the Evaluator over every tag of every document.
type Simulator struct {
	evaluator *Evaluator
	clean     TextCleaner
	workers   int
}

// NewSimulator creates a Simulator that evaluates documents on up to workers
// goroutines.
func NewSimulator(evaluator *Evaluator, clean TextCleaner, workers int) *Simulator {
	if workers <= 0 {
		workers = 1
	}
	return &Simulator{
		evaluator: evaluator,
		clean:     clean,
		workers:   workers,
	}
}

// Run evaluates tags against the raw texts keyed by filename and returns one
// DocumentFeedback per input entry, in input order. A filename with no text
// is scored against empty text.
func (s *Simulator) Run(ctx context.Context, tags []model.DocumentTags, texts map[string]string) ([]model.DocumentFeedback, error) {
	slog.Debug("evaluating tags", "documents", len(tags), "workers", s.workers, "threshold", s.evaluator.Threshold())
	results := make([]model.DocumentFeedback, len(tags))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for n := min(s.workers, max(len(tags), 1)); n > 0; n-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.evaluateDocument(tags[i], texts)
			}
		}()
	}

	var err error
feed:
	for i := range tags {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Simulator) evaluateDocument(doc model.DocumentTags, texts map[string]string) model.DocumentFeedback {
	raw, ok := texts[doc.Filename]
	if !ok {
		slog.Warn("no text for tagged document, scoring on importance only", "filename", doc.Filename)
	}

	cleaned := ""
	if raw != "" && s.clean != nil {
		cleaned = s.clean(raw)
	}

	records := make([]model.Record, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		records = append(records, s.evaluator.Evaluate(t.Tag, t.Importance, raw, cleaned))
	}

	return model.DocumentFeedback{
		Filename: doc.Filename,
		Feedback: records,
	}
}
