// Package tagger generates the top-k tags of each document from corpus
// TF-IDF scores, scaled by the weights learned in the previous cycle.
package tagger

import (
	"log/slog"
	"sort"

	"text-tagger/learner"
	"text-tagger/model"
	"text-tagger/tfidf"
)

// Defaults used when New is given non-positive limits.
const (
	DefaultTopK        = 5
	DefaultMaxFeatures = 5000
)

// Tokenizer turns raw text into normalized terms.
type Tokenizer interface {
	Tokens(text string) []string
}

// Tagger ranks document terms into tags.
type Tagger struct {
	tokenizer   Tokenizer
	topK        int
	maxFeatures int
}

// New creates a Tagger. Non-positive topK and maxFeatures fall back to the defaults.
func New(tokenizer Tokenizer, topK, maxFeatures int) *Tagger {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Tagger{
		tokenizer:   tokenizer,
		topK:        topK,
		maxFeatures: maxFeatures,
	}
}

type candidate struct {
	term       string
	importance float64
	adjusted   float64
}

// Generate returns one DocumentTags per document, in input order. Each
// term's importance is multiplied by its weight in weights (1.0 when
// absent); the topK terms by adjusted score are kept, dropping any whose
// adjusted score is not positive. The unadjusted importance is preserved on
// each tag for the feedback stage.
func (g *Tagger) Generate(docs []model.Document, weights learner.Table) []model.DocumentTags {
	if len(docs) == 0 {
		return nil
	}

	tokenized := make([][]string, len(docs))
	for i, d := range docs {
		tokenized[i] = g.tokenizer.Tokens(d.Content)
	}
	_, vectors := tfidf.FitTransform(tokenized, g.maxFeatures)

	out := make([]model.DocumentTags, len(docs))
	for i, d := range docs {
		out[i] = model.DocumentTags{
			Filename: d.Filename,
			Tags:     g.topTags(vectors[i], weights),
		}
		slog.Debug("document tagged", "filename", d.Filename, "tags", len(out[i].Tags))
	}
	return out
}

func (g *Tagger) topTags(vec tfidf.Vector, weights learner.Table) []model.Tag {
	candidates := make([]candidate, 0, len(vec))
	for term, score := range vec {
		candidates = append(candidates, candidate{
			term:       term,
			importance: score,
			adjusted:   weights.Adjust(term, score),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].adjusted != candidates[j].adjusted {
			return candidates[i].adjusted > candidates[j].adjusted
		}
		return candidates[i].term < candidates[j].term
	})

	tags := make([]model.Tag, 0, g.topK)
	for _, c := range candidates[:min(g.topK, len(candidates))] {
		if c.adjusted <= 0 {
			continue
		}
		tags = append(tags, model.Tag{
			Tag:        c.term,
			Importance: c.importance,
			Adjusted:   c.adjusted,
		})
	}
	return tags
}

// Count returns the total number of tags across documents.
func Count(tags []model.DocumentTags) int {
	n := 0
	for _, d := range tags {
		n += len(d.Tags)
	}
	return n
}
