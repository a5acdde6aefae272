// Package tfidf scores terms by TF-IDF across a corpus of tokenized documents.
//
// Scores follow the common smoothed formulation:
//
//	idf(t)      = ln((1 + N) / (1 + df(t))) + 1
//	tfidf(t, d) = count(t, d) * idf(t)
//
// and each document vector is L2-normalized, so every score lies in [0, 1].
// Terms shorter than two letters and English stop words never enter the
// vocabulary, which can be capped to the most frequent terms of the corpus.
package tfidf

import (
	"log/slog"
	"math"
	"sort"
)

const minTermLen = 2

// Vector maps a term to its weight in one document.
type Vector map[string]float64

// Model is a fitted vocabulary with inverse document frequencies.
type Model struct {
	idf map[string]float64
}

// Fit builds a Model from tokenized documents. maxFeatures > 0 keeps only
// the maxFeatures terms with the highest corpus frequency (ties broken
// alphabetically).
func Fit(docs [][]string, maxFeatures int) *Model {
	termCounts := make(map[string]int)
	docFreq := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range doc {
			if len(term) < minTermLen || isStopWord(term) {
				continue
			}
			termCounts[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	vocab := make([]string, 0, len(termCounts))
	for term := range termCounts {
		vocab = append(vocab, term)
	}
	if maxFeatures > 0 && len(vocab) > maxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			if termCounts[vocab[i]] != termCounts[vocab[j]] {
				return termCounts[vocab[i]] > termCounts[vocab[j]]
			}
			return vocab[i] < vocab[j]
		})
		vocab = vocab[:maxFeatures]
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	slog.Debug("tfidf model fitted", "documents", len(docs), "terms", len(idf))
	return &Model{idf: idf}
}

// Transform returns the normalized TF-IDF vector of a tokenized document.
// Terms outside the vocabulary are ignored.
func (m *Model) Transform(doc []string) Vector {
	counts := make(map[string]int)
	for _, term := range doc {
		if _, ok := m.idf[term]; ok {
			counts[term]++
		}
	}

	vec := make(Vector, len(counts))
	var norm float64
	for term, c := range counts {
		w := float64(c) * m.idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// FitTransform fits a Model on docs and returns it with every document's vector.
func FitTransform(docs [][]string, maxFeatures int) (*Model, []Vector) {
	m := Fit(docs, maxFeatures)
	vecs := make([]Vector, len(docs))
	for i, doc := range docs {
		vecs[i] = m.Transform(doc)
	}
	return m, vecs
}
