package learner

import (
	"sort"
	"strings"
)

// NeutralWeight is the multiplier for tags with no learned weight.
const NeutralWeight = 1.0

// Table maps a lower-cased tag to its learned multiplier. A Table is a
// snapshot: it is produced whole by DeriveWeights, handed to the tagging
// stage by value, and replaced rather than edited.
type Table map[string]float64

// Entry is one tag and its weight.
type Entry struct {
	Tag    string  `json:"tag"`
	Weight float64 `json:"weight"`
}

// Weight returns the multiplier for tag, or NeutralWeight when unknown.
func (t Table) Weight(tag string) float64 {
	if w, ok := t[strings.ToLower(tag)]; ok {
		return w
	}
	return NeutralWeight
}

// Adjust applies the tag's multiplier to an importance score.
func (t Table) Adjust(tag string, score float64) float64 {
	return score * t.Weight(tag)
}

// Boosted counts tags with a weight above neutral.
func (t Table) Boosted() int {
	n := 0
	for _, w := range t {
		if w > NeutralWeight {
			n++
		}
	}
	return n
}

// Penalized counts tags with a weight below neutral.
func (t Table) Penalized() int {
	n := 0
	for _, w := range t {
		if w < NeutralWeight {
			n++
		}
	}
	return n
}

// Top returns up to n entries ordered by weight descending, then tag.
// n <= 0 returns all entries.
func (t Table) Top(n int) []Entry {
	entries := make([]Entry, 0, len(t))
	for tag, w := range t {
		entries = append(entries, Entry{Tag: tag, Weight: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].Tag < entries[j].Tag
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
