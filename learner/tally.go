// Package learner turns accumulated tag feedback into weight multipliers for
// the next tagging cycle.
//
// Learning is two pure steps. ComputeRates folds every feedback record into a
// per-tag approval rate (tags are compared case-insensitively). DeriveWeights
// maps each rate onto a multiplier through an ordered tier table. The result
// is a Table, a snapshot that replaces the previous one wholesale.
package learner

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"text-tagger/model"
)

// ErrMalformedRecord is returned by Tally.Add for a record with an empty tag
// or an unknown status.
var ErrMalformedRecord = errors.New("malformed feedback record")

// Counts holds approval outcomes for one tag.
type Counts struct {
	Approved int
	Rejected int
}

// Total returns the number of decisions recorded.
func (c Counts) Total() int {
	return c.Approved + c.Rejected
}

// Rate returns the approved fraction, or 0 when nothing was recorded.
func (c Counts) Rate() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Approved) / float64(c.Total())
}

// Rates maps a lower-cased tag to its approval rate in [0, 1].
type Rates map[string]float64

// Tally accumulates per-tag outcomes. The zero value is not usable; call NewTally.
// A Tally is not safe for concurrent use, but partial tallies built on
// separate goroutines can be combined with Merge in any order.
type Tally struct {
	counts  map[string]Counts
	skipped int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]Counts)}
}

// Add records one feedback decision. Malformed records are counted as
// skipped and reported with ErrMalformedRecord; they never change the counts.
func (t *Tally) Add(r model.Record) error {
	if strings.TrimSpace(r.Tag) == "" {
		t.skipped++
		return fmt.Errorf("%w: empty tag", ErrMalformedRecord)
	}
	if !r.Status.Valid() {
		t.skipped++
		return fmt.Errorf("%w: tag %q has status %q", ErrMalformedRecord, r.Tag, r.Status)
	}

	key := strings.ToLower(r.Tag)
	c := t.counts[key]
	if r.Status == model.StatusApproved {
		c.Approved++
	} else {
		c.Rejected++
	}
	t.counts[key] = c
	return nil
}

// Merge adds other's counts into t.
func (t *Tally) Merge(other *Tally) {
	for tag, oc := range other.counts {
		c := t.counts[tag]
		c.Approved += oc.Approved
		c.Rejected += oc.Rejected
		t.counts[tag] = c
	}
	t.skipped += other.skipped
}

// Counts returns the outcomes recorded for tag.
func (t *Tally) Counts(tag string) Counts {
	return t.counts[strings.ToLower(tag)]
}

// Len returns the number of distinct tags recorded.
func (t *Tally) Len() int {
	return len(t.counts)
}

// Skipped returns the number of malformed records rejected by Add.
func (t *Tally) Skipped() int {
	return t.skipped
}

// Rates returns the approval rate of every recorded tag.
func (t *Tally) Rates() Rates {
	rates := make(Rates, len(t.counts))
	for tag, c := range t.counts {
		if c.Total() == 0 {
			continue
		}
		rates[tag] = c.Rate()
	}
	return rates
}

// ComputeRates aggregates the feedback of all documents into approval rates.
// Each document is tallied on its own and merged into the total.
func ComputeRates(docs []model.DocumentFeedback) Rates {
	total := NewTally()
	for _, doc := range docs {
		total.Merge(tallyDocument(doc))
	}
	if total.Skipped() > 0 {
		slog.Warn("malformed feedback records skipped", "skipped", total.Skipped(), "tags", total.Len())
	}
	return total.Rates()
}

func tallyDocument(doc model.DocumentFeedback) *Tally {
	t := NewTally()
	for _, r := range doc.Feedback {
		if err := t.Add(r); err != nil {
			slog.Debug("skipping feedback record", "filename", doc.Filename, "error", err)
		}
	}
	return t
}
