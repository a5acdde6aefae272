// Package feedback simulates reviewer feedback on generated tags by
// re-scoring each tag against the document it was generated from.
//
// A tag's relevance is a weighted blend of three signals: the importance
// score produced by the tagging stage, how often the tag occurs in the
// cleaned text (ScoreFrequency) and where it first shows up in the raw text
// (ScorePosition). Tags whose relevance reaches the approval threshold are
// approved, the rest rejected.
//
// All scoring functions are pure and safe for concurrent use.
package feedback

import (
	"strconv"

	"text-tagger/model"
)

// DefaultApprovalThreshold is the relevance at or above which a tag is approved.
const DefaultApprovalThreshold = 0.35

// Weights are the blend coefficients of the three relevance signals.
// They are expected to sum to 1.
type Weights struct {
	Importance float64
	Frequency  float64
	Position   float64
}

// DefaultWeights returns the stock 0.5/0.2/0.3 blend.
func DefaultWeights() Weights {
	return Weights{Importance: 0.5, Frequency: 0.2, Position: 0.3}
}

// Sum returns the total of all coefficients.
func (w Weights) Sum() float64 {
	return w.Importance + w.Frequency + w.Position
}

// Signals holds the individual sub-scores and their blend for one tag.
type Signals struct {
	Importance float64
	Frequency  float64
	Position   float64
	Zone       Zone
	Combined   float64
}

// Evaluator classifies tags as approved or rejected.
type Evaluator struct {
	weights   Weights
	threshold float64
	zones     ZoneScores
}

// NewEvaluator creates an Evaluator with the given blend, threshold and zone scores.
func NewEvaluator(weights Weights, threshold float64, zones ZoneScores) *Evaluator {
	return &Evaluator{
		weights:   weights,
		threshold: threshold,
		zones:     zones,
	}
}

// DefaultEvaluator returns an Evaluator using the stock configuration.
func DefaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultWeights(), DefaultApprovalThreshold, DefaultZoneScores())
}

// Threshold returns the approval threshold.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Score computes all signals for tag. Missing text is treated as empty, so a
// tag for an absent document is judged on importance alone.
func (e *Evaluator) Score(tag string, importance float64, rawText, cleanedText string) Signals {
	zone := LocateZone(tag, rawText)
	s := Signals{
		Importance: importance,
		Frequency:  ScoreFrequency(tag, cleanedText),
		Position:   e.zones.Score(zone),
		Zone:       zone,
	}
	s.Combined = e.weights.Importance*s.Importance +
		e.weights.Frequency*s.Frequency +
		e.weights.Position*s.Position
	return s
}

// Evaluate scores tag and returns its feedback record. The status is decided
// on the unrounded relevance; the stored relevance is rounded to 4 places.
func (e *Evaluator) Evaluate(tag string, importance float64, rawText, cleanedText string) model.Record {
	s := e.Score(tag, importance, rawText, cleanedText)

	status := model.StatusRejected
	if s.Combined >= e.threshold {
		status = model.StatusApproved
	}

	return model.Record{
		Tag:            tag,
		Status:         status,
		RelevanceScore: round4(s.Combined),
	}
}

// Evaluate scores tag with the default evaluator.
func Evaluate(tag string, importance float64, rawText, cleanedText string) model.Record {
	return DefaultEvaluator().Evaluate(tag, importance, rawText, cleanedText)
}

// round4 rounds from the exact binary value, so halfway-looking decimals
// such as 0.76025 (stored just below) round down.
func round4(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	if err != nil {
		return v
	}
	return r
}
