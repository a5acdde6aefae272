package feedback

import "text-tagger/model"

// Summary counts feedback outcomes across documents.
type Summary struct {
	Documents int
	Approved  int
	Rejected  int
}

// Summarize tallies approved and rejected records.
func Summarize(results []model.DocumentFeedback) Summary {
	s := Summary{Documents: len(results)}
	for _, doc := range results {
		for _, r := range doc.Feedback {
			switch r.Status {
			case model.StatusApproved:
				s.Approved++
			case model.StatusRejected:
				s.Rejected++
			}
		}
	}
	return s
}

// Total is the number of evaluated tags.
func (s Summary) Total() int {
	return s.Approved + s.Rejected
}

// ApprovalPercent returns the share of approved tags as a percentage, or 0
// when nothing was evaluated.
func (s Summary) ApprovalPercent() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Approved) / float64(s.Total()) * 100
}
