package model

// Status is the outcome of evaluating a generated tag.
type Status string

// Evaluation outcomes.
const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusApproved || s == StatusRejected
}

// Document is a raw text document as read from its source.
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Tag is a candidate tag produced by the tagging stage.
type Tag struct {
	Tag        string  `json:"tag"`
	Importance float64 `json:"tfidf_score"`
	Adjusted   float64 `json:"adjusted_tfidf_score"`
}

// DocumentTags groups the tags generated for one document.
type DocumentTags struct {
	Filename string `json:"filename"`
	Tags     []Tag  `json:"tags"`
}

// Record is the feedback verdict for a single (document, tag) pair.
type Record struct {
	Tag            string  `json:"tag"`
	Status         Status  `json:"status"`
	RelevanceScore float64 `json:"relevance_score"`
}

// DocumentFeedback groups the feedback records for one document.
type DocumentFeedback struct {
	Filename string   `json:"filename"`
	Feedback []Record `json:"feedback"`
}

// Approved returns the records with status approved.
func (d DocumentFeedback) Approved() []Record {
	return d.filter(StatusApproved)
}

// Rejected returns the records with status rejected.
func (d DocumentFeedback) Rejected() []Record {
	return d.filter(StatusRejected)
}

func (d DocumentFeedback) filter(s Status) []Record {
	var out []Record
	for _, r := range d.Feedback {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}
