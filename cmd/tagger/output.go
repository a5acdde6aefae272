package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"text-tagger/artifacts"
	"text-tagger/feedback"
	"text-tagger/learner"
	"text-tagger/model"
	"text-tagger/pipeline"
)

type runOutput struct {
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	RunID        int64           `json:"run_id,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	Documents    int             `json:"documents_processed"`
	Tags         int             `json:"tags_generated"`
	ApprovalRate float64         `json:"approval_rate"`
	Learned      int             `json:"tags_learned"`
	Boosted      int             `json:"boosted"`
	Penalized    int             `json:"penalized"`
	Outputs      artifacts.Paths `json:"output_files"`
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printResult(w io.Writer, res pipeline.Result) error {
	if output == "json" {
		return writeJSON(w, runOutput{
			Status:       res.Status,
			Error:        res.Error,
			RunID:        res.RunID,
			DurationMs:   res.Duration.Milliseconds(),
			Documents:    res.Documents,
			Tags:         res.Tags,
			ApprovalRate: res.ApprovalRate,
			Learned:      res.Learned,
			Boosted:      res.Boosted,
			Penalized:    res.Penalized,
			Outputs:      res.Outputs,
		})
	}

	fmt.Fprintf(w, "Pipeline %s in %s\n", res.Status, res.Duration.Round(time.Millisecond))
	if res.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", res.Error)
		return nil
	}
	fmt.Fprintf(w, "  Documents processed: %d\n", res.Documents)
	fmt.Fprintf(w, "  Tags generated:      %d\n", res.Tags)
	fmt.Fprintf(w, "  Approval rate:       %.1f%%\n", res.ApprovalRate)
	fmt.Fprintf(w, "  Tags learned:        %d (%d boosted, %d penalized)\n", res.Learned, res.Boosted, res.Penalized)
	fmt.Fprintln(w, "Outputs:")
	fmt.Fprintf(w, "  %s\n  %s\n  %s\n", res.Outputs.Tags, res.Outputs.Feedback, res.Outputs.Weights)
	return nil
}

func printTags(w io.Writer, tags []model.DocumentTags, path string) error {
	if output == "json" {
		return writeJSON(w, tags)
	}

	for _, doc := range tags {
		terms := make([]string, 0, len(doc.Tags))
		for _, t := range doc.Tags {
			terms = append(terms, fmt.Sprintf("%s (%.3f)", t.Tag, t.Adjusted))
		}
		fmt.Fprintf(w, "%s: %s\n", doc.Filename, strings.Join(terms, ", "))
	}
	fmt.Fprintf(w, "\nWrote %d documents to %s\n", len(tags), path)
	return nil
}

func printFeedback(w io.Writer, results []model.DocumentFeedback, s feedback.Summary) error {
	if output == "json" {
		return writeJSON(w, results)
	}

	for _, doc := range results {
		fmt.Fprintln(w, doc.Filename)
		fmt.Fprintf(w, "  approved: %s\n", joinTags(doc.Approved()))
		fmt.Fprintf(w, "  rejected: %s\n", joinTags(doc.Rejected()))
	}
	fmt.Fprintf(w, "\nOverall: %d/%d approved (%.1f%%)\n", s.Approved, s.Total(), s.ApprovalPercent())
	return nil
}

func joinTags(records []model.Record) string {
	if len(records) == 0 {
		return "-"
	}
	tags := make([]string, len(records))
	for i, r := range records {
		tags[i] = r.Tag
	}
	return strings.Join(tags, ", ")
}

func printLearning(w io.Writer, s learner.Summary) error {
	if output == "json" {
		return writeJSON(w, s)
	}

	fmt.Fprintf(w, "Learned weights for %d tags (%d boosted, %d penalized)\n", s.Total, s.Boosted, s.Penalized)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tMIN RATE\tWEIGHT\tTAGS")
	for _, tc := range s.Tiers {
		fmt.Fprintf(tw, "%s\t%.2f\t%.1f\t%d\n", tc.Tier.Name, tc.Tier.MinRate, tc.Tier.Weight, tc.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Top) > 0 {
		fmt.Fprintln(w, "\nTop weights:")
		for _, e := range s.Top {
			fmt.Fprintf(w, "  %-20s %.1f\n", e.Tag, e.Weight)
		}
	}
	return nil
}

func printStats(w io.Writer, s *statsOutput) error {
	if output == "json" {
		return writeJSON(w, s)
	}

	if s.LastRunAt != "" {
		fmt.Fprintf(w, "Last run: %s (%s)\n\n", s.LastRunAt, s.LastRunStatus)
	}

	if f := s.LastFeedback; f != nil {
		fmt.Fprintf(w, "Run %d feedback: %d documents, %d approved, %d rejected\n\n",
			f.RunID, f.Documents, f.Approved, f.Rejected)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tDOCS\tTAGS\tAPPROVAL\tLEARNED")
	for _, r := range s.Runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.1f%%\t%d\n",
			r.ID, r.StartedAt, r.Status, r.Documents, r.Tags, r.ApprovalRate, r.Learned)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nTop weights:")
	for _, e := range s.TopWeights {
		fmt.Fprintf(w, "  %-20s %.1f  (rate %.2f)\n", e.Tag, e.Weight, e.Rate)
	}

	fmt.Fprintln(w, "\nMost seen tags:")
	for _, t := range s.Tags {
		fmt.Fprintf(w, "  %-20s %d approved, %d rejected\n", t.Tag, t.Approved, t.Rejected)
	}
	return nil
}
