package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"text-tagger/feedback"
	"text-tagger/storage"
)

var statsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history and learned weights",
	Long: `Show recent runs, the highest learned tag weights, and the tags seen
most often in stored feedback.

Examples:
  tagger stats
  tagger stats --limit 20 -o json`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "Rows per section")
	rootCmd.AddCommand(statsCmd)
}

type statsOutput struct {
	LastRunAt     string       `json:"last_run_at,omitempty"`
	LastRunStatus string       `json:"last_run_status,omitempty"`
	LastFeedback  *feedbackRow `json:"last_feedback,omitempty"`
	Runs          []runRow     `json:"runs"`
	TopWeights    []weightRow  `json:"top_weights"`
	Tags          []tagStatRow `json:"tags"`
}

type runRow struct {
	ID           int64   `json:"id"`
	StartedAt    string  `json:"started_at"`
	DurationMs   int64   `json:"duration_ms"`
	Status       string  `json:"status"`
	Documents    int     `json:"documents"`
	Tags         int     `json:"tags"`
	ApprovalRate float64 `json:"approval_rate"`
	Learned      int     `json:"learned"`
}

type feedbackRow struct {
	RunID     int64 `json:"run_id"`
	Documents int   `json:"documents"`
	Approved  int   `json:"approved"`
	Rejected  int   `json:"rejected"`
}

type weightRow struct {
	Tag    string  `json:"tag"`
	Weight float64 `json:"weight"`
	Rate   float64 `json:"rate"`
}

type tagStatRow struct {
	Tag      string `json:"tag"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

func runStats(cmd *cobra.Command, args []string) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("stats needs a database: set db_path")
	}
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := collectStats(store, statsLimit)
	if err != nil {
		return err
	}
	return printStats(cmd.OutOrStdout(), out)
}

func collectStats(store *storage.Store, limit int) (*statsOutput, error) {
	out := &statsOutput{}

	lastRun, err := store.GetSetting(settingLastRunAt)
	if err != nil {
		return nil, err
	}
	if sec, err := strconv.ParseInt(lastRun, 10, 64); err == nil {
		out.LastRunAt = unixTime(sec).Format("2006-01-02 15:04:05 UTC")
	}
	status, err := store.GetSetting(settingLastRunStatus)
	if err != nil {
		return nil, err
	}
	out.LastRunStatus = status

	runs, err := store.GetRecentRuns(limit)
	if err != nil {
		return nil, err
	}
	out.Runs = make([]runRow, 0, len(runs))
	for _, r := range runs {
		out.Runs = append(out.Runs, runRow{
			ID:           r.ID,
			StartedAt:    unixTime(r.StartedAt).Format("2006-01-02 15:04:05"),
			DurationMs:   r.DurationMs,
			Status:       r.Status,
			Documents:    r.Documents,
			Tags:         r.Tags,
			ApprovalRate: r.ApprovalRate,
			Learned:      r.Learned,
		})
	}

	if len(runs) > 0 {
		docs, err := store.GetRunFeedback(runs[0].ID)
		if err != nil {
			return nil, err
		}
		s := feedback.Summarize(docs)
		out.LastFeedback = &feedbackRow{
			RunID:     runs[0].ID,
			Documents: s.Documents,
			Approved:  s.Approved,
			Rejected:  s.Rejected,
		}
	}

	weights, err := store.GetTopTagWeights(limit)
	if err != nil {
		return nil, err
	}
	out.TopWeights = make([]weightRow, 0, len(weights))
	for _, w := range weights {
		out.TopWeights = append(out.TopWeights, weightRow{Tag: w.Tag, Weight: w.Weight, Rate: w.Rate})
	}

	stats, err := store.GetTagStats(limit)
	if err != nil {
		return nil, err
	}
	out.Tags = make([]tagStatRow, 0, len(stats))
	for _, s := range stats {
		out.Tags = append(out.Tags, tagStatRow{Tag: s.Tag, Approved: s.Approved, Rejected: s.Rejected})
	}

	return out, nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
