package main

import (
	"github.com/spf13/cobra"

	"text-tagger/feedback"
	"text-tagger/learner"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate tags.json using the current weights",
	RunE:  runGenerate,
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Score tags.json against the documents and write feedback.json",
	RunE:  runFeedback,
}

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Derive tag_weights.json from feedback.json",
	RunE:  runLearn,
}

func init() {
	generateCmd.Flags().StringSliceVar(&extraURLs, "url", nil, "Additional page URL to tag (repeatable)")
	feedbackCmd.Flags().StringSliceVar(&extraURLs, "url", nil, "Additional page URL to score against (repeatable)")
	rootCmd.AddCommand(generateCmd, feedbackCmd, learnCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(withURLs(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.runner.Generate(cmd.Context())
	if err != nil {
		return err
	}
	return printTags(cmd.OutOrStdout(), tags, a.runner.Paths().Tags)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	a, err := newApp(withURLs(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.runner.Feedback(cmd.Context())
	if err != nil {
		return err
	}
	return printFeedback(cmd.OutOrStdout(), results, feedback.Summarize(results))
}

func runLearn(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.runner.Learn()
	if err != nil {
		return err
	}
	return printLearning(cmd.OutOrStdout(), learner.Summarize(table, a.rules, 5))
}
