package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"text-tagger/feedback"
	"text-tagger/learner"
	"text-tagger/tagger"
)

// SignalWeights blends the three relevance signals. They must sum to 1.
type SignalWeights struct {
	Importance float64 `yaml:"importance"`
	Frequency  float64 `yaml:"frequency"`
	Position   float64 `yaml:"position"`
}

// PositionScores assigns a score to each document zone.
type PositionScores struct {
	Title          float64 `yaml:"title"`
	Header         float64 `yaml:"header"`
	FirstParagraph float64 `yaml:"first_paragraph"`
	Body           float64 `yaml:"body"`
	NotFound       float64 `yaml:"not_found"`
}

// LearningTier maps approval rates at or above MinRate to Weight.
type LearningTier struct {
	Name    string  `yaml:"name"`
	MinRate float64 `yaml:"min_rate"`
	Weight  float64 `yaml:"weight"`
}

// Config holds all application configuration.
type Config struct {
	DocumentsDir      string         `yaml:"documents_dir"`
	OutputDir         string         `yaml:"output_dir"`
	DBPath            string         `yaml:"db_path"`
	TopK              int            `yaml:"top_k"`
	MaxFeatures       int            `yaml:"max_features"`
	Lemmatize         bool           `yaml:"lemmatize"`
	Workers           int            `yaml:"workers"`
	SignalWeights     SignalWeights  `yaml:"signal_weights"`
	ApprovalThreshold float64        `yaml:"approval_threshold"`
	PositionScores    PositionScores `yaml:"position_scores"`
	LearningTiers     []LearningTier `yaml:"learning_tiers"`
	Schedule          string         `yaml:"schedule"`
	Timezone          string         `yaml:"timezone"`
	FetchTimeoutSec   int            `yaml:"fetch_timeout_secs"`
	Sources           []string       `yaml:"sources"`
	Stopwords         []string       `yaml:"stopwords"`
	LogLevel          string         `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		DocumentsDir:      "./documents",
		OutputDir:         "./output",
		DBPath:            "./tagger.db",
		TopK:              tagger.DefaultTopK,
		MaxFeatures:       tagger.DefaultMaxFeatures,
		Lemmatize:         true,
		Workers:           4,
		SignalWeights:     SignalWeights(feedback.DefaultWeights()),
		ApprovalThreshold: feedback.DefaultApprovalThreshold,
		PositionScores:    PositionScores(feedback.DefaultZoneScores()),
		LearningTiers:     defaultTiers(),
		Schedule:          "09:00",
		Timezone:          "UTC",
		FetchTimeoutSec:   10,
		LogLevel:          "info",
	}
}

func defaultTiers() []LearningTier {
	rules := learner.DefaultRules()
	tiers := make([]LearningTier, 0, len(rules.Tiers()))
	for _, t := range rules.Tiers() {
		tiers = append(tiers, LearningTier(t))
	}
	return tiers
}

// Load reads a YAML config file and returns a validated Config.
// A missing file leaves the defaults in place. Environment variables
// TAGGER_CONFIG, TAGGER_DB and TAGGER_OUTPUT_DIR override the file path,
// db path and output directory.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("TAGGER_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envDB := os.Getenv("TAGGER_DB"); envDB != "" {
		cfg.DBPath = envDB
	}
	if envOut := os.Getenv("TAGGER_OUTPUT_DIR"); envOut != "" {
		cfg.OutputDir = envOut
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.DocumentsDir == "" && len(c.Sources) == 0 {
		return fmt.Errorf("documents_dir or sources is required")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("fetch_timeout_secs must be positive, got %d", c.FetchTimeoutSec)
	}

	w := c.SignalWeights
	if w.Importance < 0 || w.Frequency < 0 || w.Position < 0 {
		return fmt.Errorf("signal_weights must not be negative")
	}
	if sum := feedback.Weights(w).Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("signal_weights must sum to 1, got %g", sum)
	}

	if !inUnit(c.ApprovalThreshold) {
		return fmt.Errorf("approval_threshold must be in [0, 1], got %g", c.ApprovalThreshold)
	}

	p := c.PositionScores
	for _, v := range []float64{p.Title, p.Header, p.FirstParagraph, p.Body, p.NotFound} {
		if !inUnit(v) {
			return fmt.Errorf("position_scores must be in [0, 1], got %g", v)
		}
	}

	for _, t := range c.LearningTiers {
		if !inUnit(t.MinRate) {
			return fmt.Errorf("learning tier %q: min_rate must be in [0, 1], got %g", t.Name, t.MinRate)
		}
		if t.Weight < 0 {
			return fmt.Errorf("learning tier %q: weight must not be negative", t.Name)
		}
	}
	if _, err := c.Rules(); err != nil {
		return fmt.Errorf("learning_tiers: %w", err)
	}

	if err := ValidateSchedule(c.Schedule); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}

	return nil
}

// Evaluator builds the feedback evaluator described by the config.
func (c *Config) Evaluator() *feedback.Evaluator {
	return feedback.NewEvaluator(
		feedback.Weights(c.SignalWeights),
		c.ApprovalThreshold,
		feedback.ZoneScores(c.PositionScores),
	)
}

// Rules builds the learning tier table.
func (c *Config) Rules() (learner.Rules, error) {
	tiers := make([]learner.Tier, 0, len(c.LearningTiers))
	for _, t := range c.LearningTiers {
		tiers = append(tiers, learner.Tier(t))
	}
	return learner.NewRules(tiers)
}

// FetchTimeout returns the HTTP timeout for URL sources.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// ValidateSchedule accepts either an HH:MM daily time or a standard
// five-field cron expression.
func ValidateSchedule(s string) error {
	if s == "" {
		return fmt.Errorf("schedule is required")
	}
	if ValidateTime(s) == nil {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return fmt.Errorf("invalid schedule %q: must be HH:MM or a cron expression: %w", s, err)
	}
	return nil
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
