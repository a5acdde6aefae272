package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the tagging pipeline on a recurring cron schedule.
// A run that is still in progress when the next one is due causes that
// next run to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	entryID  cron.EntryID
	location *time.Location
}

// New creates a Scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(slogLogger{})),
	)

	return &Scheduler{
		cron:     c,
		location: loc,
	}, nil
}

// Schedule registers task under spec, which is either a daily HH:MM time or
// a standard five-field cron expression. If a previous schedule exists, it
// is replaced.
func (s *Scheduler) Schedule(spec string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expr, err := cronExpr(spec)
	if err != nil {
		return err
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(expr, task)
	if err != nil {
		return fmt.Errorf("adding cron entry: %w", err)
	}

	s.entryID = entryID
	slog.Info("pipeline scheduled", "schedule", spec, "cron", expr, "timezone", s.location.String())
	return nil
}

// Next returns the next activation time, or the zero time when nothing is
// scheduled or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronExpr turns an HH:MM time into a daily cron expression and passes any
// other valid cron expression through.
func cronExpr(spec string) (string, error) {
	if len(spec) == 5 && spec[2] == ':' {
		hour, minute, err := parseTime(spec)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return spec, nil
}

// parseTime extracts hour and minute from HH:MM format.
func parseTime(t string) (int, int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return 0, 0, fmt.Errorf("invalid time format %q: must be HH:MM", t)
		}
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q: hour 0-23, minute 0-59", t)
	}

	return hour, minute, nil
}

// slogLogger routes cron's internal logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
