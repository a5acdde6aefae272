package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"text-tagger/learner"
	"text-tagger/model"
)

// Run is the recorded outcome of one pipeline cycle.
type Run struct {
	ID           int64
	StartedAt    int64 // Unix timestamp
	DurationMs   int64
	Status       string // "success" or "error"
	Error        string
	Documents    int
	Tags         int
	ApprovalRate float64 // percent, 0-100
	Learned      int
	Boosted      int
	Penalized    int
}

// TagWeight is one row of the current weight table.
type TagWeight struct {
	Tag    string
	Weight float64
	Rate   float64 // approval rate the weight was derived from
}

// TagStat aggregates every stored feedback record for a tag.
type TagStat struct {
	Tag      string
	Approved int
	Rejected int
}

// Store provides SQLite-backed persistence for runs, feedback records, tag weights, and settings.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER,
	duration_ms INTEGER,
	status TEXT,
	error TEXT,
	documents INTEGER,
	tags INTEGER,
	approval_rate REAL,
	learned INTEGER,
	boosted INTEGER,
	penalized INTEGER
);

CREATE TABLE IF NOT EXISTS feedback (
	run_id INTEGER,
	filename TEXT,
	tag TEXT,
	status TEXT,
	relevance_score REAL
);

CREATE INDEX IF NOT EXISTS feedback_run_idx ON feedback (run_id);

CREATE TABLE IF NOT EXISTS tag_weights (
	tag TEXT PRIMARY KEY,
	weight REAL DEFAULT 1.0,
	rate REAL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run record and returns its assigned ID.
func (s *Store) SaveRun(r *Run) (int64, error) {
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().Unix()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (started_at, duration_ms, status, error, documents, tags, approval_rate, learned, boosted, penalized)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.DurationMs, r.Status, r.Error, r.Documents, r.Tags, r.ApprovalRate, r.Learned, r.Boosted, r.Penalized,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: save run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: save run id: %w", err)
	}
	r.ID = id
	return id, nil
}

// GetRecentRuns returns up to limit runs, newest first.
func (s *Store) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, duration_ms, status, error, documents, tags, approval_rate, learned, boosted, penalized
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationMs, &r.Status, &r.Error,
			&r.Documents, &r.Tags, &r.ApprovalRate, &r.Learned, &r.Boosted, &r.Penalized); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate runs: %w", err)
	}
	return runs, nil
}

// SaveFeedback stores every record of a run in one transaction.
func (s *Store) SaveFeedback(runID int64, docs []model.DocumentFeedback) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin save feedback: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO feedback (run_id, filename, tag, status, relevance_score) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: prepare save feedback: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		for _, r := range doc.Feedback {
			if _, err := stmt.Exec(runID, doc.Filename, r.Tag, string(r.Status), r.RelevanceScore); err != nil {
				return fmt.Errorf("storage: save feedback %q/%q: %w", doc.Filename, r.Tag, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit save feedback: %w", err)
	}
	return nil
}

// GetRunFeedback returns the records stored for a run, grouped by filename
// in insertion order.
func (s *Store) GetRunFeedback(runID int64) ([]model.DocumentFeedback, error) {
	rows, err := s.db.Query(
		`SELECT filename, tag, status, relevance_score FROM feedback WHERE run_id = ? ORDER BY rowid`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get run feedback %d: %w", runID, err)
	}
	defer rows.Close()

	var docs []model.DocumentFeedback
	index := make(map[string]int)
	for rows.Next() {
		var filename, status string
		var r model.Record
		if err := rows.Scan(&filename, &r.Tag, &status, &r.RelevanceScore); err != nil {
			return nil, fmt.Errorf("storage: scan feedback: %w", err)
		}
		r.Status = model.Status(status)

		i, ok := index[filename]
		if !ok {
			i = len(docs)
			index[filename] = i
			docs = append(docs, model.DocumentFeedback{Filename: filename})
		}
		docs[i].Feedback = append(docs[i].Feedback, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate feedback: %w", err)
	}
	return docs, nil
}

// GetTagStats returns approval counts per lower-cased tag across all runs,
// most frequently seen first.
func (s *Store) GetTagStats(limit int) ([]TagStat, error) {
	rows, err := s.db.Query(
		`SELECT LOWER(tag) AS t,
		        SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END)
		 FROM feedback
		 GROUP BY t
		 ORDER BY COUNT(*) DESC, t ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get tag stats: %w", err)
	}
	defer rows.Close()

	var stats []TagStat
	for rows.Next() {
		var st TagStat
		if err := rows.Scan(&st.Tag, &st.Approved, &st.Rejected); err != nil {
			return nil, fmt.Errorf("storage: scan tag stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate tag stats: %w", err)
	}
	return stats, nil
}

// ReplaceTagWeights swaps the whole weight table in a single transaction.
// rates may be nil.
func (s *Store) ReplaceTagWeights(table learner.Table, rates learner.Rates) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin replace tag weights: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tag_weights`); err != nil {
		return fmt.Errorf("storage: clear tag weights: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO tag_weights (tag, weight, rate) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare replace tag weights: %w", err)
	}
	defer stmt.Close()

	for tag, w := range table {
		key := strings.ToLower(tag)
		if _, err := stmt.Exec(key, w, rates[key]); err != nil {
			return fmt.Errorf("storage: insert tag weight %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit replace tag weights: %w", err)
	}
	return nil
}

// GetWeightTable returns the current weight table as a snapshot.
func (s *Store) GetWeightTable() (learner.Table, error) {
	weights, err := s.GetTagWeights()
	if err != nil {
		return nil, err
	}
	table := make(learner.Table, len(weights))
	for _, tw := range weights {
		table[tw.Tag] = tw.Weight
	}
	return table, nil
}

// GetTagWeights returns all tag weights from the database.
func (s *Store) GetTagWeights() ([]TagWeight, error) {
	rows, err := s.db.Query(`SELECT tag, weight, rate FROM tag_weights ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("storage: get tag weights: %w", err)
	}
	defer rows.Close()

	var weights []TagWeight
	for rows.Next() {
		var tw TagWeight
		if err := rows.Scan(&tw.Tag, &tw.Weight, &tw.Rate); err != nil {
			return nil, fmt.Errorf("storage: scan tag weight: %w", err)
		}
		weights = append(weights, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate tag weights: %w", err)
	}
	return weights, nil
}

// GetTopTagWeights returns the top N tag weights ordered by weight descending.
func (s *Store) GetTopTagWeights(limit int) ([]TagWeight, error) {
	rows, err := s.db.Query(
		`SELECT tag, weight, rate FROM tag_weights ORDER BY weight DESC, tag ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get top tag weights: %w", err)
	}
	defer rows.Close()

	var weights []TagWeight
	for rows.Next() {
		var tw TagWeight
		if err := rows.Scan(&tw.Tag, &tw.Weight, &tw.Rate); err != nil {
			return nil, fmt.Errorf("storage: scan top tag weight: %w", err)
		}
		weights = append(weights, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate top tag weights: %w", err)
	}
	return weights, nil
}

// GetSetting returns the value for the given settings key.
// Returns an empty string if the key is not found.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting key-value pair.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: set setting %q: %w", key, err)
	}
	return nil
}
