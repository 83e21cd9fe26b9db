package store

import "database/sql"

// Run holds metadata about one pipeline run.
type Run struct {
	ID             int64
	RanAt          string
	FeedsCount     int
	Found          int
	Accepted       int
	ReportMarkdown string
}

// InsertRun records a completed run and its report.
func (db *DB) InsertRun(feedsCount, found, accepted int, reportMarkdown string) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (feeds_count, found, accepted, report_markdown)
		VALUES (?, ?, ?, ?)`,
		feedsCount, found, accepted, reportMarkdown,
	)
	return err
}

// LatestRun returns the most recent run, or nil if none exists.
func (db *DB) LatestRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, ran_at, feeds_count, found, accepted, report_markdown
		FROM runs ORDER BY id DESC LIMIT 1`,
	)
	var r Run
	err := row.Scan(&r.ID, &r.RanAt, &r.FeedsCount, &r.Found, &r.Accepted, &r.ReportMarkdown)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Stats contains aggregate store statistics.
type Stats struct {
	TotalItems int
	TotalRuns  int
}

// GetStats returns aggregate statistics for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&s.TotalItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&s.TotalRuns); err != nil {
		return nil, err
	}
	return s, nil
}
