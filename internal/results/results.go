// Package results archives finished run reports in a local SQLite database
// so runs can be compared later.
package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	scenario    TEXT NOT NULL,
	report      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// DB is the run archive.
type DB struct {
	db *sql.DB
}

// Open creates or opens the archive at dataDir/drover.db. WAL mode keeps
// concurrent readers off the writer's back.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "drover.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Save stores one report under the scenario name and returns the run id.
func (d *DB) Save(scenario string, report any) (int64, error) {
	enc, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}
	res, err := d.db.Exec(
		"INSERT INTO runs (created_at, scenario, report) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), scenario, string(enc),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// RunSummary is one archive row without the report body.
type RunSummary struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"createdAt"`
	Scenario  string `json:"scenario"`
}

// List returns the most recent runs, newest first.
func (d *DB) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		"SELECT id, created_at, scenario FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Scenario); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the stored report for one run.
func (d *DB) Get(id int64) (json.RawMessage, error) {
	var report string
	err := d.db.QueryRow("SELECT report FROM runs WHERE id = ?", id).Scan(&report)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", id, err)
	}
	return json.RawMessage(report), nil
}
