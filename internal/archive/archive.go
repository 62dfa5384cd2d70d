// Package archive persists finished runs to SQLite: start parameters, the
// per-agent disaster events, the model call log and the final scores. The
// engine only ever writes here; nothing is read back during a run.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/gzip"
	_ "modernc.org/sqlite"

	"github.com/talgya/ai-town/internal/disaster"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/protocol"
)

// Archive wraps the run database. A nil Archive is valid and drops every
// write, which is how the server runs when no archive path is configured.
type Archive struct {
	db   *sqlx.DB
	dir  string
	log  *slog.Logger
}

// Open opens or creates the run database at dir/runs.db. An empty dir
// disables archiving and returns nil.
func Open(dir string, log *slog.Logger) (*Archive, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", filepath.Join(dir, "runs.db")+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	a := &Archive{db: db, dir: dir, log: log}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		params_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS disaster_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		agent TEXT NOT NULL,
		kind TEXT NOT NULL,
		at TEXT NOT NULL,
		details_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS llm_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		at TEXT NOT NULL,
		prompt_key TEXT NOT NULL,
		prompt TEXT NOT NULL,
		raw TEXT NOT NULL,
		parsed TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scores (
		run_id TEXT NOT NULL,
		agent TEXT NOT NULL,
		loss_score REAL NOT NULL,
		response_score REAL NOT NULL,
		coop_score REAL NOT NULL,
		total_score REAL NOT NULL,
		coop_events INTEGER NOT NULL,
		notes TEXT NOT NULL,
		PRIMARY KEY (run_id, agent)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON disaster_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_calls_run ON llm_calls(run_id);
	`
	_, err := a.db.Exec(schema)
	return err
}

// BeginRun records the start of a run and returns its id.
func (a *Archive) BeginRun(params *protocol.StartParams) string {
	if a == nil {
		return ""
	}
	id := uuid.NewString()
	raw, err := json.Marshal(params)
	if err != nil {
		a.log.Warn("archive: marshal run params", "err", err)
		raw = []byte("{}")
	}
	_, err = a.db.Exec(
		`INSERT INTO runs (id, started_at, params_json) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), string(raw),
	)
	if err != nil {
		a.log.Warn("archive: insert run", "err", err)
		return ""
	}
	return id
}

// FinishRun stores the terminal state of a run: scores, events and the model
// call log, plus a gzip JSON dump of the report next to the database. Every
// write is best effort.
func (a *Archive) FinishRun(runID string, report *disaster.Report, events map[string][]disaster.Event, calls []llm.CallRecord) {
	if a == nil || runID == "" {
		return
	}

	tx, err := a.db.Beginx()
	if err != nil {
		a.log.Warn("archive: begin finish tx", "err", err)
		return
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, now, runID); err != nil {
		a.log.Warn("archive: finish run", "err", err)
		return
	}

	for agent, evs := range events {
		for _, ev := range evs {
			details, err := json.Marshal(ev.Details)
			if err != nil {
				details = []byte("{}")
			}
			if _, err := tx.Exec(
				`INSERT INTO disaster_events (run_id, agent, kind, at, details_json) VALUES (?, ?, ?, ?, ?)`,
				runID, agent, ev.Kind, ev.Time.Format(time.RFC3339), string(details),
			); err != nil {
				a.log.Warn("archive: insert event", "agent", agent, "err", err)
			}
		}
	}

	for _, rec := range calls {
		if _, err := tx.Exec(
			`INSERT INTO llm_calls (run_id, at, prompt_key, prompt, raw, parsed) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, rec.Time.Format(time.RFC3339), rec.Key, rec.Prompt, rec.Raw, rec.Parsed,
		); err != nil {
			a.log.Warn("archive: insert llm call", "err", err)
		}
	}

	if report != nil {
		for agent, score := range report.Scores {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO scores (run_id, agent, loss_score, response_score, coop_score, total_score, coop_events, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, agent, score.Loss, score.Response, score.Coop, score.Total, score.CoopEvents, score.Notes,
			); err != nil {
				a.log.Warn("archive: insert score", "agent", agent, "err", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		a.log.Warn("archive: commit finish", "err", err)
		return
	}

	if report != nil {
		if err := a.dumpReport(runID, report); err != nil {
			a.log.Warn("archive: dump report", "run", runID, "err", err)
		}
	}
	a.log.Info("run archived", "run", runID)
}

// dumpReport writes report-<run>.json.gz into the archive directory.
func (a *Archive) dumpReport(runID string, report *disaster.Report) error {
	path := filepath.Join(a.dir, "report-"+runID+".json.gz")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Sync()
}
