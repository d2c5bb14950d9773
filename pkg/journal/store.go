// Package journal keeps a SQLite history of monitoring sessions and their
// state transitions.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so that text order matches time order.
// time.RFC3339Nano parses it back.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a session id is not in the journal.
var ErrNotFound = errors.New("journal: session not found")

// SessionRecord summarises one session.
type SessionRecord struct {
	ID          string         `json:"id"`
	StartedAt   time.Time      `json:"started_at"`
	EndedAt     time.Time      `json:"ended_at,omitempty"` // Zero while running
	Facing      string         `json:"facing"`
	FinalState  guidance.State `json:"final_state"`
	Frames      int64          `json:"frames"`
	Dropped     int64          `json:"dropped"`
	Transitions int64          `json:"transitions"`
	Alerts      int64          `json:"alerts"`
}

// Duration returns how long the session ran, or 0 while it is running.
func (r SessionRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Transition is one recorded state change.
type Transition struct {
	SessionID  string         `json:"session_id"`
	At         time.Time      `json:"at"`
	From       guidance.State `json:"from"`
	To         guidance.State `json:"to"`
	DistanceCm float64        `json:"distance_cm"`
}

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL DEFAULT '',
			facing TEXT NOT NULL DEFAULT '',
			final_state TEXT NOT NULL DEFAULT 'searching',
			frames INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			transitions INTEGER NOT NULL DEFAULT 0,
			alerts INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			session_id TEXT NOT NULL,
			at TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			distance_cm REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_session ON transitions(session_id, at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartSession records a new session. Recording the same id twice is a no-op.
func (s *Store) StartSession(ctx context.Context, id string, startedAt time.Time, facing string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, facing) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET started_at = excluded.started_at, facing = excluded.facing`,
		id, startedAt.UTC().Format(timeLayout), facing)
	return err
}

// EndSession stores the final summary of a session.
func (s *Store) EndSession(ctx context.Context, rec SessionRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, final_state = ?, frames = ?, dropped = ?, transitions = ?, alerts = ?
		 WHERE id = ?`,
		rec.EndedAt.UTC().Format(timeLayout),
		rec.FinalState.String(),
		rec.Frames,
		rec.Dropped,
		rec.Transitions,
		rec.Alerts,
		rec.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTransition appends a state change.
func (s *Store) AddTransition(ctx context.Context, tr Transition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (session_id, at, from_state, to_state, distance_cm) VALUES (?, ?, ?, ?, ?)`,
		tr.SessionID,
		tr.At.UTC().Format(timeLayout),
		tr.From.String(),
		tr.To.String(),
		tr.DistanceCm)
	return err
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, facing, final_state, frames, dropped, transitions, alerts
		 FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, ended, final string
		if err := rows.Scan(&rec.ID, &started, &ended, &rec.Facing, &final,
			&rec.Frames, &rec.Dropped, &rec.Transitions, &rec.Alerts); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		if ended != "" {
			if rec.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
				return nil, err
			}
		}
		if rec.FinalState, err = guidance.ParseState(final); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Transitions returns the state changes of one session in order.
func (s *Store) Transitions(ctx context.Context, sessionID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, from_state, to_state, distance_cm FROM transitions
		 WHERE session_id = ? ORDER BY at, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		tr := Transition{SessionID: sessionID}
		var at, from, to string
		if err := rows.Scan(&at, &from, &to, &tr.DistanceCm); err != nil {
			return nil, err
		}
		if tr.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, err
		}
		if tr.From, err = guidance.ParseState(from); err != nil {
			return nil, err
		}
		if tr.To, err = guidance.ParseState(to); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// StateDurations totals the time spent in each state for one session,
// using the session end (or now, if still running) to close the last state.
func (s *Store) StateDurations(ctx context.Context, sessionID string, now time.Time) (map[guidance.State]time.Duration, error) {
	var started, ended string
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, ended_at FROM sessions WHERE id = ?`, sessionID).Scan(&started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	from, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, err
	}
	end := now
	if ended != "" {
		if end, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, err
		}
	}

	trs, err := s.Transitions(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make(map[guidance.State]time.Duration)
	state := guidance.Searching
	for _, tr := range trs {
		if tr.At.After(from) {
			out[state] += tr.At.Sub(from)
		}
		state, from = tr.To, tr.At
	}
	if end.After(from) {
		out[state] += end.Sub(from)
	}
	return out, nil
}
