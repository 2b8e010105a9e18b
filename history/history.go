// Package history keeps a journal of connection events in a local SQLite
// database and summarizes it per OpenVPN session.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/vpn"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT    NOT NULL,
	config_path TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	message     TEXT    NOT NULL,
	at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS events_session ON events (session_id);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// Record is one stored event.
type Record struct {
	ID         int64
	SessionID  string
	ConfigPath string
	Status     string
	Message    string
	Time       time.Time
}

// Session summarizes the events of one OpenVPN process.
type Session struct {
	ID         string
	ConfigPath string
	Started    time.Time
	Ended      time.Time
	// Connected is when the tunnel came up, zero if it never did.
	Connected time.Time
	// Status is the last status the session reported.
	Status  string
	Message string
}

// Duration returns how long the tunnel was up.
func (s Session) Duration() time.Duration {
	if s.Connected.IsZero() {
		return 0
	}
	return s.Ended.Sub(s.Connected)
}

// Journal stores events.
type Journal struct {
	db *sql.DB
}

// DefaultPath returns the journal location in the user's data directory.
func DefaultPath() (string, error) {
	dir, err := common.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.HistoryFileName), nil
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening history: %w", err)
	}
	// One writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("error configuring history (%s): %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating history schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores ev for the configuration at configPath.
func (j *Journal) Record(ctx context.Context, configPath string, ev vpn.Event) error {
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (session_id, config_path, status, message, at) VALUES (?, ?, ?, ?, ?)`,
		ev.SessionID, configPath, ev.Status.String(), ev.Message, at.UnixNano())
	if err != nil {
		return fmt.Errorf("error recording event: %w", err)
	}
	return nil
}

// Events returns the most recent events, newest first.
func (j *Journal) Events(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, config_path, status, message, at
		   FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var at int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ConfigPath, &r.Status, &r.Message, &at); err != nil {
			return nil, fmt.Errorf("error reading history: %w", err)
		}
		r.Time = time.Unix(0, at)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Sessions returns the most recent sessions, newest first. Events that
// belong to no process, such as a missing config file, are not listed.
func (j *Journal) Sessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT e.session_id, MIN(e.config_path), MIN(e.at), MAX(e.at),
		       (SELECT MIN(c.at) FROM events c
		         WHERE c.session_id = e.session_id AND c.status = ?),
		       (SELECT l.status FROM events l
		         WHERE l.session_id = e.session_id ORDER BY l.id DESC LIMIT 1),
		       (SELECT l.message FROM events l
		         WHERE l.session_id = e.session_id ORDER BY l.id DESC LIMIT 1)
		  FROM events e
		 WHERE e.session_id != ''
		 GROUP BY e.session_id
		 ORDER BY MAX(e.id) DESC
		 LIMIT ?`, vpn.StatusConnected.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var started, ended int64
		var connected sql.NullInt64
		if err := rows.Scan(&s.ID, &s.ConfigPath, &started, &ended, &connected, &s.Status, &s.Message); err != nil {
			return nil, fmt.Errorf("error reading history: %w", err)
		}
		s.Started = time.Unix(0, started)
		s.Ended = time.Unix(0, ended)
		if connected.Valid {
			s.Connected = time.Unix(0, connected.Int64)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Run records every event until events is closed or ctx is done.
func (j *Journal) Run(ctx context.Context, events <-chan vpn.Event, configPath string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := j.Record(context.Background(), configPath, ev); err != nil {
				common.LogWarn("History: %v", err)
			}
		}
	}
}
