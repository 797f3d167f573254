// Package catalog provides SQLite-based indexing of recordings and their
// room runs, so runs of the same room can be found across many logs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tickrec/internal/config"
	"github.com/vovakirdan/tickrec/internal/model"
	"github.com/vovakirdan/tickrec/internal/replay"
)

// Store manages the SQLite database connection of the catalog.
type Store struct {
	db *sql.DB
}

// Recording is one catalogued log file.
type Recording struct {
	ID          int64
	Path        string
	Version     uint16
	Frames      int
	Checkpoints int
	IgtSeconds  uint32 // in-game time at the last frame
	SizeBytes   int64
	Partial     bool // the log ended in a damaged record
	IndexedAt   time.Time
}

// Run is a room run of a catalogued recording.
type Run struct {
	RecordingID int64
	Path        string
	Index       int
	replay.RoomRun
}

// RoomStats aggregates the runs of one room across all recordings.
type RoomStats struct {
	Room        model.RoomID
	Runs        int
	Recordings  int
	TotalFrames int64
	AvgFrames   float64
	Shortest    int
}

// AnyPlayer matches every scenario/player selector in FindRuns.
const AnyPlayer = -1

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := config.ExpandPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recordings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			checkpoints INTEGER NOT NULL,
			igt_seconds INTEGER NOT NULL DEFAULT 0,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			partial INTEGER NOT NULL DEFAULT 0,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS room_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id INTEGER NOT NULL REFERENCES recordings(id),
			run_index INTEGER NOT NULL,
			start_frame INTEGER NOT NULL,
			length INTEGER NOT NULL,
			stage INTEGER NOT NULL,
			room INTEGER NOT NULL,
			player INTEGER NOT NULL,
			new_game INTEGER NOT NULL DEFAULT 0,
			igt_seconds INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_room_runs_room ON room_runs(stage, room, player);
		CREATE INDEX IF NOT EXISTS idx_room_runs_recording ON room_runs(recording_id, run_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRecording stores rec and its room runs, replacing any earlier entry for
// the same path. Returns the ID of the recording.
func (s *Store) SaveRecording(rec Recording, runs []replay.RoomRun) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := deleteRecording(tx, rec.Path); err != nil {
		return 0, fmt.Errorf("catalog: cannot replace recording: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO recordings (path, version, frames, checkpoints, igt_seconds, size_bytes, partial)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Version, rec.Frames, rec.Checkpoints, rec.IgtSeconds, rec.SizeBytes, boolInt(rec.Partial),
	)
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot save recording: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot get inserted ID: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO room_runs (recording_id, run_index, start_frame, length, stage, room, player, new_game, igt_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot prepare run insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range runs {
		if _, err := stmt.Exec(id, i, r.Start, r.Length, r.Room.Stage, r.Room.Room, r.Room.Player, boolInt(r.NewGame), r.IgtSeconds); err != nil {
			return 0, fmt.Errorf("catalog: cannot save run %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: cannot commit: %w", err)
	}
	return id, nil
}

const recordingColumns = `id, path, version, frames, checkpoints, igt_seconds, size_bytes, partial, indexed_at`

func scanRecording(row interface{ Scan(...any) error }) (Recording, error) {
	var r Recording
	var indexedAt any
	err := row.Scan(&r.ID, &r.Path, &r.Version, &r.Frames, &r.Checkpoints, &r.IgtSeconds, &r.SizeBytes, &r.Partial, &indexedAt)
	r.IndexedAt = parseTime(indexedAt)
	return r, err
}

// Recordings lists catalogued recordings, most recently indexed first.
func (s *Store) Recordings(limit int) ([]Recording, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT `+recordingColumns+`
		 FROM recordings
		 ORDER BY indexed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: cannot scan row: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: row iteration error: %w", err)
	}
	return out, nil
}

// RecordingByPath returns the entry for path, or nil if it is not catalogued.
func (s *Store) RecordingByPath(path string) (*Recording, error) {
	r, err := scanRecording(s.db.QueryRow(
		`SELECT `+recordingColumns+` FROM recordings WHERE path = ?`, path,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query recording: %w", err)
	}
	return &r, nil
}

// Remove deletes the entry for path and its runs.
func (s *Store) Remove(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := deleteRecording(tx, path); err != nil {
		return fmt.Errorf("catalog: cannot remove recording: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: cannot commit: %w", err)
	}
	return nil
}

func deleteRecording(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(
		"DELETE FROM room_runs WHERE recording_id IN (SELECT id FROM recordings WHERE path = ?)", path,
	); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM recordings WHERE path = ?", path)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Runs returns the room runs of one recording in frame order.
func (s *Store) Runs(recordingID int64) ([]Run, error) {
	return s.queryRuns(
		`WHERE rr.recording_id = ? ORDER BY rr.run_index`,
		recordingID,
	)
}

// FindRuns returns every run of a room across all recordings, longest
// first. Pass AnyPlayer to ignore the scenario/player selector.
func (s *Store) FindRuns(stage, room uint8, player int) ([]Run, error) {
	return s.queryRuns(
		`WHERE rr.stage = ? AND rr.room = ? AND (? < 0 OR rr.player = ?)
		 ORDER BY rr.length DESC, r.path, rr.run_index`,
		stage, room, player, player,
	)
}

func (s *Store) queryRuns(where string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT rr.recording_id, r.path, rr.run_index, rr.start_frame, rr.length,
		        rr.stage, rr.room, rr.player, rr.new_game, rr.igt_seconds
		 FROM room_runs rr JOIN recordings r ON r.id = rr.recording_id
		 `+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.RecordingID, &r.Path, &r.Index, &r.Start, &r.Length,
			&r.Room.Stage, &r.Room.Room, &r.Room.Player, &r.NewGame, &r.IgtSeconds,
		); err != nil {
			return nil, fmt.Errorf("catalog: cannot scan run: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: row iteration error: %w", err)
	}
	return out, nil
}

// AllRoomStats aggregates runs per room across all recordings.
func (s *Store) AllRoomStats() ([]RoomStats, error) {
	rows, err := s.db.Query(
		`SELECT stage, room, player, COUNT(*), COUNT(DISTINCT recording_id),
		        SUM(length), AVG(length), MIN(length)
		 FROM room_runs
		 GROUP BY stage, room, player
		 ORDER BY stage, room, player`,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot get room stats: %w", err)
	}
	defer rows.Close()

	var out []RoomStats
	for rows.Next() {
		var st RoomStats
		if err := rows.Scan(
			&st.Room.Stage, &st.Room.Room, &st.Room.Player, &st.Runs, &st.Recordings,
			&st.TotalFrames, &st.AvgFrames, &st.Shortest,
		); err != nil {
			return nil, fmt.Errorf("catalog: cannot scan stats row: %w", err)
		}
		out = append(out, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: row iteration error: %w", err)
	}
	return out, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
