// Package resumestore persists playback_uuid → resume_position_seconds
// across process restarts (SPEC_FULL.md component K). It supplements, but
// never replaces, the in-memory Session.ResumePositionSeconds that is the
// source of truth while a session is live in the registry — it is consulted
// only when insert_new allocates a session for a playback_uuid the registry
// has no in-memory record of.
//
// Grounding note: the teacher's retrieval pack declares pressly/goose/v3 and
// mattn/go-sqlite3 in go.mod but the specific file that wires them
// (internal/database) was not present in the retrieval slice, so this
// package follows goose's and database/sql's standard usage rather than a
// specific teacher file (see DESIGN.md).
package resumestore

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a sqlite-backed resume-position table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies any pending goose migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("resumestore: open %s: %w", path, err)
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("resumestore: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("resumestore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored resume position for playbackUUID, or (0, false)
// if none is recorded.
func (s *Store) Get(playbackUUID string) (float64, bool, error) {
	row := s.db.QueryRow(`SELECT position_seconds FROM resume_positions WHERE playback_uuid = ?`, playbackUUID)
	var position float64
	if err := row.Scan(&position); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("resumestore: get %s: %w", playbackUUID, err)
	}
	return position, true, nil
}

// Set upserts the resume position for playbackUUID.
func (s *Store) Set(playbackUUID string, positionSeconds float64) error {
	_, err := s.db.Exec(`
		INSERT INTO resume_positions (playback_uuid, position_seconds, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(playback_uuid) DO UPDATE SET
			position_seconds = excluded.position_seconds,
			updated_at = excluded.updated_at
	`, playbackUUID, positionSeconds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resumestore: set %s: %w", playbackUUID, err)
	}
	return nil
}
