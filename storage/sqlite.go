package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a sqlite database file, one row per
// (run, episode).
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. The file and its
// tables are created by Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveEpisode(ctx context.Context, record EpisodeRecord) error {
	if record.RunID == "" {
		return ErrNoRunID
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, ticks, agents, crashes, pickups, deliveries, pending, reward, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			ticks = excluded.ticks,
			agents = excluded.agents,
			crashes = excluded.crashes,
			pickups = excluded.pickups,
			deliveries = excluded.deliveries,
			pending = excluded.pending,
			reward = excluded.reward,
			finished_at = excluded.finished_at
	`, record.RunID, record.Episode, record.Ticks, record.Agents, record.Crashes,
		record.Pickups, record.Deliveries, record.Pending, record.Reward,
		record.FinishedAt.UnixNano())
	return err
}

func (s *SQLiteStore) ListEpisodes(ctx context.Context, runID string) ([]EpisodeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT episode, ticks, agents, crashes, pickups, deliveries, pending, reward, finished_at
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []EpisodeRecord{}
	for rows.Next() {
		record := EpisodeRecord{RunID: runID}
		var finishedAt int64
		if err := rows.Scan(&record.Episode, &record.Ticks, &record.Agents, &record.Crashes,
			&record.Pickups, &record.Deliveries, &record.Pending, &record.Reward, &finishedAt); err != nil {
			return nil, err
		}
		record.FinishedAt = time.Unix(0, finishedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the database handle. Safe to repeat.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			crashes INTEGER NOT NULL,
			pickups INTEGER NOT NULL,
			deliveries INTEGER NOT NULL,
			pending INTEGER NOT NULL,
			reward REAL NOT NULL,
			finished_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);
	`)
	return err
}
