// Package storage keeps the summaries of finished episodes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EpisodeRecord is one finished episode of one run.
type EpisodeRecord struct {
	RunID      string
	Episode    int
	Ticks      int
	Agents     int
	Crashes    int
	Pickups    int
	Deliveries int
	Pending    int
	Reward     float64
	FinishedAt time.Time
}

// Store persists episode records. Saving an existing (RunID, Episode) pair
// replaces it.
type Store interface {
	Init(ctx context.Context) error
	SaveEpisode(ctx context.Context, record EpisodeRecord) error
	// ListEpisodes returns the run's records ordered by episode.
	ListEpisodes(ctx context.Context, runID string) ([]EpisodeRecord, error)
}

var (
	ErrNotInitialized error = errors.New("store is not initialized")
	ErrNoRunID        error = errors.New("episode record has no run id")
)

// NewRunID returns a fresh identifier for a simulation run.
func NewRunID() string {
	return uuid.NewString()
}
