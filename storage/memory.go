package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory, lost on exit.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int]EpisodeRecord
}

// NewMemoryStore returns an empty store; Init must be called before use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]map[int]EpisodeRecord)
	return nil
}

func (s *MemoryStore) SaveEpisode(_ context.Context, record EpisodeRecord) error {
	if record.RunID == "" {
		return ErrNoRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	episodes, ok := s.runs[record.RunID]
	if !ok {
		episodes = make(map[int]EpisodeRecord)
		s.runs[record.RunID] = episodes
	}
	episodes[record.Episode] = record
	return nil
}

func (s *MemoryStore) ListEpisodes(_ context.Context, runID string) ([]EpisodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	records := make([]EpisodeRecord, 0, len(s.runs[runID]))
	for _, record := range s.runs[runID] {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Episode < records[j].Episode
	})
	return records, nil
}
