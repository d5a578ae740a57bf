package history

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore implements Store with an in-memory map.
type MemoryStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
	}
}

// Record stores a copy of job.
func (s *MemoryStore) Record(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

// Get returns a copy of the job with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	jobCopy := *job
	return &jobCopy, nil
}

// List returns copies of matching jobs ordered by StartedAt.
func (s *MemoryStore) List(ctx context.Context, query *Query) ([]*Job, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.RLock()
	results := make([]*Job, 0)
	for _, job := range s.jobs {
		if matchesQuery(job, query) {
			jobCopy := *job
			results = append(results, &jobCopy)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(results, func(a, b *Job) int {
		c := a.StartedAt.Compare(b.StartedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if query.SortOrder != "asc" {
			c = -c
		}
		return c
	})

	start := min(query.Offset, len(results))
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	end := min(start+limit, len(results))
	return results[start:end], nil
}

// Count returns the number of matching jobs.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, job := range s.jobs {
		if matchesQuery(job, query) {
			n++
		}
	}
	return n, nil
}

// Delete removes matching jobs.
func (s *MemoryStore) Delete(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, job := range s.jobs {
		if matchesQuery(job, query) {
			delete(s.jobs, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func matchesQuery(job *Job, query *Query) bool {
	if query.StartTime != nil && job.StartedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && job.StartedAt.After(*query.EndTime) {
		return false
	}
	if query.Status != "" && job.Status != query.Status {
		return false
	}
	if query.Format != "" && job.Format != query.Format {
		return false
	}
	if query.Source != "" && job.Source != query.Source {
		return false
	}
	if len(query.IDs) > 0 && !slices.Contains(query.IDs, job.ID) {
		return false
	}
	return true
}
