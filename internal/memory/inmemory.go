package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

type session struct {
	createdAt time.Time
	records   []TurnRecord
}

// InMemoryStore keeps history in process memory. It is the default backend
// when no DATABASE_URL is configured, and the one tests run against.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (s *InMemoryStore) Append(_ context.Context, userID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[userID]
	if sess == nil {
		sess = &session{createdAt: s.now()}
		s.sessions[userID] = sess
	}
	sess.records = append(sess.records, TurnRecord{
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
	return nil
}

func (s *InMemoryStore) RecentContext(_ context.Context, userID string, window int) (string, error) {
	return Transcript(s.tail(userID, window)), nil
}

func (s *InMemoryStore) Summary(_ context.Context, userID string, window int) (string, error) {
	return Transcript(s.tail(userID, window)), nil
}

func (s *InMemoryStore) tail(userID string, window int) []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.sessions[userID]
	if sess == nil || window <= 0 {
		return nil
	}
	rs := sess.records
	if len(rs) > window {
		rs = rs[len(rs)-window:]
	}
	out := make([]TurnRecord, len(rs))
	copy(out, rs)
	return out
}

func (s *InMemoryStore) SweepByAge(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		kept := sess.records[:0]
		for _, r := range sess.records {
			if r.CreatedAt.After(cutoff) {
				kept = append(kept, r)
			} else {
				removed++
			}
		}
		sess.records = kept
		if len(sess.records) == 0 {
			delete(s.sessions, id)
		}
	}
	return removed, nil
}

func (s *InMemoryStore) SweepByCapacity(_ context.Context, maxSessions int) (int, error) {
	if maxSessions <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) <= maxSessions {
		return 0, nil
	}

	type aged struct {
		id        string
		createdAt time.Time
	}
	all := make([]aged, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, aged{id: id, createdAt: sess.createdAt})
	}
	// FIFO over session creation order, not last access
	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.Before(all[j].createdAt) })

	evicted := 0
	for _, a := range all[:len(all)-maxSessions] {
		delete(s.sessions, a.id)
		evicted++
	}
	return evicted, nil
}

func (s *InMemoryStore) ClearUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *InMemoryStore) SessionCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *InMemoryStore) Close() {}
