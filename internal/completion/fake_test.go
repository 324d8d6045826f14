package completion

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// memoryRepo mimics the transactional repository in memory.
type memoryRepo struct {
	mu           sync.Mutex
	results      map[uuid.UUID]Result
	progress     map[uuid.UUID]Progress
	achievements map[uuid.UUID][]string
	failures     int
	saves        int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		results:      make(map[uuid.UUID]Result),
		progress:     make(map[uuid.UUID]Progress),
		achievements: make(map[uuid.UUID][]string),
	}
}

func (r *memoryRepo) FindBySession(_ context.Context, sessionID uuid.UUID) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[sessionID]; ok {
		return &res, nil
	}
	return nil, nil
}

func (r *memoryRepo) Save(_ context.Context, result Result, advance ProgressFunc) (Saved, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return Saved{}, errors.New("deadlock detected")
	}
	if existing, ok := r.results[result.SessionID]; ok {
		return Saved{Result: existing, Duplicate: true}, nil
	}
	r.saves++
	result.ID = uuid.New()
	r.results[result.SessionID] = result

	cur, ok := r.progress[result.UserID]
	if !ok {
		cur = Progress{Level: 1}
	}
	next, unlocked := advance(cur, r.achievements[result.UserID])
	r.progress[result.UserID] = next
	r.achievements[result.UserID] = append(r.achievements[result.UserID], unlocked...)
	return Saved{Result: result, Progress: next, Unlocked: unlocked}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[uuid.UUID][]string
}

func (n *recordingNotifier) AnnounceAchievements(_ context.Context, userID uuid.UUID, codes []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = make(map[uuid.UUID][]string)
	}
	n.calls[userID] = append(n.calls[userID], codes...)
}

type recordingCache struct {
	invalidated []uuid.UUID
}

func (c *recordingCache) Invalidate(_ context.Context, quizID uuid.UUID) error {
	c.invalidated = append(c.invalidated, quizID)
	return nil
}
