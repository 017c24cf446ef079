package challenge

import (
	"context"
	"sync"
)

// InMemChallengeRepo is used in tests.
type InMemChallengeRepo struct {
	mu         sync.RWMutex
	challenges map[string]Challenge
}

func NewInMemChallengeRepo() *InMemChallengeRepo {
	return &InMemChallengeRepo{
		challenges: make(map[string]Challenge),
	}
}

func (r *InMemChallengeRepo) Get(ctx context.Context, id string) (*Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ch, ok := r.challenges[id]; ok {
		return &ch, nil
	}
	return nil, nil
}

func (r *InMemChallengeRepo) Put(ctx context.Context, ch *Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[ch.ID] = *ch
	return nil
}

func (r *InMemChallengeRepo) AddCounters(ctx context.Context, id string, solvedDelta int, attemptedDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.challenges[id]
	ch.SolvedCount += solvedDelta
	ch.AttemptedCount += attemptedDelta
	r.challenges[id] = ch
	return nil
}
