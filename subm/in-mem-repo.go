package subm

import (
	"context"
	"sync"
	"time"
)

// InMemSubmRepo is used in tests.
type InMemSubmRepo struct {
	mu   sync.RWMutex
	recs []Record
}

func NewInMemSubmRepo() *InMemSubmRepo {
	return &InMemSubmRepo{}
}

func (r *InMemSubmRepo) Append(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *InMemSubmRepo) HasSolved(ctx context.Context, userUUID string, challengeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recs {
		if rec.UserUUID == userUUID && rec.ChallengeID == challengeID &&
			rec.ContestID == "" && rec.Correct {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemSubmRepo) CountWrong(ctx context.Context, userUUID string, challengeID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, rec := range r.recs {
		if rec.UserUUID == userUUID && rec.ChallengeID == challengeID &&
			rec.ContestID == "" && !rec.Correct {
			count++
		}
	}
	return count, nil
}

func (r *InMemSubmRepo) RecentAttempts(ctx context.Context, userUUID string, challengeID string, since time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var attempts []time.Time
	for _, rec := range r.recs {
		if rec.UserUUID == userUUID && rec.ChallengeID == challengeID &&
			rec.ContestID == "" && !rec.CreatedAt.Before(since) {
			attempts = append(attempts, rec.CreatedAt)
		}
	}
	return attempts, nil
}

// Records returns a copy of the log, newest last.
func (r *InMemSubmRepo) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Record(nil), r.recs...)
}
