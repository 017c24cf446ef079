package user

import (
	"context"
	"sync"
	"time"

	"github.com/programme-lv/arena/rating"
	"github.com/programme-lv/arena/streak"
)

// InMemUserRepo is used in tests.
type InMemUserRepo struct {
	mu    sync.RWMutex
	users map[string]RatingState
}

func NewInMemUserRepo() *InMemUserRepo {
	return &InMemUserRepo{
		users: make(map[string]RatingState),
	}
}

func (r *InMemUserRepo) Get(ctx context.Context, userUUID string) (*RatingState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.users[userUUID]; ok {
		return &st, nil
	}
	return nil, nil
}

func (r *InMemUserRepo) Put(ctx context.Context, st *RatingState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[st.UUID] = *st
	return nil
}

func (r *InMemUserRepo) List(ctx context.Context) ([]*RatingState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make([]*RatingState, 0, len(r.users))
	for _, st := range r.users {
		stCopy := st
		states = append(states, &stCopy)
	}
	return states, nil
}

func (r *InMemUserRepo) ApplySolveReward(ctx context.Context, userUUID string, reward SolveReward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	st.Rating += reward.RatingDelta
	st.WeeklyRating += reward.RatingDelta
	st.MonthlyRating += reward.RatingDelta
	switch reward.Difficulty {
	case rating.DifficultyEasy:
		st.SolvedEasy++
	case rating.DifficultyMedium:
		st.SolvedMedium++
	case rating.DifficultyHard:
		st.SolvedHard++
	}
	st.SubmsToday++
	st.CurrentStreak = reward.Streak.Current
	st.MaxStreak = reward.Streak.Max
	st.LastActiveDay = reward.Streak.LastActiveDay
	r.users[userUUID] = st
	return nil
}

func (r *InMemUserRepo) AddRating(ctx context.Context, userUUID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	st.Rating += delta
	st.WeeklyRating += delta
	st.MonthlyRating += delta
	r.users[userUUID] = st
	return nil
}

func (r *InMemUserRepo) AddSubmToday(ctx context.Context, userUUID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	st.SubmsToday += delta
	r.users[userUUID] = st
	return nil
}

func (r *InMemUserRepo) ConsumeFreeze(ctx context.Context, userUUID string, expectedLastActive time.Time, coveredDay time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.users[userUUID]
	if !ok {
		return false, nil
	}
	if st.FreezeCredits < 1 || !st.LastActiveDay.Equal(streak.DayOf(expectedLastActive)) {
		return false, nil
	}
	st.FreezeCredits--
	st.LastActiveDay = streak.DayOf(coveredDay)
	r.users[userUUID] = st
	return true, nil
}

func (r *InMemUserRepo) SetFreezeCredits(ctx context.Context, userUUID string, credits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	st.FreezeCredits = credits
	r.users[userUUID] = st
	return nil
}

func (r *InMemUserRepo) ResetSubmsToday(ctx context.Context, userUUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	st.SubmsToday = 0
	r.users[userUUID] = st
	return nil
}

func (r *InMemUserRepo) ResetRollingRating(ctx context.Context, userUUID string, weekly bool, monthly bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.users[userUUID]
	st.UUID = userUUID
	if weekly {
		st.WeeklyRating = 0
	}
	if monthly {
		st.MonthlyRating = 0
	}
	r.users[userUUID] = st
	return nil
}
