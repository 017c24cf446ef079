package contest

import (
	"context"
	"sync"
	"time"
)

// InMemContestRepo is an in-memory Repo used in tests. It reproduces the
// conditional-write semantics of the DynamoDB implementation.
type InMemContestRepo struct {
	mu           sync.Mutex
	contests     map[string]*Contest
	participants map[string]map[string]*Participant // contestID -> userUUID
	attempts     map[string]*Attempt                // contestID|userUUID|challengeID
}

func NewInMemContestRepo() *InMemContestRepo {
	return &InMemContestRepo{
		contests:     map[string]*Contest{},
		participants: map[string]map[string]*Participant{},
		attempts:     map[string]*Attempt{},
	}
}

func attemptKey(contestID, userUUID, challengeID string) string {
	return contestID + "|" + userUUID + "|" + challengeID
}

func (r *InMemContestRepo) GetContest(ctx context.Context, id string) (*Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.ChallengeIDs = append([]string{}, c.ChallengeIDs...)
	cp.TopRankings = append([]RankingEntry{}, c.TopRankings...)
	return &cp, nil
}

func (r *InMemContestRepo) PutContest(ctx context.Context, c *Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.contests[c.ID] = &cp
	return nil
}

func (r *InMemContestRepo) ListDueContests(ctx context.Context, now time.Time) ([]*Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*Contest
	for _, c := range r.contests {
		if c.IsActive && !c.Finalized && now.After(c.EndAt) {
			cp := *c
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (r *InMemContestRepo) Register(ctx context.Context, p *Participant, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[p.ContestID]
	if !ok {
		return ErrConditionFailed
	}
	if r.participants[p.ContestID] == nil {
		r.participants[p.ContestID] = map[string]*Participant{}
	}
	if _, exists := r.participants[p.ContestID][p.UserUUID]; exists {
		return ErrConditionFailed
	}
	if c.ParticipantCount >= capacity {
		return ErrConditionFailed
	}
	cp := *p
	r.participants[p.ContestID][p.UserUUID] = &cp
	c.ParticipantCount++
	return nil
}

func (r *InMemContestRepo) GetParticipant(ctx context.Context, contestID string, userUUID string) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[contestID][userUUID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *InMemContestRepo) PutParticipant(ctx context.Context, p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.participants[p.ContestID] == nil {
		r.participants[p.ContestID] = map[string]*Participant{}
	}
	cp := *p
	r.participants[p.ContestID][p.UserUUID] = &cp
	return nil
}

func (r *InMemContestRepo) ListParticipants(ctx context.Context, contestID string) ([]*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Participant
	for _, p := range r.participants[contestID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *InMemContestRepo) GetAttempt(ctx context.Context, contestID string, userUUID string, challengeID string) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[attemptKey(contestID, userUUID, challengeID)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *InMemContestRepo) RecordWrongAttempt(ctx context.Context, contestID string, userUUID string, challengeID string, at time.Time, penaltySec int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attemptKey(contestID, userUUID, challengeID)
	a, ok := r.attempts[key]
	if !ok {
		a = &Attempt{ContestID: contestID, UserUUID: userUUID, ChallengeID: challengeID}
		r.attempts[key] = a
	}
	a.WrongCount++
	t := at
	a.LastWrongAt = &t
	if p, ok := r.participants[contestID][userUUID]; ok {
		p.PenaltySec += penaltySec
	}
	return nil
}

func (r *InMemContestRepo) ApplySolve(ctx context.Context, contestID string, userUUID string, challengeID string, points int, hintUsed bool, at time.Time, totalChallenges int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attemptKey(contestID, userUUID, challengeID)
	a, ok := r.attempts[key]
	if !ok {
		a = &Attempt{ContestID: contestID, UserUUID: userUUID, ChallengeID: challengeID}
		r.attempts[key] = a
	}
	if a.Solved {
		return 0, ErrConditionFailed
	}
	a.Solved = true
	a.PointsEarned = points
	a.HintUsed = hintUsed

	p, ok := r.participants[contestID][userUUID]
	if !ok {
		return 0, ErrConditionFailed
	}
	p.Score += points
	p.SolveCount++
	if p.SolveCount == totalChallenges && p.FinishedAt == nil {
		t := at
		p.FinishedAt = &t
	}
	return p.SolveCount, nil
}

func (r *InMemContestRepo) MarkFinalized(ctx context.Context, contestID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[contestID]
	if !ok || c.Finalized {
		return false, nil
	}
	c.Finalized = true
	return true, nil
}

func (r *InMemContestRepo) SealParticipant(ctx context.Context, contestID string, userUUID string, rank int, award int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[contestID][userUUID]
	if !ok {
		return nil
	}
	p.FinalRank = rank
	p.RatingAward = award
	return nil
}

func (r *InMemContestRepo) SetTopRankings(ctx context.Context, contestID string, entries []RankingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[contestID]
	if !ok {
		return nil
	}
	c.TopRankings = append([]RankingEntry{}, entries...)
	return nil
}
