package contest

import (
	"context"
	"time"
)

// Contest is the contest header document. Finalized transitions
// false -> true exactly once; it is the idempotency guard for the
// finalizer.
type Contest struct {
	ID                   string
	Title                string
	StartAt              time.Time
	EndAt                time.Time
	RegistrationDeadline time.Time
	ChallengeIDs         []string
	DifficultyMultiplier float64
	Capacity             int
	ProOnly              bool

	IsActive         bool
	Finalized        bool
	ParticipantCount int

	// TopRankings is the denormalized final scoreboard snapshot,
	// written once by the finalizer.
	TopRankings []RankingEntry
}

func (c *Contest) IsLive(now time.Time) bool {
	return !now.Before(c.StartAt) && now.Before(c.EndAt)
}

// Participant is the per-(contest, user) document. Score and SolveCount
// only grow during the live window; FinalRank and RatingAward are
// written only by the finalizer.
type Participant struct {
	ContestID string
	UserUUID  string

	Score      int
	SolveCount int
	PenaltySec int

	RegisteredAt time.Time
	FinishedAt   *time.Time // set once, when every challenge is solved

	FinalRank   int // 0 until finalized
	RatingAward int
}

// Attempt is the per-(participant, challenge) document. It prevents
// re-solving and drives the wrong-answer cooldown.
type Attempt struct {
	ContestID   string
	UserUUID    string
	ChallengeID string

	Solved       bool
	WrongCount   int
	LastWrongAt  *time.Time
	PointsEarned int
	HintUsed     bool
}

type RankingEntry struct {
	Rank       int    `json:"rank" dynamo:"rank"`
	UserUUID   string `json:"user_uuid" dynamo:"user_uuid"`
	Score      int    `json:"score" dynamo:"score"`
	SolveCount int    `json:"solve_count" dynamo:"solve_count"`
	PenaltySec int    `json:"penalty_sec" dynamo:"penalty_sec"`
	Award      int    `json:"award" dynamo:"award"`
}

type Repo interface {
	GetContest(ctx context.Context, id string) (*Contest, error)
	PutContest(ctx context.Context, c *Contest) error

	// ListDueContests returns active, unfinalized contests whose end
	// time has passed.
	ListDueContests(ctx context.Context, now time.Time) ([]*Contest, error)

	// Register creates the participant document and bumps the contest
	// participant count as one atomic unit. Fails with
	// ErrConditionFailed when the user is already registered or the
	// contest is full (the caller re-reads to tell which).
	Register(ctx context.Context, p *Participant, capacity int) error

	GetParticipant(ctx context.Context, contestID string, userUUID string) (*Participant, error)
	PutParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, contestID string) ([]*Participant, error)

	GetAttempt(ctx context.Context, contestID string, userUUID string, challengeID string) (*Attempt, error)

	// RecordWrongAttempt bumps the attempt's wrong counter, stamps the
	// cooldown timestamp and accrues the penalty on the participant.
	RecordWrongAttempt(ctx context.Context, contestID string, userUUID string, challengeID string, at time.Time, penaltySec int) error

	// ApplySolve marks the attempt solved and adds the points to the
	// participant as single-document atomic writes; when the solve
	// count reaches totalChallenges the finish timestamp is recorded
	// exactly once. Returns the participant's new solve count, or
	// ErrConditionFailed when the attempt was already solved.
	ApplySolve(ctx context.Context, contestID string, userUUID string, challengeID string, points int, hintUsed bool, at time.Time, totalChallenges int) (int, error)

	// MarkFinalized flips finalized false -> true as one conditional
	// write. Returns false when another run already finalized the
	// contest.
	MarkFinalized(ctx context.Context, contestID string) (bool, error)

	// SealParticipant records the final rank and rating award.
	SealParticipant(ctx context.Context, contestID string, userUUID string, rank int, award int) error

	SetTopRankings(ctx context.Context, contestID string, entries []RankingEntry) error
}
