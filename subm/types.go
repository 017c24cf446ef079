package subm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/programme-lv/arena/rating"
)

// Record is one append-only submission log entry, kept for audit,
// anti-cheat review and recomputation. It stores the digest of the
// normalized answer, never the plaintext.
type Record struct {
	UUID        uuid.UUID
	UserUUID    string
	ChallengeID string
	ContestID   string // empty for practice submissions

	AnswerDigest        string
	Correct             bool
	RatingDelta         int
	ElapsedSec          int
	HintUsed            bool
	WrongAttemptsBefore int

	Flagged    bool
	FlagReason string

	CreatedAt time.Time
}

type Repo interface {
	Append(ctx context.Context, rec Record) error

	// HasSolved reports whether the user has a prior correct practice
	// submission for the challenge.
	HasSolved(ctx context.Context, userUUID string, challengeID string) (bool, error)

	// CountWrong returns the user's wrong practice attempts on the
	// challenge so far.
	CountWrong(ctx context.Context, userUUID string, challengeID string) (int, error)

	// RecentAttempts returns submission timestamps of the user on the
	// challenge at or after since, for the sliding-window rate limit.
	RecentAttempts(ctx context.Context, userUUID string, challengeID string, since time.Time) ([]time.Time, error)
}

// Result is what the practice submission endpoint returns.
type Result struct {
	Correct       bool
	AlreadySolved bool

	// Set only for a first-time correct solve.
	RatingDelta int
	Streak      int
	Breakdown   *rating.GainBreakdown

	// Set only for a wrong answer.
	AttemptsRemaining *int
}
