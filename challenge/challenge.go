package challenge

import (
	"context"

	"github.com/programme-lv/arena/answer"
	"github.com/programme-lv/arena/rating"
)

// Challenge is one puzzle. The answer digest is immutable once the
// challenge is published; only the aggregate counters ever change, and
// only by atomic increment.
type Challenge struct {
	ID               string
	Title            string
	Difficulty       rating.Difficulty
	ExpectedSolveSec int
	BasePoints       int // contest scoring; practice uses the tier base
	AnswerDigest     string
	NormRules        answer.Rules
	Hint             *string

	SolvedCount    int
	AttemptedCount int
}

type Repo interface {
	// Get returns nil, nil when the challenge does not exist.
	Get(ctx context.Context, id string) (*Challenge, error)
	Put(ctx context.Context, ch *Challenge) error
	// AddCounters atomically increments the aggregate solve/attempt
	// counters. Deltas are non-negative; the counters only grow.
	AddCounters(ctx context.Context, id string, solvedDelta int, attemptedDelta int) error
}
