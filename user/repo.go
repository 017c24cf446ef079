package user

import (
	"context"
	"time"
)

type Repo interface {
	// Get returns nil, nil when the user has no rating state yet.
	Get(ctx context.Context, userUUID string) (*RatingState, error)
	Put(ctx context.Context, st *RatingState) error
	List(ctx context.Context) ([]*RatingState, error)

	// ApplySolveReward applies the whole reward as one atomic document
	// write: rating fields and the daily counter are incremented, the
	// streak fields are set.
	ApplySolveReward(ctx context.Context, userUUID string, reward SolveReward) error

	// AddRating atomically increments the global and rolling rating
	// fields. Used for wrong-answer deductions and contest awards;
	// safe for hot documents, safe to apply concurrently.
	AddRating(ctx context.Context, userUUID string, delta int) error

	// AddSubmToday bumps the per-day submission counter.
	AddSubmToday(ctx context.Context, userUUID string, delta int) error

	// ConsumeFreeze spends one freeze credit and moves LastActiveDay to
	// coveredDay, but only if the user still holds a credit and
	// LastActiveDay still equals expectedLastActive. Returns false when
	// the condition no longer holds (a concurrent solve or a retried
	// sweep already handled the user).
	ConsumeFreeze(ctx context.Context, userUUID string, expectedLastActive time.Time, coveredDay time.Time) (bool, error)

	// SetFreezeCredits overwrites the credit balance (monthly grants;
	// capped, never cumulative).
	SetFreezeCredits(ctx context.Context, userUUID string, credits int) error

	// ResetSubmsToday zeroes the daily counter (scheduled reset job).
	ResetSubmsToday(ctx context.Context, userUUID string) error

	// ResetRollingRating zeroes the weekly or monthly rolling rating.
	ResetRollingRating(ctx context.Context, userUUID string, weekly bool, monthly bool) error
}
