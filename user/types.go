package user

import (
	"time"

	"github.com/programme-lv/arena/rating"
	"github.com/programme-lv/arena/streak"
)

// RatingState is the per-user aggregate of everything the engine ever
// mutates about a user. Clients never write it directly; the submission
// gateway, the contest finalizer and the scheduled jobs are the only
// writers, and every counter change goes through an atomic increment.
type RatingState struct {
	UUID string

	Rating        int
	WeeklyRating  int
	MonthlyRating int

	SolvedEasy   int
	SolvedMedium int
	SolvedHard   int

	CurrentStreak int
	MaxStreak     int
	LastActiveDay time.Time // UTC calendar day, zero if never active

	FreezeCredits int // 0..cap
	SubmsToday    int // free-tier daily cap accounting
}

func (st *RatingState) StreakState() streak.State {
	return streak.State{
		LastActiveDay: st.LastActiveDay,
		Current:       st.CurrentStreak,
		Max:           st.MaxStreak,
	}
}

// SolveReward is the compound state transition applied for one correct
// practice solve. It lands on the user document as a single atomic write
// so no partial application is ever observable.
type SolveReward struct {
	RatingDelta int
	Difficulty  rating.Difficulty
	Streak      streak.State
}
