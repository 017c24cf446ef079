package streak

import "time"

// Transition tags which state-machine branch an Advance call took.
type Transition string

const (
	TransitionStarted     Transition = "started"     // first correct solve ever
	TransitionSameDay     Transition = "same_day"    // already solved today
	TransitionConsecutive Transition = "consecutive" // last active yesterday
	TransitionBroken      Transition = "broken"      // gap of two or more days
)

// State is the streak portion of a user's rating state. LastActiveDay is
// always a UTC calendar day (midnight); the zero value means the user has
// never solved anything.
type State struct {
	LastActiveDay time.Time
	Current       int
	Max           int
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance runs the streak state machine for one correct submission made
// at now. It is pure and must be called at most once per correct
// submission, never for wrong ones.
func Advance(st State, now time.Time) (State, Transition) {
	today := DayOf(now)

	if st.LastActiveDay.IsZero() {
		st.LastActiveDay = today
		st.Current = 1
		if st.Max < 1 {
			st.Max = 1
		}
		return st, TransitionStarted
	}

	switch today.Sub(st.LastActiveDay) {
	case 0:
		return st, TransitionSameDay
	case 24 * time.Hour:
		st.LastActiveDay = today
		st.Current++
		if st.Current > st.Max {
			st.Max = st.Current
		}
		return st, TransitionConsecutive
	default:
		st.LastActiveDay = today
		st.Current = 1
		if st.Max < 1 {
			st.Max = 1
		}
		return st, TransitionBroken
	}
}

// ShouldFreeze reports whether the scheduled freeze sweep, running on
// checkDay, should spend a credit for this user: they were last active
// exactly two days before the check (missed exactly yesterday) and hold
// at least one credit. Gaps of two or more missed days never freeze.
func ShouldFreeze(st State, checkDay time.Time, credits int) bool {
	if credits < 1 || st.Current < 1 || st.LastActiveDay.IsZero() {
		return false
	}
	return DayOf(checkDay).Sub(st.LastActiveDay) == 48*time.Hour
}

// ApplyFreeze marks the missed day as covered, so a solve on checkDay
// advances the streak as consecutive instead of resetting it. The caller
// is responsible for decrementing the credit balance.
func ApplyFreeze(st State, checkDay time.Time) State {
	st.LastActiveDay = DayOf(checkDay).AddDate(0, 0, -1)
	return st
}
