package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/user"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func setupUserSrvc(t *testing.T) (*user.UserSrvc, *user.InMemUserRepo) {
	t.Helper()
	repo := user.NewInMemUserRepo()
	return user.NewUserSrvc(repo, conf.DefaultScoringConfig()), repo
}

func TestFreezeSweepConsumesExactlyOneCredit(t *testing.T) {
	ctx := context.Background()
	srvc, repo := setupUserSrvc(t)

	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID:          "u1",
		CurrentStreak: 6,
		MaxStreak:     6,
		LastActiveDay: day("2025-03-10"),
		FreezeCredits: 2,
	}))

	require.NoError(t, srvc.RunFreezeSweep(ctx, day("2025-03-12")))

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.FreezeCredits)
	assert.Equal(t, day("2025-03-11"), st.LastActiveDay)
	assert.Equal(t, 6, st.CurrentStreak)
}

func TestFreezeSweepSkipsLongGaps(t *testing.T) {
	ctx := context.Background()
	srvc, repo := setupUserSrvc(t)

	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID:          "u1",
		CurrentStreak: 6,
		MaxStreak:     6,
		LastActiveDay: day("2025-03-09"), // missed two days
		FreezeCredits: 2,
	}))

	require.NoError(t, srvc.RunFreezeSweep(ctx, day("2025-03-12")))

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.FreezeCredits)
	assert.Equal(t, day("2025-03-09"), st.LastActiveDay)
}

func TestFreezeSweepRetrySafe(t *testing.T) {
	ctx := context.Background()
	srvc, repo := setupUserSrvc(t)

	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID:          "u1",
		CurrentStreak: 3,
		MaxStreak:     5,
		LastActiveDay: day("2025-03-10"),
		FreezeCredits: 2,
	}))

	require.NoError(t, srvc.RunFreezeSweep(ctx, day("2025-03-12")))
	// A retried scheduler tick on the same day must not spend another credit.
	require.NoError(t, srvc.RunFreezeSweep(ctx, day("2025-03-12")))

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.FreezeCredits)
}

func TestMonthlyGrantsTopUpToCapOnlyForQualifying(t *testing.T) {
	ctx := context.Background()
	srvc, repo := setupUserSrvc(t)

	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID: "qualifying", CurrentStreak: 10, MaxStreak: 10, FreezeCredits: 0,
	}))
	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID: "short-streak", CurrentStreak: 2, MaxStreak: 4, FreezeCredits: 0,
	}))
	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID: "already-full", CurrentStreak: 30, MaxStreak: 30, FreezeCredits: 2,
	}))

	require.NoError(t, srvc.GrantMonthlyFreezeCredits(ctx))

	st, _ := repo.Get(ctx, "qualifying")
	assert.Equal(t, 2, st.FreezeCredits)

	st, _ = repo.Get(ctx, "short-streak")
	assert.Equal(t, 0, st.FreezeCredits)

	// Capped, never cumulative.
	st, _ = repo.Get(ctx, "already-full")
	assert.Equal(t, 2, st.FreezeCredits)
}

func TestDailyResetZeroesSubmissionCounters(t *testing.T) {
	ctx := context.Background()
	srvc, repo := setupUserSrvc(t)

	require.NoError(t, repo.Put(ctx, &user.RatingState{
		UUID: "u1", SubmsToday: 17, WeeklyRating: 40, MonthlyRating: 90,
	}))

	// 2025-03-12 is a Wednesday: only the daily counter resets.
	require.NoError(t, srvc.RunDailyReset(ctx, day("2025-03-12")))

	st, _ := repo.Get(ctx, "u1")
	assert.Equal(t, 0, st.SubmsToday)
	assert.Equal(t, 40, st.WeeklyRating)
	assert.Equal(t, 90, st.MonthlyRating)

	// 2025-03-17 is a Monday: weekly rolling rating resets too.
	require.NoError(t, repo.AddSubmToday(ctx, "u1", 3))
	require.NoError(t, srvc.RunDailyReset(ctx, day("2025-03-17")))

	st, _ = repo.Get(ctx, "u1")
	assert.Equal(t, 0, st.SubmsToday)
	assert.Equal(t, 0, st.WeeklyRating)
	assert.Equal(t, 90, st.MonthlyRating)
}
