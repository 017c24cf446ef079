package contest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/user"
)

// seedParticipant plants a participant with an already-played state so
// ranking can be exercised without replaying submissions.
func seedParticipant(t *testing.T, env *testEnv, p *contest.Participant) {
	t.Helper()
	ctx := context.Background()
	p.ContestID = "c1"
	require.NoError(t, env.srvc.Register(ctx, p.UserUUID, "pro", "c1"))
	require.NoError(t, env.users.Put(ctx, &user.RatingState{UUID: p.UserUUID}))

	got, err := env.repo.GetParticipant(ctx, "c1", p.UserUUID)
	require.NoError(t, err)
	p.RegisteredAt = got.RegisteredAt
	require.NoError(t, env.repo.PutParticipant(ctx, p))
}

func finalRank(t *testing.T, env *testEnv, userUUID string) (int, int) {
	t.Helper()
	p, err := env.repo.GetParticipant(context.Background(), "c1", userUUID)
	require.NoError(t, err)
	return p.FinalRank, p.RatingAward
}

func TestRankingTieBreakAndZeroSolvers(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// A and B tie on score; A finished later but clean, B earlier but
	// with a penalty that pushes the adjusted finish past A's.
	finishA := env.start.Add(60 * time.Minute)
	finishB := env.start.Add(50 * time.Minute)
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "a", Score: 100, SolveCount: 2, PenaltySec: 0, FinishedAt: &finishA,
	})
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "b", Score: 100, SolveCount: 2, PenaltySec: 900, FinishedAt: &finishB,
	})
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "c", Score: 0, SolveCount: 0,
	})

	env.now = env.end.Add(time.Minute)
	env.srvc.FinalizeDueContests(ctx)

	rankA, awardA := finalRank(t, env, "a")
	rankB, awardB := finalRank(t, env, "b")
	rankC, awardC := finalRank(t, env, "c")

	// A's adjusted finish is 11:00, B's is 11:05.
	assert.Equal(t, 1, rankA)
	assert.Equal(t, 2, rankB)
	assert.Equal(t, 3, rankC)

	assert.Equal(t, 100, awardA)
	assert.Equal(t, 75, awardB)
	assert.Equal(t, 0, awardC)

	stA, err := env.users.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 100, stA.Rating)
	stC, err := env.users.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 0, stC.Rating)

	c, err := env.repo.GetContest(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Finalized)
	require.Len(t, c.TopRankings, 3)
	assert.Equal(t, "a", c.TopRankings[0].UserUUID)
	assert.Equal(t, "b", c.TopRankings[1].UserUUID)
}

func TestUnfinishedSolverUsesContestEndAsFinish(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	finishA := env.start.Add(90 * time.Minute)
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "a", Score: 100, SolveCount: 2, FinishedAt: &finishA,
	})
	// Same score, never finished: adjusted finish falls back to the
	// contest end and loses the tie.
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "b", Score: 100, SolveCount: 1,
	})

	env.now = env.end.Add(time.Minute)
	env.srvc.FinalizeDueContests(ctx)

	rankA, _ := finalRank(t, env, "a")
	rankB, _ := finalRank(t, env, "b")
	assert.Equal(t, 1, rankA)
	assert.Equal(t, 2, rankB)
}

func TestAwardsScaleWithDifficultyMultiplier(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	c, err := env.repo.GetContest(ctx, "c1")
	require.NoError(t, err)
	c.DifficultyMultiplier = 1.5
	require.NoError(t, env.repo.PutContest(ctx, c))

	finish := env.start.Add(time.Hour)
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "a", Score: 100, SolveCount: 2, FinishedAt: &finish,
	})

	env.now = env.end.Add(time.Minute)
	env.srvc.FinalizeDueContests(ctx)

	_, award := finalRank(t, env, "a")
	assert.Equal(t, 150, award)
}

func TestFinalizeTwiceDoesNotDoubleAward(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	finish := env.start.Add(time.Hour)
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "a", Score: 100, SolveCount: 2, FinishedAt: &finish,
	})

	env.now = env.end.Add(time.Minute)
	env.srvc.FinalizeDueContests(ctx)
	env.srvc.FinalizeDueContests(ctx)

	st, err := env.users.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 100, st.Rating)
}

func TestContestBeforeEndIsNotSelected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	finish := env.start.Add(time.Hour)
	seedParticipant(t, env, &contest.Participant{
		UserUUID: "a", Score: 100, SolveCount: 2, FinishedAt: &finish,
	})

	env.now = env.end.Add(-time.Minute)
	env.srvc.FinalizeDueContests(ctx)

	c, err := env.repo.GetContest(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Finalized)
}
