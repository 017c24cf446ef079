package subm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/arena/answer"
	"github.com/programme-lv/arena/challenge"
	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/integrity"
	"github.com/programme-lv/arena/rating"
	"github.com/programme-lv/arena/srvcerr"
	"github.com/programme-lv/arena/subm"
	"github.com/programme-lv/arena/user"
)

type testEnv struct {
	srvc       *subm.SubmSrvc
	challenges *challenge.InMemChallengeRepo
	users      *user.InMemUserRepo
	subms      *subm.InMemSubmRepo
	review     *integrity.InMemReviewQueue
	now        time.Time
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		challenges: challenge.NewInMemChallengeRepo(),
		users:      user.NewInMemUserRepo(),
		subms:      subm.NewInMemSubmRepo(),
		review:     integrity.NewInMemReviewQueue(),
		now:        time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
	}
	env.srvc = subm.NewSubmSrvc(subm.Config{
		Scoring:    conf.DefaultScoringConfig(),
		Challenges: env.challenges,
		Users:      env.users,
		Subms:      env.subms,
		Review:     env.review,
		Now:        func() time.Time { return env.now },
	})

	rules := answer.Rules{CaseFold: true, StripSpaces: true}
	require.NoError(t, env.challenges.Put(context.Background(), &challenge.Challenge{
		ID:               "chal-1",
		Title:            "Paroles mīkla",
		Difficulty:       rating.DifficultyMedium,
		ExpectedSolveSec: 600,
		BasePoints:       100,
		AnswerDigest:     answer.Hash(answer.Normalize("open sesame", rules)),
		NormRules:        rules,
	}))

	return env
}

func submit(t *testing.T, env *testEnv, raw string, hintUsed bool, elapsedSec int) (*subm.Result, error) {
	t.Helper()
	return env.srvc.SubmitAnswer(context.Background(), subm.SubmitAnswerParams{
		UserUUID:    "u1",
		UserTier:    "pro",
		ChallengeID: "chal-1",
		RawAnswer:   raw,
		HintUsed:    hintUsed,
		ElapsedSec:  elapsedSec,
	})
}

func TestSubmitCorrectFirstSolve(t *testing.T) {
	env := setupEnv(t)

	res, err := submit(t, env, "  Open Sesame ", false, 300)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.AlreadySolved)
	// 25 base x2 time bonus.
	assert.Equal(t, 50, res.RatingDelta)
	assert.Equal(t, 1, res.Streak)

	st, err := env.users.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, st.Rating)
	assert.Equal(t, 50, st.WeeklyRating)
	assert.Equal(t, 1, st.SolvedMedium)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1, st.SubmsToday)

	ch, err := env.challenges.Get(context.Background(), "chal-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ch.SolvedCount)
	assert.Equal(t, 1, ch.AttemptedCount)

	recs := env.subms.Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Correct)
	assert.NotContains(t, recs[0].AnswerDigest, "sesame")
}

func TestSubmitResolveIsNoop(t *testing.T) {
	env := setupEnv(t)

	_, err := submit(t, env, "open sesame", false, 300)
	require.NoError(t, err)

	env.now = env.now.Add(time.Hour)
	res, err := submit(t, env, "open sesame", false, 200)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.True(t, res.AlreadySolved)
	assert.Equal(t, 0, res.RatingDelta)

	st, _ := env.users.Get(context.Background(), "u1")
	assert.Equal(t, 50, st.Rating, "rating must not change on re-solve")
	assert.Equal(t, 1, st.CurrentStreak, "streak must not change on re-solve")
}

func TestSubmitWrongAnswerDeductsWithCap(t *testing.T) {
	env := setupEnv(t)
	cfg := conf.DefaultScoringConfig()

	// Spread attempts out so the rate limiter stays quiet.
	for i := 0; i < 8; i++ {
		res, err := submit(t, env, "wrong guess", false, 60)
		require.NoError(t, err)
		assert.False(t, res.Correct)
		require.NotNil(t, res.AttemptsRemaining)
		env.now = env.now.Add(5 * time.Minute)
	}

	st, _ := env.users.Get(context.Background(), "u1")
	assert.Equal(t, -cfg.WrongDeductionCap, st.Rating, "total deduction is capped per challenge session")
	assert.Equal(t, 8, st.SubmsToday)
	assert.Equal(t, 0, st.CurrentStreak, "wrong submissions never touch the streak")
}

func TestSubmitCorrectAfterWrongAttemptsPenalized(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 2; i++ {
		_, err := submit(t, env, "wrong", false, 60)
		require.NoError(t, err)
		env.now = env.now.Add(5 * time.Minute)
	}

	res, err := submit(t, env, "open sesame", false, 600)
	require.NoError(t, err)
	require.True(t, res.Correct)
	require.NotNil(t, res.Breakdown)
	assert.InDelta(t, 0.8, res.Breakdown.AttemptPenalty, 1e-9)
	// 25 base x1.0 time x0.8 attempts.
	assert.Equal(t, 20, res.RatingDelta)
}

func TestSubmitRateLimited(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 5; i++ {
		_, err := submit(t, env, "wrong", false, 60)
		require.NoError(t, err)
		env.now = env.now.Add(30 * time.Second)
	}

	_, err := submit(t, env, "wrong", false, 60)
	require.Error(t, err)
	srvcErr := &srvcerr.Error{}
	require.ErrorAs(t, err, &srvcErr)
	assert.Equal(t, subm.ErrCodeTooManyAttempts, srvcErr.ErrorCode())
	assert.Greater(t, srvcErr.RetryAfter(), time.Duration(0))

	// Waiting past the window permits a new attempt.
	env.now = env.now.Add(11 * time.Minute)
	_, err = submit(t, env, "wrong", false, 60)
	require.NoError(t, err)
}

func TestSubmitImplausibleTimeBlockedAndFlagged(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.users.Put(context.Background(), &user.RatingState{UUID: "u1"}))

	_, err := submit(t, env, "open sesame", false, 7*3600)
	require.Error(t, err)
	srvcErr := &srvcerr.Error{}
	require.ErrorAs(t, err, &srvcErr)
	assert.Equal(t, subm.ErrCodeImplausibleTime, srvcErr.ErrorCode())

	flags := env.review.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, integrity.FlagReasonImplausibleTime, flags[0].Reason)

	// Blocked before any mutation.
	st, err := env.users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 0, st.SubmsToday)
	assert.Equal(t, 0, st.Rating)
	assert.Empty(t, env.subms.Records())
}

func TestSubmitSpeedAnomalyFlagsWithoutBlocking(t *testing.T) {
	env := setupEnv(t)

	res, err := submit(t, env, "open sesame", false, 3) // under the medium floor
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 50, res.RatingDelta, "flag never alters the rating computation")

	flags := env.review.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, integrity.FlagReasonTooFast, flags[0].Reason)

	recs := env.subms.Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Flagged)
}

func TestSubmitFreeTierDailyLimit(t *testing.T) {
	env := setupEnv(t)
	cfg := conf.DefaultScoringConfig()

	require.NoError(t, env.users.Put(context.Background(), &user.RatingState{
		UUID:       "u1",
		SubmsToday: cfg.FreeTierDailySubms,
	}))

	_, err := env.srvc.SubmitAnswer(context.Background(), subm.SubmitAnswerParams{
		UserUUID:    "u1",
		UserTier:    "free",
		ChallengeID: "chal-1",
		RawAnswer:   "open sesame",
		ElapsedSec:  300,
	})
	require.Error(t, err)
	srvcErr := &srvcerr.Error{}
	require.ErrorAs(t, err, &srvcErr)
	assert.Equal(t, subm.ErrCodeDailyLimitExceeded, srvcErr.ErrorCode())
}

func TestSubmitUnknownChallenge(t *testing.T) {
	env := setupEnv(t)

	_, err := env.srvc.SubmitAnswer(context.Background(), subm.SubmitAnswerParams{
		UserUUID:    "u1",
		UserTier:    "pro",
		ChallengeID: "missing",
		RawAnswer:   "answer",
		ElapsedSec:  60,
	})
	require.Error(t, err)
	srvcErr := &srvcerr.Error{}
	require.ErrorAs(t, err, &srvcErr)
	assert.Equal(t, subm.ErrCodeChallengeNotFound, srvcErr.ErrorCode())
}

func TestStreakAdvancesAcrossDays(t *testing.T) {
	env := setupEnv(t)
	rules := answer.Rules{CaseFold: true}

	for i := 2; i <= 4; i++ {
		id := string(rune('a' + i))
		require.NoError(t, env.challenges.Put(context.Background(), &challenge.Challenge{
			ID:               id,
			Difficulty:       rating.DifficultyEasy,
			ExpectedSolveSec: 60,
			BasePoints:       50,
			AnswerDigest:     answer.Hash(answer.Normalize("x", rules)),
			NormRules:        rules,
		}))
	}

	solve := func(id string) *subm.Result {
		res, err := env.srvc.SubmitAnswer(context.Background(), subm.SubmitAnswerParams{
			UserUUID: "u1", UserTier: "pro", ChallengeID: id, RawAnswer: "x", ElapsedSec: 60,
		})
		require.NoError(t, err)
		return res
	}

	res := solve("c")
	assert.Equal(t, 1, res.Streak)

	env.now = env.now.Add(24 * time.Hour)
	res = solve("d")
	assert.Equal(t, 2, res.Streak)

	// A two-day gap resets to 1 but keeps the max.
	env.now = env.now.Add(72 * time.Hour)
	res = solve("e")
	assert.Equal(t, 1, res.Streak)

	st, _ := env.users.Get(context.Background(), "u1")
	assert.Equal(t, 2, st.MaxStreak)
}
