package subm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/programme-lv/arena/answer"
	"github.com/programme-lv/arena/challenge"
	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/integrity"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/rating"
	"github.com/programme-lv/arena/srvcerr"
	"github.com/programme-lv/arena/streak"
	"github.com/programme-lv/arena/user"
)

type Config struct {
	Scoring    conf.ScoringConfig
	Challenges challenge.Repo
	Users      user.Repo
	Subms      Repo
	Review     integrity.ReviewQueue
	Now        func() time.Time // defaults to time.Now
}

// SubmSrvc is the practice submission gateway. It orchestrates the
// integrity guard, the answer codec, the rating formula and the streak
// tracker for single-challenge submissions.
type SubmSrvc struct {
	cfg        conf.ScoringConfig
	challenges challenge.Repo
	users      user.Repo
	subms      Repo
	review     integrity.ReviewQueue
	now        func() time.Time
}

func NewSubmSrvc(c Config) *SubmSrvc {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	review := c.Review
	if review == nil {
		review = integrity.NewInMemReviewQueue()
	}
	return &SubmSrvc{
		cfg:        c.Scoring,
		challenges: c.Challenges,
		users:      c.Users,
		subms:      c.Subms,
		review:     review,
		now:        now,
	}
}

type SubmitAnswerParams struct {
	UserUUID    string
	UserTier    string // "free" or "pro"
	ChallengeID string
	RawAnswer   string
	HintUsed    bool
	ElapsedSec  int // server-measured
}

func (s *SubmSrvc) ratingConfig() rating.Config {
	return rating.Config{
		BasePoints: map[rating.Difficulty]int{
			rating.DifficultyEasy:   s.cfg.BasePointsEasy,
			rating.DifficultyMedium: s.cfg.BasePointsMedium,
			rating.DifficultyHard:   s.cfg.BasePointsHard,
		},
		HintPenalty:       s.cfg.HintPenalty,
		PerAttemptRate:    s.cfg.PerAttemptRate,
		AttemptFloor:      s.cfg.AttemptFloor,
		WrongDeduction:    s.cfg.WrongDeduction,
		WrongDeductionCap: s.cfg.WrongDeductionCap,
	}
}

func (s *SubmSrvc) guardConfig() integrity.Config {
	return integrity.Config{
		SessionCeilingSec: s.cfg.SessionCeilingSec,
		RateLimitAttempts: s.cfg.RateLimitAttempts,
		RateLimitWindow:   time.Duration(s.cfg.RateLimitWindowSec) * time.Second,
		MinSolveSec: map[rating.Difficulty]int{
			rating.DifficultyEasy:   s.cfg.MinSolveSecEasy,
			rating.DifficultyMedium: s.cfg.MinSolveSecMedium,
			rating.DifficultyHard:   s.cfg.MinSolveSecHard,
		},
	}
}

// SubmitAnswer handles one practice submission. Side effects are
// idempotent per logical submission: the already-solved check
// short-circuits reward application, so a retried call cannot
// double-count rating or streak.
func (s *SubmSrvc) SubmitAnswer(ctx context.Context, p SubmitAnswerParams) (*Result, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	ch, err := s.challenges.Get(ctx, p.ChallengeID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if ch == nil {
		return nil, newErrChallengeNotFound()
	}

	userState, err := s.users.Get(ctx, p.UserUUID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if userState == nil {
		userState = &user.RatingState{UUID: p.UserUUID}
	}

	if p.UserTier == "free" && userState.SubmsToday >= s.cfg.FreeTierDailySubms {
		return nil, newErrDailyLimitExceeded()
	}

	windowStart := now.Add(-time.Duration(s.cfg.RateLimitWindowSec) * time.Second)
	recent, err := s.subms.RecentAttempts(ctx, p.UserUUID, p.ChallengeID, windowStart)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	verdict := integrity.Check(s.guardConfig(), p.ElapsedSec, ch.Difficulty, recent, now)
	if verdict.Block {
		if verdict.Flag {
			s.publishFlag(ctx, p, verdict.FlagReason, now)
		}
		switch verdict.BlockReason {
		case integrity.BlockReasonRateLimited:
			return nil, newErrTooManyAttempts(verdict.RetryAfter)
		default:
			return nil, newErrImplausibleTime()
		}
	}

	correct, err := answer.Verify(p.RawAnswer, ch.AnswerDigest, ch.NormRules)
	if err != nil {
		return nil, err
	}

	alreadySolved, err := s.subms.HasSolved(ctx, p.UserUUID, p.ChallengeID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if alreadySolved {
		// No rating, no streak, no counters; still a success response
		// so the client can show feedback.
		return &Result{Correct: correct, AlreadySolved: true}, nil
	}

	digest := answer.Hash(answer.Normalize(p.RawAnswer, ch.NormRules))
	wrongBefore, err := s.subms.CountWrong(ctx, p.UserUUID, p.ChallengeID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	if !correct {
		return s.applyWrongAnswer(ctx, p, digest, wrongBefore, len(recent), now)
	}

	gain, err := rating.Gain(s.ratingConfig(), ch.Difficulty, ch.ExpectedSolveSec, p.ElapsedSec, p.HintUsed, wrongBefore)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	newStreak, _ := streak.Advance(userState.StreakState(), now)

	// The record goes in first: once it is visible the already-solved
	// check short-circuits any retry before rewards are re-applied.
	rec := Record{
		UUID:                uuid.New(),
		UserUUID:            p.UserUUID,
		ChallengeID:         p.ChallengeID,
		AnswerDigest:        digest,
		Correct:             true,
		RatingDelta:         gain.FinalGain,
		ElapsedSec:          p.ElapsedSec,
		HintUsed:            p.HintUsed,
		WrongAttemptsBefore: wrongBefore,
		Flagged:             verdict.Flag,
		FlagReason:          verdict.FlagReason,
		CreatedAt:           now,
	}
	if err := s.subms.Append(ctx, rec); err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	err = s.users.ApplySolveReward(ctx, p.UserUUID, user.SolveReward{
		RatingDelta: gain.FinalGain,
		Difficulty:  ch.Difficulty,
		Streak:      newStreak,
	})
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	if err := s.challenges.AddCounters(ctx, p.ChallengeID, 1, 1); err != nil {
		// Aggregate display counters; the reward already landed.
		log.Error("failed to increment challenge counters", "challenge", p.ChallengeID, "error", err)
	}

	if verdict.Flag {
		s.publishFlag(ctx, p, verdict.FlagReason, now)
	}

	breakdown := gain
	return &Result{
		Correct:     true,
		RatingDelta: gain.FinalGain,
		Streak:      newStreak.Current,
		Breakdown:   &breakdown,
	}, nil
}

func (s *SubmSrvc) applyWrongAnswer(ctx context.Context, p SubmitAnswerParams, digest string, wrongBefore int, attemptsInWindow int, now time.Time) (*Result, error) {
	log := logger.FromContext(ctx)

	deduction := rating.WrongDeduction(s.ratingConfig(), wrongBefore)

	rec := Record{
		UUID:                uuid.New(),
		UserUUID:            p.UserUUID,
		ChallengeID:         p.ChallengeID,
		AnswerDigest:        digest,
		Correct:             false,
		RatingDelta:         -deduction,
		ElapsedSec:          p.ElapsedSec,
		HintUsed:            p.HintUsed,
		WrongAttemptsBefore: wrongBefore,
		CreatedAt:           now,
	}
	if err := s.subms.Append(ctx, rec); err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	if deduction > 0 {
		if err := s.users.AddRating(ctx, p.UserUUID, -deduction); err != nil {
			return nil, srvcerr.ErrInternalSE().SetDebug(err)
		}
	}
	if err := s.users.AddSubmToday(ctx, p.UserUUID, 1); err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if err := s.challenges.AddCounters(ctx, p.ChallengeID, 0, 1); err != nil {
		log.Error("failed to increment challenge counters", "challenge", p.ChallengeID, "error", err)
	}

	remaining := s.cfg.RateLimitAttempts - attemptsInWindow - 1
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Correct:           false,
		AttemptsRemaining: &remaining,
	}, nil
}

// publishFlag is best-effort side work; a failed publish never rolls
// back or fails the submission it describes.
func (s *SubmSrvc) publishFlag(ctx context.Context, p SubmitAnswerParams, reason string, now time.Time) {
	log := logger.FromContext(ctx)
	err := s.review.PublishFlag(ctx, integrity.Flag{
		UserUUID:     p.UserUUID,
		ChallengeID:  p.ChallengeID,
		Reason:       reason,
		TimeTakenSec: p.ElapsedSec,
		SubmittedAt:  now,
	})
	if err != nil {
		log.Error("failed to publish review flag", "user", p.UserUUID, "challenge", p.ChallengeID, "error", err)
	}
}
