package contest

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/programme-lv/arena/answer"
	"github.com/programme-lv/arena/challenge"
	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/srvcerr"
	"github.com/programme-lv/arena/subm"
	"github.com/programme-lv/arena/user"
)

type Config struct {
	Scoring    conf.ScoringConfig
	Repo       Repo
	Challenges challenge.Repo
	Users      user.Repo
	Subms      subm.Repo
	Scoreboard *Scoreboard // optional, live scoreboard updates
	Now        func() time.Time
}

// ContestSrvc handles registration admission and in-contest answer
// submission, and runs the finalizer.
type ContestSrvc struct {
	cfg        conf.ScoringConfig
	repo       Repo
	challenges challenge.Repo
	users      user.Repo
	subms      subm.Repo
	scoreboard *Scoreboard
	now        func() time.Time
}

func NewContestSrvc(c Config) *ContestSrvc {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	return &ContestSrvc{
		cfg:        c.Scoring,
		repo:       c.Repo,
		challenges: c.Challenges,
		users:      c.Users,
		subms:      c.Subms,
		scoreboard: c.Scoreboard,
		now:        now,
	}
}

// Register admits the user: contest active, not yet started,
// registration still open, capacity left, no prior registration. The
// participant document and the count increment land as one atomic unit
// in the repo.
func (s *ContestSrvc) Register(ctx context.Context, userUUID string, userTier string, contestID string) error {
	now := s.now()

	c, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return srvcerr.ErrInternalSE().SetDebug(err)
	}
	if c == nil || !c.IsActive {
		return newErrContestNotFound()
	}
	if c.ProOnly && userTier == "free" {
		return newErrNotEligible()
	}
	if !now.Before(c.StartAt) || now.After(c.RegistrationDeadline) {
		return newErrRegistrationClosed()
	}

	existing, err := s.repo.GetParticipant(ctx, contestID, userUUID)
	if err != nil {
		return srvcerr.ErrInternalSE().SetDebug(err)
	}
	if existing != nil {
		return newErrAlreadyRegistered()
	}
	if c.ParticipantCount >= c.Capacity {
		return newErrContestFull()
	}

	err = s.repo.Register(ctx, &Participant{
		ContestID:    contestID,
		UserUUID:     userUUID,
		RegisteredAt: now,
	}, c.Capacity)
	if err == ErrConditionFailed {
		// Lost a race: either a duplicate registration or the last
		// seat. Re-read to tell which.
		existing, rerr := s.repo.GetParticipant(ctx, contestID, userUUID)
		if rerr == nil && existing != nil {
			return newErrAlreadyRegistered()
		}
		return newErrContestFull()
	}
	if err != nil {
		return srvcerr.ErrInternalSE().SetDebug(err)
	}

	return nil
}

type ContestSubmitResult struct {
	Correct      bool
	PointsEarned int
	PenaltyAdded int
	Finished     bool
}

// SubmitAnswer handles one in-contest submission with CTF scoring: a
// wrong answer accrues a fixed penalty and starts a short cooldown; a
// correct answer earns time-decayed points.
func (s *ContestSrvc) SubmitAnswer(ctx context.Context, userUUID string, contestID string, challengeID string, rawAnswer string, hintUsed bool) (*ContestSubmitResult, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	c, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if c == nil || !c.IsActive {
		return nil, newErrContestNotFound()
	}

	participant, err := s.repo.GetParticipant(ctx, contestID, userUUID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if participant == nil {
		return nil, newErrNotRegistered()
	}

	if !c.IsLive(now) {
		return nil, newErrContestNotLive()
	}
	if !slices.Contains(c.ChallengeIDs, challengeID) {
		return nil, newErrChallengeNotInContest()
	}

	attempt, err := s.repo.GetAttempt(ctx, contestID, userUUID, challengeID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if attempt != nil {
		if attempt.Solved {
			return nil, newErrAlreadySolved()
		}
		cooldown := time.Duration(s.cfg.ContestCooldownSec) * time.Second
		if attempt.LastWrongAt != nil {
			wait := attempt.LastWrongAt.Add(cooldown).Sub(now)
			if wait > 0 {
				return nil, newErrCooldown(wait)
			}
		}
	}

	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if ch == nil {
		return nil, newErrChallengeNotInContest()
	}

	correct, err := answer.Verify(rawAnswer, ch.AnswerDigest, ch.NormRules)
	if err != nil {
		return nil, err
	}
	digest := answer.Hash(answer.Normalize(rawAnswer, ch.NormRules))

	if !correct {
		err = s.repo.RecordWrongAttempt(ctx, contestID, userUUID, challengeID, now, s.cfg.ContestWrongPenaltySec)
		if err != nil {
			return nil, srvcerr.ErrInternalSE().SetDebug(err)
		}
		if err := s.challenges.AddCounters(ctx, challengeID, 0, 1); err != nil {
			log.Error("failed to bump challenge counters", "challenge", challengeID, "error", err)
		}
		s.appendRecord(ctx, subm.Record{
			UUID:         uuid.New(),
			UserUUID:     userUUID,
			ChallengeID:  challengeID,
			ContestID:    contestID,
			AnswerDigest: digest,
			Correct:      false,
			HintUsed:     hintUsed,
			CreatedAt:    now,
		})
		return &ContestSubmitResult{
			Correct:      false,
			PenaltyAdded: s.cfg.ContestWrongPenaltySec,
		}, nil
	}

	points := s.contestPoints(c, ch, hintUsed, now)

	solveCount, err := s.repo.ApplySolve(ctx, contestID, userUUID, challengeID, points, hintUsed, now, len(c.ChallengeIDs))
	if err == ErrConditionFailed {
		return nil, newErrAlreadySolved()
	}
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}

	if err := s.challenges.AddCounters(ctx, challengeID, 1, 1); err != nil {
		log.Error("failed to bump challenge counters", "challenge", challengeID, "error", err)
	}

	if s.scoreboard != nil {
		if err := s.scoreboard.AddPoints(ctx, contestID, userUUID, points); err != nil {
			// Live scoreboard is best-effort; the participant
			// document is the source of truth.
			log.Error("failed to update live scoreboard", "contest", contestID, "error", err)
		}
	}

	s.appendRecord(ctx, subm.Record{
		UUID:         uuid.New(),
		UserUUID:     userUUID,
		ChallengeID:  challengeID,
		ContestID:    contestID,
		AnswerDigest: digest,
		Correct:      true,
		HintUsed:     hintUsed,
		CreatedAt:    now,
	})

	return &ContestSubmitResult{
		Correct:      true,
		PointsEarned: points,
		Finished:     solveCount == len(c.ChallengeIDs),
	}, nil
}

// ReadScoreboard serves the contest standings: the sealed snapshot once
// the contest is finalized, the live Redis projection while it runs.
func (s *ContestSrvc) ReadScoreboard(ctx context.Context, contestID string, limit int) ([]ScoreboardRow, error) {
	c, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	if c == nil || !c.IsActive {
		return nil, newErrContestNotFound()
	}

	if c.Finalized {
		rows := make([]ScoreboardRow, 0, min(len(c.TopRankings), limit))
		for _, e := range c.TopRankings {
			if len(rows) == limit {
				break
			}
			rows = append(rows, ScoreboardRow{Rank: e.Rank, UserUUID: e.UserUUID, Score: e.Score})
		}
		return rows, nil
	}

	if s.scoreboard == nil {
		return []ScoreboardRow{}, nil
	}
	rows, err := s.scoreboard.Top(ctx, contestID, limit)
	if err != nil {
		return nil, srvcerr.ErrInternalSE().SetDebug(err)
	}
	return rows, nil
}

// contestPoints applies the CTF time decay: the factor falls linearly
// from 1.0 at contest start to the configured floor at contest end,
// rewarding earlier solves. Hints cost more than in practice mode. The
// contest difficulty multiplier does not enter here; it only scales the
// rating awards at finalization.
func (s *ContestSrvc) contestPoints(c *Contest, ch *challenge.Challenge, hintUsed bool, now time.Time) int {
	duration := c.EndAt.Sub(c.StartAt).Seconds()
	elapsed := now.Sub(c.StartAt).Seconds()
	progress := 0.0
	if duration > 0 {
		progress = elapsed / duration
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	timeFactor := 1.0 - (1.0-s.cfg.TimeDecayFloor)*progress

	hintMultiplier := 1.0
	if hintUsed {
		hintMultiplier = s.cfg.ContestHintPenalty
	}

	return int(math.Round(float64(ch.BasePoints) * timeFactor * hintMultiplier))
}

// appendRecord logs the contest submission into the append-only audit
// log; a logging failure never rolls back the scoring that already
// happened.
func (s *ContestSrvc) appendRecord(ctx context.Context, rec subm.Record) {
	if err := s.subms.Append(ctx, rec); err != nil {
		logger.FromContext(ctx).Error("failed to append contest submission record",
			"contest", rec.ContestID, "challenge", rec.ChallengeID, "error", err)
	}
}
