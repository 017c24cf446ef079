package contest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/programme-lv/arena/logger"
)

// maxContestsPerRun bounds a single finalizer pass; anything beyond is
// picked up by the next scheduled run.
const maxContestsPerRun = 25

const topRankingsSize = 10

// FinalizeDueContests ranks and closes every ended contest. Each
// contest is processed in isolation: a failure is logged and left for
// the next pass, it never aborts the batch.
func (s *ContestSrvc) FinalizeDueContests(ctx context.Context) {
	log := logger.FromContext(ctx)

	due, err := s.repo.ListDueContests(ctx, s.now())
	if err != nil {
		log.Error("failed to list due contests", "error", err)
		return
	}
	if len(due) > maxContestsPerRun {
		due = due[:maxContestsPerRun]
	}

	for _, c := range due {
		if err := s.finalizeContest(ctx, c); err != nil {
			log.Error("failed to finalize contest", "contest", c.ID, "error", err)
		}
	}
}

// finalizeContest flips the finalized flag first; the conditional
// write is the idempotency gate, so a concurrent or retried run that
// loses the flip does nothing.
func (s *ContestSrvc) finalizeContest(ctx context.Context, c *Contest) error {
	log := logger.FromContext(ctx)

	won, err := s.repo.MarkFinalized(ctx, c.ID)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	participants, err := s.repo.ListParticipants(ctx, c.ID)
	if err != nil {
		return err
	}

	ranked := rankParticipants(participants, c.EndAt)
	solvers := 0
	for _, p := range ranked {
		if p.SolveCount > 0 {
			solvers++
		}
	}

	entries := make([]RankingEntry, 0, min(len(ranked), topRankingsSize))
	for i, p := range ranked {
		rank := i + 1
		award := s.ratingAward(rank, p.SolveCount, solvers, c.DifficultyMultiplier)

		if award != 0 {
			if err := s.users.AddRating(ctx, p.UserUUID, award); err != nil {
				return err
			}
		}
		if err := s.repo.SealParticipant(ctx, c.ID, p.UserUUID, rank, award); err != nil {
			return err
		}

		if rank <= topRankingsSize {
			entries = append(entries, RankingEntry{
				Rank:       rank,
				UserUUID:   p.UserUUID,
				Score:      p.Score,
				SolveCount: p.SolveCount,
				PenaltySec: p.PenaltySec,
				Award:      award,
			})
		}
	}

	if err := s.repo.SetTopRankings(ctx, c.ID, entries); err != nil {
		return err
	}

	if s.scoreboard != nil {
		if err := s.scoreboard.Drop(ctx, c.ID); err != nil {
			log.Error("failed to drop live scoreboard", "contest", c.ID, "error", err)
		}
	}

	log.Info("contest finalized", "contest", c.ID, "participants", len(ranked), "solvers", solvers)
	return nil
}

// rankParticipants orders by score descending; ties break on adjusted
// finish time ascending (recorded finish, or the contest end for those
// who never finished, plus accrued penalty). Anyone with zero solves
// ranks below every solver.
func rankParticipants(participants []*Participant, contestEnd time.Time) []*Participant {
	adjustedFinish := func(p *Participant) time.Time {
		finish := contestEnd
		if p.FinishedAt != nil {
			finish = *p.FinishedAt
		}
		return finish.Add(time.Duration(p.PenaltySec) * time.Second)
	}

	ranked := append([]*Participant{}, participants...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.SolveCount > 0) != (b.SolveCount > 0) {
			return a.SolveCount > 0
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return adjustedFinish(a).Before(adjustedFinish(b))
	})
	return ranked
}

// ratingAward computes the rating delta for one sealed rank. The
// podium gets fixed awards; remaining solvers get a percentile tier;
// zero-solvers get nothing. Everything scales with the contest's
// difficulty multiplier.
func (s *ContestSrvc) ratingAward(rank int, solveCount int, solvers int, multiplier float64) int {
	if solveCount == 0 || solvers == 0 {
		return 0
	}

	var base int
	switch rank {
	case 1:
		base = s.cfg.AwardFirst
	case 2:
		base = s.cfg.AwardSecond
	case 3:
		base = s.cfg.AwardThird
	default:
		pct := float64(rank) / float64(solvers)
		switch {
		case pct <= 0.10:
			base = s.cfg.AwardTop10Pct
		case pct <= 0.25:
			base = s.cfg.AwardTop25Pct
		case pct <= 0.50:
			base = s.cfg.AwardTop50Pct
		default:
			base = s.cfg.AwardParticipated
		}
	}

	return int(math.Round(float64(base) * multiplier))
}

// StartFinalizerLoop runs the finalizer on a fixed cadence until the
// context is cancelled.
func (s *ContestSrvc) StartFinalizerLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.FinalizeDueContests(ctx)
		}
	}
}
