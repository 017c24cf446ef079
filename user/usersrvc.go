package user

import (
	"context"
	"time"

	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/streak"
)

// UserSrvc owns user rating state and the scheduled maintenance jobs:
// the streak freeze sweep, monthly freeze-credit grants and the rolling
// counter resets.
type UserSrvc struct {
	repo Repo
	cfg  conf.ScoringConfig
}

func NewUserSrvc(repo Repo, cfg conf.ScoringConfig) *UserSrvc {
	return &UserSrvc{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *UserSrvc) Repo() Repo {
	return s.repo
}

// GetOrZero returns the user's rating state, or a zero state for a user
// the engine has not seen yet.
func (s *UserSrvc) GetOrZero(ctx context.Context, userUUID string) (*RatingState, error) {
	st, err := s.repo.Get(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &RatingState{UUID: userUUID}, nil
	}
	return st, nil
}

// RunFreezeSweep preserves the streak of every user who missed exactly
// yesterday and still holds a freeze credit. It runs once per UTC day;
// the conditional write in ConsumeFreeze makes a retried sweep harmless.
func (s *UserSrvc) RunFreezeSweep(ctx context.Context, now time.Time) error {
	log := logger.FromContext(ctx)
	checkDay := streak.DayOf(now)

	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	frozen := 0
	for _, st := range users {
		if !streak.ShouldFreeze(st.StreakState(), checkDay, st.FreezeCredits) {
			continue
		}
		covered := streak.ApplyFreeze(st.StreakState(), checkDay)
		ok, err := s.repo.ConsumeFreeze(ctx, st.UUID, st.LastActiveDay, covered.LastActiveDay)
		if err != nil {
			log.Error("freeze sweep failed for user", "user", st.UUID, "error", err)
			continue
		}
		if ok {
			frozen++
		}
	}

	log.Info("freeze sweep finished", "users", len(users), "frozen", frozen)
	return nil
}

// GrantMonthlyFreezeCredits tops qualifying users (live streak of at
// least the configured length) up to the credit cap. Credits never
// accumulate past the cap across months.
func (s *UserSrvc) GrantMonthlyFreezeCredits(ctx context.Context) error {
	log := logger.FromContext(ctx)

	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	granted := 0
	for _, st := range users {
		if st.CurrentStreak < s.cfg.FreezeGrantMinStreak {
			continue
		}
		if st.FreezeCredits >= s.cfg.FreezeCreditCap {
			continue
		}
		if err := s.repo.SetFreezeCredits(ctx, st.UUID, s.cfg.FreezeCreditCap); err != nil {
			log.Error("freeze grant failed for user", "user", st.UUID, "error", err)
			continue
		}
		granted++
	}

	log.Info("monthly freeze grants finished", "users", len(users), "granted", granted)
	return nil
}

// RunDailyReset zeroes every user's daily submission counter, plus the
// weekly rolling rating on Mondays and the monthly one on the 1st. On
// the 1st it also hands out the monthly freeze credits.
func (s *UserSrvc) RunDailyReset(ctx context.Context, now time.Time) error {
	log := logger.FromContext(ctx)
	day := streak.DayOf(now)
	weekly := day.Weekday() == time.Monday
	monthly := day.Day() == 1

	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, st := range users {
		if err := s.repo.ResetSubmsToday(ctx, st.UUID); err != nil {
			log.Error("daily reset failed for user", "user", st.UUID, "error", err)
			continue
		}
		if weekly || monthly {
			if err := s.repo.ResetRollingRating(ctx, st.UUID, weekly, monthly); err != nil {
				log.Error("rolling rating reset failed for user", "user", st.UUID, "error", err)
			}
		}
	}

	if monthly {
		if err := s.GrantMonthlyFreezeCredits(ctx); err != nil {
			log.Error("monthly freeze grants failed", "error", err)
		}
	}

	log.Info("daily reset finished", "users", len(users), "weekly", weekly, "monthly", monthly)
	return nil
}

// StartDailyJobs runs the freeze sweep and the counter resets once per
// UTC day rollover until ctx is cancelled.
func (s *UserSrvc) StartDailyJobs(ctx context.Context) {
	log := logger.FromContext(ctx)
	lastRun := streak.DayOf(time.Now())

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			day := streak.DayOf(now)
			if !day.After(lastRun) {
				continue
			}
			lastRun = day
			if err := s.RunFreezeSweep(ctx, now); err != nil {
				log.Error("freeze sweep failed", "error", err)
			}
			if err := s.RunDailyReset(ctx, now); err != nil {
				log.Error("daily reset failed", "error", err)
			}
		}
	}
}
