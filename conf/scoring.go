package conf

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ScoringConfig holds every numeric knob of the reward curve. The values
// are product decisions and are expected to be tuned via scoring.toml
// without touching code.
type ScoringConfig struct {
	// Practice rating formula.
	BasePointsEasy    int     `toml:"base_points_easy"`
	BasePointsMedium  int     `toml:"base_points_medium"`
	BasePointsHard    int     `toml:"base_points_hard"`
	HintPenalty       float64 `toml:"hint_penalty"`        // <1.0, applied once
	PerAttemptRate    float64 `toml:"per_attempt_rate"`    // multiplier lost per wrong attempt
	AttemptFloor      float64 `toml:"attempt_floor"`       // attemptPenalty never drops below
	WrongDeduction    int     `toml:"wrong_deduction"`     // flat rating loss per wrong attempt
	WrongDeductionCap int     `toml:"wrong_deduction_cap"` // max total loss per challenge session

	// Integrity guard.
	RateLimitAttempts  int `toml:"rate_limit_attempts"`
	RateLimitWindowSec int `toml:"rate_limit_window_sec"`
	SessionCeilingSec  int `toml:"session_ceiling_sec"`
	MinSolveSecEasy    int `toml:"min_solve_sec_easy"`
	MinSolveSecMedium  int `toml:"min_solve_sec_medium"`
	MinSolveSecHard    int `toml:"min_solve_sec_hard"`

	// Contest scoring.
	ContestHintPenalty     float64 `toml:"contest_hint_penalty"` // heavier than practice
	ContestCooldownSec     int     `toml:"contest_cooldown_sec"` // after a wrong answer
	ContestWrongPenaltySec int     `toml:"contest_wrong_penalty_sec"`
	TimeDecayFloor         float64 `toml:"time_decay_floor"` // factor at contest end

	// Contest rating awards, before the contest difficulty multiplier.
	AwardFirst        int `toml:"award_first"`
	AwardSecond       int `toml:"award_second"`
	AwardThird        int `toml:"award_third"`
	AwardTop10Pct     int `toml:"award_top_10_pct"`
	AwardTop25Pct     int `toml:"award_top_25_pct"`
	AwardTop50Pct     int `toml:"award_top_50_pct"`
	AwardParticipated int `toml:"award_participated"`

	// Streak freeze credits.
	FreezeCreditCap      int `toml:"freeze_credit_cap"`
	FreezeGrantMinStreak int `toml:"freeze_grant_min_streak"`

	// Free tier.
	FreeTierDailySubms int `toml:"free_tier_daily_subms"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BasePointsEasy:    10,
		BasePointsMedium:  25,
		BasePointsHard:    50,
		HintPenalty:       0.7,
		PerAttemptRate:    0.10,
		AttemptFloor:      0.5,
		WrongDeduction:    1,
		WrongDeductionCap: 5,

		RateLimitAttempts:  5,
		RateLimitWindowSec: 600,
		SessionCeilingSec:  6 * 3600,
		MinSolveSecEasy:    5,
		MinSolveSecMedium:  15,
		MinSolveSecHard:    30,

		ContestHintPenalty:     0.5,
		ContestCooldownSec:     30,
		ContestWrongPenaltySec: 300,
		TimeDecayFloor:         0.5,

		AwardFirst:        100,
		AwardSecond:       75,
		AwardThird:        50,
		AwardTop10Pct:     30,
		AwardTop25Pct:     20,
		AwardTop50Pct:     10,
		AwardParticipated: 5,

		FreezeCreditCap:      2,
		FreezeGrantMinStreak: 7,

		FreeTierDailySubms: 20,
	}
}

// ReadScoringConfig reads scoring.toml from the given path, overlaying the
// compiled-in defaults. A missing file is not an error; a malformed one is.
func ReadScoringConfig(path string) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read scoring config: %w", err)
	}

	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	return cfg, nil
}
