package rating

import (
	"fmt"
	"math"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Config holds the practice reward curve. Values come from
// conf.ScoringConfig; the formula itself is deliberately free of any
// storage or config dependency.
type Config struct {
	BasePoints     map[Difficulty]int
	HintPenalty    float64 // <1.0, applied once if a hint was used
	PerAttemptRate float64 // multiplier lost per prior wrong attempt
	AttemptFloor   float64 // attempt penalty never drops below this

	WrongDeduction    int // flat rating loss per wrong attempt
	WrongDeductionCap int // total loss cap per challenge session
}

// GainBreakdown is the full decomposition of a practice rating gain,
// kept for the submission record and user-facing display.
type GainBreakdown struct {
	Base           int     `json:"base"`
	TimeBonus      float64 `json:"time_bonus"`
	HintPenalty    float64 `json:"hint_penalty"`
	AttemptPenalty float64 `json:"attempt_penalty"`
	FinalGain      int     `json:"final_gain"`
}

// Gain computes the rating gain for a correct practice solve.
// timeBonus = clamp(expected/actual, 0.5, 2.0); attemptPenalty =
// clamp(1 - wrongAttempts*rate, floor, 1.0). Invalid input is a hard
// error, never coerced.
func Gain(cfg Config, difficulty Difficulty, expectedSec int, actualSec int, hintUsed bool, wrongAttempts int) (GainBreakdown, error) {
	base, ok := cfg.BasePoints[difficulty]
	if !ok {
		return GainBreakdown{}, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	if expectedSec <= 0 {
		return GainBreakdown{}, fmt.Errorf("expected solve time must be positive, got %d", expectedSec)
	}
	if actualSec <= 0 {
		return GainBreakdown{}, fmt.Errorf("actual solve time must be positive, got %d", actualSec)
	}
	if wrongAttempts < 0 {
		return GainBreakdown{}, fmt.Errorf("wrong attempt count must be non-negative, got %d", wrongAttempts)
	}

	timeBonus := clamp(float64(expectedSec)/float64(actualSec), 0.5, 2.0)

	hintPenalty := 1.0
	if hintUsed {
		hintPenalty = cfg.HintPenalty
	}

	attemptPenalty := clamp(1.0-float64(wrongAttempts)*cfg.PerAttemptRate, cfg.AttemptFloor, 1.0)

	final := int(math.Round(float64(base) * timeBonus * hintPenalty * attemptPenalty))

	return GainBreakdown{
		Base:           base,
		TimeBonus:      timeBonus,
		HintPenalty:    hintPenalty,
		AttemptPenalty: attemptPenalty,
		FinalGain:      final,
	}, nil
}

// WrongDeduction returns the flat rating loss for one more wrong attempt,
// given how many wrong attempts this challenge session has already been
// charged for. Total loss per session is capped so repeated guessing
// cannot drive a rating arbitrarily negative.
func WrongDeduction(cfg Config, chargedWrongAttempts int) int {
	charged := chargedWrongAttempts * cfg.WrongDeduction
	if charged >= cfg.WrongDeductionCap {
		return 0
	}
	d := cfg.WrongDeduction
	if charged+d > cfg.WrongDeductionCap {
		d = cfg.WrongDeductionCap - charged
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
