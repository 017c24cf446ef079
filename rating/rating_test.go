package rating_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/arena/rating"
)

func testConfig() rating.Config {
	return rating.Config{
		BasePoints: map[rating.Difficulty]int{
			rating.DifficultyEasy:   10,
			rating.DifficultyMedium: 25,
			rating.DifficultyHard:   50,
		},
		HintPenalty:       0.7,
		PerAttemptRate:    0.10,
		AttemptFloor:      0.5,
		WrongDeduction:    1,
		WrongDeductionCap: 5,
	}
}

func TestGainTimeBonusBounds(t *testing.T) {
	cfg := testConfig()

	// Absurdly fast solve caps the bonus at x2.
	g, err := rating.Gain(cfg, rating.DifficultyMedium, 600, 1, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, g.TimeBonus)
	assert.Equal(t, 50, g.FinalGain)

	// Absurdly slow solve floors it at x0.5.
	g, err = rating.Gain(cfg, rating.DifficultyMedium, 600, 1000000, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, g.TimeBonus)
	assert.Equal(t, 13, g.FinalGain)

	// On-pace solve is exactly the base.
	g, err = rating.Gain(cfg, rating.DifficultyMedium, 600, 600, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.TimeBonus)
	assert.Equal(t, 25, g.FinalGain)
}

func TestGainHintAlwaysCostsSomething(t *testing.T) {
	cfg := testConfig()
	for _, d := range []rating.Difficulty{rating.DifficultyEasy, rating.DifficultyMedium, rating.DifficultyHard} {
		withHint, err := rating.Gain(cfg, d, 600, 300, true, 0)
		require.NoError(t, err)
		withoutHint, err := rating.Gain(cfg, d, 600, 300, false, 0)
		require.NoError(t, err)
		assert.Less(t, withHint.FinalGain, withoutHint.FinalGain, "difficulty %s", d)
	}
}

func TestGainAttemptPenaltyFloor(t *testing.T) {
	cfg := testConfig()

	g, err := rating.Gain(cfg, rating.DifficultyHard, 600, 600, false, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, g.AttemptPenalty, 1e-9)

	// 100 wrong attempts still never drops below the floor.
	g, err = rating.Gain(cfg, rating.DifficultyHard, 600, 600, false, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, g.AttemptPenalty)
	assert.Equal(t, 25, g.FinalGain)
}

func TestGainRejectsInvalidInput(t *testing.T) {
	cfg := testConfig()

	_, err := rating.Gain(cfg, "impossible", 600, 300, false, 0)
	assert.Error(t, err)

	_, err = rating.Gain(cfg, rating.DifficultyEasy, 0, 300, false, 0)
	assert.Error(t, err)

	_, err = rating.Gain(cfg, rating.DifficultyEasy, 600, -5, false, 0)
	assert.Error(t, err)

	_, err = rating.Gain(cfg, rating.DifficultyEasy, 600, 300, false, -1)
	assert.Error(t, err)
}

func TestWrongDeductionCapped(t *testing.T) {
	cfg := testConfig()

	total := 0
	for charged := 0; charged < 10; charged++ {
		total += rating.WrongDeduction(cfg, charged)
	}
	assert.Equal(t, cfg.WrongDeductionCap, total)

	// Past the cap every further attempt is free.
	assert.Equal(t, 0, rating.WrongDeduction(cfg, 5))
	assert.Equal(t, 0, rating.WrongDeduction(cfg, 50))
}

func TestParseDifficulty(t *testing.T) {
	d, err := rating.ParseDifficulty("hard")
	require.NoError(t, err)
	assert.Equal(t, rating.DifficultyHard, d)

	_, err = rating.ParseDifficulty("nightmare")
	assert.Error(t, err)
}
