package contest_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/arena/contest"
)

func setupScoreboard(t *testing.T) *contest.Scoreboard {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return contest.NewScoreboard(rdb)
}

func TestScoreboardOrdersByScore(t *testing.T) {
	sb := setupScoreboard(t)
	ctx := context.Background()

	require.NoError(t, sb.AddPoints(ctx, "c1", "u1", 50))
	require.NoError(t, sb.AddPoints(ctx, "c1", "u2", 100))
	require.NoError(t, sb.AddPoints(ctx, "c1", "u1", 75))

	rows, err := sb.Top(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[0].UserUUID)
	assert.Equal(t, 125, rows[0].Score)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "u2", rows[1].UserUUID)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestScoreboardLimitAndIsolation(t *testing.T) {
	sb := setupScoreboard(t)
	ctx := context.Background()

	for i, u := range []string{"u1", "u2", "u3"} {
		require.NoError(t, sb.AddPoints(ctx, "c1", u, (i+1)*10))
	}
	require.NoError(t, sb.AddPoints(ctx, "c2", "u9", 999))

	rows, err := sb.Top(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u3", rows[0].UserUUID)

	rows, err = sb.Top(ctx, "c2", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u9", rows[0].UserUUID)
}

func TestScoreboardDrop(t *testing.T) {
	sb := setupScoreboard(t)
	ctx := context.Background()

	require.NoError(t, sb.AddPoints(ctx, "c1", "u1", 50))
	require.NoError(t, sb.Drop(ctx, "c1"))

	rows, err := sb.Top(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
