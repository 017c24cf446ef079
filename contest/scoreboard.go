package contest

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const scoreboardKeyPrefix = "arena:contest:%s:scoreboard"

// Scoreboard is the live in-contest leaderboard, backed by a Redis
// sorted set per contest. It is a read-optimized projection; the
// participant documents remain the source of truth and the finalizer
// never reads from here.
type Scoreboard struct {
	rdb *redis.Client
}

func NewScoreboard(rdb *redis.Client) *Scoreboard {
	return &Scoreboard{rdb: rdb}
}

func scoreboardKey(contestID string) string {
	return fmt.Sprintf(scoreboardKeyPrefix, contestID)
}

func (s *Scoreboard) AddPoints(ctx context.Context, contestID string, userUUID string, points int) error {
	err := s.rdb.ZIncrBy(ctx, scoreboardKey(contestID), float64(points), userUUID).Err()
	if err != nil {
		return fmt.Errorf("failed to increment scoreboard score: %w", err)
	}
	return nil
}

type ScoreboardRow struct {
	Rank     int    `json:"rank"`
	UserUUID string `json:"user_uuid"`
	Score    int    `json:"score"`
}

// Top returns the current standings, highest score first. Ties share
// the order Redis yields; only the finalizer applies the full
// tie-break rules.
func (s *Scoreboard) Top(ctx context.Context, contestID string, limit int) ([]ScoreboardRow, error) {
	members, err := s.rdb.ZRevRangeWithScores(ctx, scoreboardKey(contestID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scoreboard: %w", err)
	}

	rows := make([]ScoreboardRow, 0, len(members))
	for i, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			continue
		}
		rows = append(rows, ScoreboardRow{
			Rank:     i + 1,
			UserUUID: member,
			Score:    int(m.Score),
		})
	}
	return rows, nil
}

// Drop removes the live scoreboard after finalization; the sealed
// rankings on the contest document take over.
func (s *Scoreboard) Drop(ctx context.Context, contestID string) error {
	err := s.rdb.Del(ctx, scoreboardKey(contestID)).Err()
	if err != nil {
		return fmt.Errorf("failed to drop scoreboard: %w", err)
	}
	return nil
}
