package integrity

import (
	"time"

	"github.com/programme-lv/arena/rating"
)

type Config struct {
	SessionCeilingSec int // absolute plausible solve time, matches max session lifetime

	RateLimitAttempts int           // N attempts allowed ...
	RateLimitWindow   time.Duration // ... per this window

	MinSolveSec map[rating.Difficulty]int // per-difficulty speed-anomaly floor
}

const (
	BlockReasonImplausibleTime = "implausible_time"
	BlockReasonRateLimited     = "rate_limited"

	FlagReasonImplausibleTime = "implausible_time"
	FlagReasonTooFast         = "too_fast_for_difficulty"
)

// Verdict is the guard's decision for one attempt. Block rejects the
// attempt before any state mutation; Flag marks it for moderator review
// without affecting the outcome.
type Verdict struct {
	Block       bool
	BlockReason string
	RetryAfter  time.Duration // set when blocked by the rate limit

	Flag       bool
	FlagReason string
}

// Check validates one attempt: plausibility first, then the sliding
// window rate limit, then the soft speed-anomaly flag. recentAttempts are
// this user's attempt timestamps on this challenge, any order.
//
// The speed flag is evidence, not proof; callers should record it only
// when the submission turns out to be correct.
func Check(cfg Config, timeTakenSec int, difficulty rating.Difficulty, recentAttempts []time.Time, now time.Time) Verdict {
	if timeTakenSec < 0 || timeTakenSec > cfg.SessionCeilingSec {
		// Timestamps outside the session lifetime mean clock
		// tampering, not skill. Always both blocked and flagged.
		return Verdict{
			Block:       true,
			BlockReason: BlockReasonImplausibleTime,
			Flag:        true,
			FlagReason:  FlagReasonImplausibleTime,
		}
	}

	if retryAfter, limited := rateLimited(cfg, recentAttempts, now); limited {
		return Verdict{
			Block:       true,
			BlockReason: BlockReasonRateLimited,
			RetryAfter:  retryAfter,
		}
	}

	if minSec, ok := cfg.MinSolveSec[difficulty]; ok && timeTakenSec < minSec {
		return Verdict{
			Flag:       true,
			FlagReason: FlagReasonTooFast,
		}
	}

	return Verdict{}
}

// rateLimited counts attempts still inside the window. When the count
// reaches the limit, the retry-after is how long until the oldest
// in-window attempt slides out.
func rateLimited(cfg Config, recentAttempts []time.Time, now time.Time) (time.Duration, bool) {
	windowStart := now.Add(-cfg.RateLimitWindow)

	inWindow := 0
	var oldest time.Time
	for _, at := range recentAttempts {
		if at.After(windowStart) && !at.After(now) {
			inWindow++
			if oldest.IsZero() || at.Before(oldest) {
				oldest = at
			}
		}
	}

	if inWindow < cfg.RateLimitAttempts {
		return 0, false
	}

	retryAfter := oldest.Add(cfg.RateLimitWindow).Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return retryAfter, true
}
