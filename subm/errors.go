package subm

import (
	"net/http"
	"time"

	"github.com/programme-lv/arena/srvcerr"
)

const ErrCodeChallengeNotFound = "challenge_not_found"

func newErrChallengeNotFound() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeChallengeNotFound,
		"mīkla netika atrasta",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeTooManyAttempts = "too_many_attempts"

func newErrTooManyAttempts(retryAfter time.Duration) *srvcerr.Error {
	return srvcerr.New(
		ErrCodeTooManyAttempts,
		"pārāk daudz mēģinājumu, mēģiniet vēlāk",
	).SetHttpStatusCode(http.StatusTooManyRequests).SetRetryAfter(retryAfter)
}

const ErrCodeImplausibleTime = "implausible_submission_time"

func newErrImplausibleTime() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeImplausibleTime,
		"iesūtījuma laiks nav ticams",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeDailyLimitExceeded = "daily_limit_exceeded"

func newErrDailyLimitExceeded() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeDailyLimitExceeded,
		"šodienas iesūtījumu limits ir sasniegts",
	).SetHttpStatusCode(http.StatusTooManyRequests)
}
