package contest

import (
	"errors"
	"net/http"
	"time"

	"github.com/programme-lv/arena/srvcerr"
)

// ErrConditionFailed is returned by repo implementations when a
// conditional write did not fire; services translate it into the
// user-facing error that fits the situation.
var ErrConditionFailed = errors.New("conditional write failed")

const ErrCodeContestNotFound = "contest_not_found"

func newErrContestNotFound() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeContestNotFound,
		"sacensības netika atrastas",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeNotEligible = "not_eligible"

func newErrNotEligible() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeNotEligible,
		"šīs sacensības ir pieejamas tikai pro lietotājiem",
	).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeAlreadyRegistered = "already_registered"

func newErrAlreadyRegistered() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeAlreadyRegistered,
		"jūs jau esat reģistrējies šīm sacensībām",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeContestFull = "contest_full"

func newErrContestFull() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeContestFull,
		"sacensību dalībnieku skaits ir sasniegts",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeRegistrationClosed = "registration_closed"

func newErrRegistrationClosed() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeRegistrationClosed,
		"reģistrācija šīm sacensībām ir slēgta",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeNotRegistered = "not_registered"

func newErrNotRegistered() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeNotRegistered,
		"jūs neesat reģistrējies šīm sacensībām",
	).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeContestNotLive = "contest_not_live"

func newErrContestNotLive() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeContestNotLive,
		"sacensības šobrīd nenotiek",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeChallengeNotInContest = "challenge_not_in_contest"

func newErrChallengeNotInContest() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeChallengeNotInContest,
		"mīkla nepieder šīm sacensībām",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeAlreadySolved = "already_solved"

func newErrAlreadySolved() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeAlreadySolved,
		"jūs jau esat atrisinājis šo mīklu",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeCooldown = "cooldown"

func newErrCooldown(retryAfter time.Duration) *srvcerr.Error {
	return srvcerr.New(
		ErrCodeCooldown,
		"pēc nepareizas atbildes jāuzgaida, mēģiniet vēlāk",
	).SetHttpStatusCode(http.StatusTooManyRequests).SetRetryAfter(retryAfter)
}
