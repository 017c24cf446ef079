package answer

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/arena/srvcerr"
)

const ErrCodeAnswerEmpty = "answer_empty"

func newErrAnswerEmpty() *srvcerr.Error {
	return srvcerr.New(
		ErrCodeAnswerEmpty,
		"atbilde nedrīkst būt tukša",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeAnswerTooLong = "answer_too_long"

func newErrAnswerTooLong(maxLength int) *srvcerr.Error {
	return srvcerr.New(
		ErrCodeAnswerTooLong,
		fmt.Sprintf("atbilde nedrīkst būt garāka par %d simboliem", maxLength),
	).SetHttpStatusCode(http.StatusBadRequest)
}
