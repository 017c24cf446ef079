package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
	"github.com/programme-lv/arena/subm"
)

func (httpserver *HttpServer) submitAnswer(w http.ResponseWriter, r *http.Request) {
	type submitAnswerRequest struct {
		ChallengeID string `json:"challenge_id"`
		Answer      string `json:"answer"`
		HintUsed    bool   `json:"hint_used"`
		ElapsedSec  int    `json:"elapsed_sec"`
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := httpserver.submSrvc.SubmitAnswer(r.Context(), subm.SubmitAnswerParams{
		UserUUID:    claims.UUID,
		UserTier:    claims.Tier,
		ChallengeID: request.ChallengeID,
		RawAnswer:   request.Answer,
		HintUsed:    request.HintUsed,
		ElapsedSec:  request.ElapsedSec,
	})
	if err != nil {
		httpjson.HandleError(slog.Default(), w, err)
		return
	}

	type submitAnswerResponse struct {
		Correct           bool `json:"correct"`
		AlreadySolved     bool `json:"already_solved"`
		RatingDelta       int  `json:"rating_delta"`
		Streak            int  `json:"streak"`
		AttemptsRemaining *int `json:"attempts_remaining,omitempty"`
	}

	httpjson.WriteSuccessJson(w, submitAnswerResponse{
		Correct:           res.Correct,
		AlreadySolved:     res.AlreadySolved,
		RatingDelta:       res.RatingDelta,
		Streak:            res.Streak,
		AttemptsRemaining: res.AttemptsRemaining,
	})
}
