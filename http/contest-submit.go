package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
)

func (httpserver *HttpServer) submitContestAnswer(w http.ResponseWriter, r *http.Request) {
	type contestSubmitRequest struct {
		ChallengeID string `json:"challenge_id"`
		Answer      string `json:"answer"`
		HintUsed    bool   `json:"hint_used"`
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request contestSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	contestID := chi.URLParam(r, "contestID")

	res, err := httpserver.contestSrvc.SubmitAnswer(r.Context(),
		claims.UUID, contestID, request.ChallengeID, request.Answer, request.HintUsed)
	if err != nil {
		httpjson.HandleError(slog.Default(), w, err)
		return
	}

	type contestSubmitResponse struct {
		Correct      bool `json:"correct"`
		PointsEarned int  `json:"points_earned"`
		PenaltyAdded int  `json:"penalty_added"`
		Finished     bool `json:"finished"`
	}

	httpjson.WriteSuccessJson(w, contestSubmitResponse{
		Correct:      res.Correct,
		PointsEarned: res.PointsEarned,
		PenaltyAdded: res.PenaltyAdded,
		Finished:     res.Finished,
	})
}
