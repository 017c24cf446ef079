package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/programme-lv/arena/httpjson"
)

const defaultScoreboardLimit = 50
const maxScoreboardLimit = 200

// getContestScoreboard is public: live standings while the contest
// runs, the sealed top rankings after finalization.
func (httpserver *HttpServer) getContestScoreboard(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	limit := defaultScoreboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxScoreboardLimit)
	}

	rows, err := httpserver.contestSrvc.ReadScoreboard(r.Context(), contestID, limit)
	if err != nil {
		httpjson.HandleError(slog.Default(), w, err)
		return
	}

	httpjson.WriteSuccessJson(w, rows)
}
