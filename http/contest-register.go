package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
)

func (httpserver *HttpServer) registerForContest(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	contestID := chi.URLParam(r, "contestID")

	err := httpserver.contestSrvc.Register(r.Context(), claims.UUID, claims.Tier, contestID)
	if err != nil {
		httpjson.HandleError(slog.Default(), w, err)
		return
	}

	type registerResponse struct {
		Registered bool `json:"registered"`
	}

	httpjson.WriteSuccessJson(w, registerResponse{Registered: true})
}
