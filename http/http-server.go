package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/subm"
)

type HttpServer struct {
	submSrvc    *subm.SubmSrvc
	contestSrvc *contest.ContestSrvc
	router      *chi.Mux
}

func NewHttpServer(
	submSrvc *subm.SubmSrvc,
	contestSrvc *contest.ContestSrvc,
	jwtKey []byte,
) *HttpServer {
	router := chi.NewRouter()

	logger := httplog.NewLogger("arena", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": "dev",
		},
	})

	router.Use(httplog.RequestLogger(logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://programme.lv", "https://www.programme.lv"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	router.Use(auth.GetJwtAuthMiddleware(jwtKey))

	server := &HttpServer{
		submSrvc:    submSrvc,
		contestSrvc: contestSrvc,
		router:      router,
	}

	server.routes()

	return server
}

func (httpserver *HttpServer) Start(address string) error {
	return http.ListenAndServe(address, httpserver.router)
}

func (httpserver *HttpServer) Handler() http.Handler {
	return httpserver.router
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Post("/submissions", httpserver.submitAnswer)
	r.Post("/contests/{contestID}/register", httpserver.registerForContest)
	r.Post("/contests/{contestID}/submissions", httpserver.submitContestAnswer)
	r.Get("/contests/{contestID}/scoreboard", httpserver.getContestScoreboard)
}
