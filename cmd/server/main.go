package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/programme-lv/arena/challenge"
	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/http"
	"github.com/programme-lv/arena/integrity"
	"github.com/programme-lv/arena/subm"
	"github.com/programme-lv/arena/user"
)

const finalizerInterval = 2 * time.Minute

func main() {
	err := godotenv.Load()
	if err != nil {
		panic("Error loading .env file")
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		slog.Error("JWT_KEY is not set")
		os.Exit(1)
	}

	scoring, err := conf.ReadScoringConfig("scoring.toml")
	if err != nil {
		slog.Error("failed to read scoring config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := conf.LoadAwsConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	ddbClient := dynamodb.NewFromConfig(awsCfg)

	userRepo := user.NewDdbUserRepo(ddbClient,
		conf.GetDdbTableNameFromEnv("DDB_USERS_TABLE", "arena_users"))
	challengeRepo := challenge.NewDdbChallengeRepo(ddbClient,
		conf.GetDdbTableNameFromEnv("DDB_CHALLENGES_TABLE", "arena_challenges"))
	submRepo := subm.NewDdbSubmRepo(ddbClient,
		conf.GetDdbTableNameFromEnv("DDB_SUBMS_TABLE", "arena_subms"))
	contestRepo := contest.NewDdbContestRepo(ddbClient,
		conf.GetDdbTableNameFromEnv("DDB_CONTESTS_TABLE", "arena_contests"))

	var review integrity.ReviewQueue
	if queueUrl := conf.GetReviewQueueUrlFromEnv(); queueUrl != "" {
		review = integrity.NewSqsReviewQueue(sqs.NewFromConfig(awsCfg), queueUrl)
	} else {
		slog.Warn("REVIEW_SQS_QUEUE_URL not set, integrity flags stay in memory")
		review = integrity.NewInMemReviewQueue()
	}

	rdb := redis.NewClient(&redis.Options{Addr: conf.GetRedisAddrFromEnv()})
	scoreboard := contest.NewScoreboard(rdb)

	submSrvc := subm.NewSubmSrvc(subm.Config{
		Scoring:    scoring,
		Challenges: challengeRepo,
		Users:      userRepo,
		Subms:      submRepo,
		Review:     review,
	})
	userSrvc := user.NewUserSrvc(userRepo, scoring)
	contestSrvc := contest.NewContestSrvc(contest.Config{
		Scoring:    scoring,
		Repo:       contestRepo,
		Challenges: challengeRepo,
		Users:      userRepo,
		Subms:      submRepo,
		Scoreboard: scoreboard,
	})

	go userSrvc.StartDailyJobs(ctx)
	go contestSrvc.StartFinalizerLoop(ctx, finalizerInterval)

	httpServer := http.NewHttpServer(submSrvc, contestSrvc, []byte(jwtKey))

	address := ":8080"
	log.Printf("Starting server on %s", address)
	err = httpServer.Start(address)
	log.Printf("Server stopped with error: %v", err)
}
