package conf

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

func GetDdbTableNameFromEnv(envVar string, fallback string) string {
	name := os.Getenv(envVar)
	if name == "" {
		return fallback
	}
	return name
}

func GetRedisAddrFromEnv() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return "localhost:6379"
	}
	return addr
}

func GetReviewQueueUrlFromEnv() string {
	return os.Getenv("REVIEW_SQS_QUEUE_URL")
}

func LoadAwsConfig(ctx context.Context) (aws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return cfg, nil
}
