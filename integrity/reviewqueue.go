package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Flag is one review item for the moderator tooling. Publication is
// best-effort side work: a failed publish never affects the submission
// it describes.
type Flag struct {
	UserUUID     string    `json:"user_uuid"`
	ChallengeID  string    `json:"challenge_id"`
	ContestID    string    `json:"contest_id,omitempty"`
	Reason       string    `json:"reason"`
	TimeTakenSec int       `json:"time_taken_sec"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type ReviewQueue interface {
	PublishFlag(ctx context.Context, flag Flag) error
}

// SqsReviewQueue enqueues flags into AWS SQS for the review dashboard.
type SqsReviewQueue struct {
	client   *sqs.Client
	queueUrl string
}

func NewSqsReviewQueue(client *sqs.Client, queueUrl string) *SqsReviewQueue {
	return &SqsReviewQueue{
		client:   client,
		queueUrl: queueUrl,
	}
}

func (q *SqsReviewQueue) PublishFlag(ctx context.Context, flag Flag) error {
	jsonMsg, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("failed to marshal review flag: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueUrl),
		MessageBody: aws.String(string(jsonMsg)),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue review flag: %w", err)
	}

	return nil
}

// InMemReviewQueue collects flags in memory. Used in tests and as the
// fallback when no SQS queue is configured.
type InMemReviewQueue struct {
	mu    sync.Mutex
	flags []Flag
}

func NewInMemReviewQueue() *InMemReviewQueue {
	return &InMemReviewQueue{}
}

func (q *InMemReviewQueue) PublishFlag(ctx context.Context, flag Flag) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.flags = append(q.flags, flag)
	return nil
}

func (q *InMemReviewQueue) Flags() []Flag {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Flag(nil), q.flags...)
}
