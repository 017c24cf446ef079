package subm

import (
	"fmt"
	"time"

	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/guregu/dynamo/v2"
)

// submRow is one submission log document. The partition key groups all
// attempts of one user on one challenge, the sort key orders them by
// time, so the already-solved check, the wrong-attempt count and the
// rate-limit window are all single-partition queries.
type submRow struct {
	Pk string `dynamo:"pk,hash"`  // subm#<user_uuid>#<challenge_id>
	Sk string `dynamo:"sk,range"` // <rfc3339nano>#<subm_uuid>

	SubmUUID            string    `dynamo:"subm_uuid"`
	UserUUID            string    `dynamo:"user_uuid"`
	ChallengeID         string    `dynamo:"challenge_id"`
	ContestID           string    `dynamo:"contest_id"`
	AnswerDigest        string    `dynamo:"answer_digest"`
	Correct             bool      `dynamo:"correct"`
	RatingDelta         int       `dynamo:"rating_delta"`
	ElapsedSec          int       `dynamo:"elapsed_sec"`
	HintUsed            bool      `dynamo:"hint_used"`
	WrongAttemptsBefore int       `dynamo:"wrong_attempts_before"`
	Flagged             bool      `dynamo:"flagged"`
	FlagReason          string    `dynamo:"flag_reason,omitempty"`
	CreatedAt           time.Time `dynamo:"created_at"`
}

// skTimeLayout is fixed-width so sort keys stay lexicographically
// ordered; RFC3339Nano trims trailing zeros and would not be.
const skTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func submPk(userUUID string, challengeID string) string {
	return fmt.Sprintf("subm#%s#%s", userUUID, challengeID)
}

func submSk(createdAt time.Time, submUUID string) string {
	return fmt.Sprintf("%s#%s", createdAt.UTC().Format(skTimeLayout), submUUID)
}

// DdbSubmRepo is the append-only submission log in DynamoDB.
type DdbSubmRepo struct {
	table *dynamo.Table
}

func NewDdbSubmRepo(ddbClient *dynamodb.Client, tableName string) *DdbSubmRepo {
	db := dynamo.NewFromIface(ddbClient)
	table := db.Table(tableName)
	return &DdbSubmRepo{table: &table}
}

func (r *DdbSubmRepo) Append(ctx context.Context, rec Record) error {
	row := &submRow{
		Pk:                  submPk(rec.UserUUID, rec.ChallengeID),
		Sk:                  submSk(rec.CreatedAt, rec.UUID.String()),
		SubmUUID:            rec.UUID.String(),
		UserUUID:            rec.UserUUID,
		ChallengeID:         rec.ChallengeID,
		ContestID:           rec.ContestID,
		AnswerDigest:        rec.AnswerDigest,
		Correct:             rec.Correct,
		RatingDelta:         rec.RatingDelta,
		ElapsedSec:          rec.ElapsedSec,
		HintUsed:            rec.HintUsed,
		WrongAttemptsBefore: rec.WrongAttemptsBefore,
		Flagged:             rec.Flagged,
		FlagReason:          rec.FlagReason,
		CreatedAt:           rec.CreatedAt,
	}
	if err := r.table.Put(row).Run(ctx); err != nil {
		return fmt.Errorf("failed to append submission record: %w", err)
	}
	return nil
}

func (r *DdbSubmRepo) HasSolved(ctx context.Context, userUUID string, challengeID string) (bool, error) {
	rows, err := r.queryAll(ctx, userUUID, challengeID)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Correct && row.ContestID == "" {
			return true, nil
		}
	}
	return false, nil
}

func (r *DdbSubmRepo) CountWrong(ctx context.Context, userUUID string, challengeID string) (int, error) {
	rows, err := r.queryAll(ctx, userUUID, challengeID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if !row.Correct && row.ContestID == "" {
			count++
		}
	}
	return count, nil
}

func (r *DdbSubmRepo) RecentAttempts(ctx context.Context, userUUID string, challengeID string, since time.Time) ([]time.Time, error) {
	var rows []*submRow
	err := r.table.Get("pk", submPk(userUUID, challengeID)).
		Range("sk", dynamo.GreaterOrEqual, since.UTC().Format(skTimeLayout)).
		All(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attempts: %w", err)
	}

	var attempts []time.Time
	for _, row := range rows {
		if row.ContestID == "" {
			attempts = append(attempts, row.CreatedAt)
		}
	}
	return attempts, nil
}

func (r *DdbSubmRepo) queryAll(ctx context.Context, userUUID string, challengeID string) ([]*submRow, error) {
	var rows []*submRow
	err := r.table.Get("pk", submPk(userUUID, challengeID)).All(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission records: %w", err)
	}
	return rows, nil
}
