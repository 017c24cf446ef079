package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/guregu/dynamo/v2"

	"github.com/programme-lv/arena/answer"
	"github.com/programme-lv/arena/rating"
)

// challengeRow is the DynamoDB document for one challenge.
type challengeRow struct {
	ID               string       `dynamo:"id,hash"` // Primary key
	Title            string       `dynamo:"title"`
	Difficulty       string       `dynamo:"difficulty"`
	ExpectedSolveSec int          `dynamo:"expected_solve_sec"`
	BasePoints       int          `dynamo:"base_points"`
	AnswerDigest     string       `dynamo:"answer_digest"`
	NormRules        answer.Rules `dynamo:"norm_rules"`
	Hint             *string      `dynamo:"hint"`
	SolvedCount      int          `dynamo:"solved_count"`
	AttemptedCount   int          `dynamo:"attempted_count"`
}

// DdbChallengeRepo stores challenges in a DynamoDB table keyed by id.
type DdbChallengeRepo struct {
	ddbClient *dynamodb.Client
	tableName string
	table     *dynamo.Table
}

func NewDdbChallengeRepo(ddbClient *dynamodb.Client, tableName string) *DdbChallengeRepo {
	repo := &DdbChallengeRepo{
		ddbClient: ddbClient,
		tableName: tableName,
	}
	db := dynamo.NewFromIface(ddbClient)
	table := db.Table(tableName)
	repo.table = &table

	return repo
}

func (r *DdbChallengeRepo) Get(ctx context.Context, id string) (*Challenge, error) {
	row := new(challengeRow)

	err := r.table.Get("id", id).One(ctx, row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, err)
	}

	difficulty, err := rating.ParseDifficulty(row.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("challenge %s has corrupt difficulty: %w", id, err)
	}

	return &Challenge{
		ID:               row.ID,
		Title:            row.Title,
		Difficulty:       difficulty,
		ExpectedSolveSec: row.ExpectedSolveSec,
		BasePoints:       row.BasePoints,
		AnswerDigest:     row.AnswerDigest,
		NormRules:        row.NormRules,
		Hint:             row.Hint,
		SolvedCount:      row.SolvedCount,
		AttemptedCount:   row.AttemptedCount,
	}, nil
}

func (r *DdbChallengeRepo) Put(ctx context.Context, ch *Challenge) error {
	row := &challengeRow{
		ID:               ch.ID,
		Title:            ch.Title,
		Difficulty:       string(ch.Difficulty),
		ExpectedSolveSec: ch.ExpectedSolveSec,
		BasePoints:       ch.BasePoints,
		AnswerDigest:     ch.AnswerDigest,
		NormRules:        ch.NormRules,
		Hint:             ch.Hint,
		SolvedCount:      ch.SolvedCount,
		AttemptedCount:   ch.AttemptedCount,
	}
	return r.table.Put(row).Run(ctx)
}

// AddCounters increments the hot aggregate counters with a single ADD
// update, never read-modify-write; concurrent solvers of the same
// challenge serialize on the document inside DynamoDB.
func (r *DdbChallengeRepo) AddCounters(ctx context.Context, id string, solvedDelta int, attemptedDelta int) error {
	upd := expression.Add(expression.Name("solved_count"), expression.Value(solvedDelta)).
		Add(expression.Name("attempted_count"), expression.Value(attemptedDelta))
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return fmt.Errorf("failed to build counter update expression: %w", err)
	}

	_, err = r.ddbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		TableName:                 aws.String(r.tableName),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
	})
	if err != nil {
		return fmt.Errorf("failed to increment challenge counters: %w", err)
	}

	return nil
}
