package contest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/guregu/dynamo/v2"
)

// Layout of the contest table. Everything for one contest shares the
// partition:
//
//	pk = contest#<id>, sk = details              - contest header
//	pk = contest#<id>, sk = part#<user>          - participant
//	pk = contest#<id>, sk = att#<user>#<chal>    - attempt
type contestRow struct {
	Pk string `dynamo:"pk,hash"`
	Sk string `dynamo:"sk,range"`

	ID                   string         `dynamo:"id"`
	Title                string         `dynamo:"title"`
	StartAt              time.Time      `dynamo:"start_at"`
	EndAt                time.Time      `dynamo:"end_at"`
	RegistrationDeadline time.Time      `dynamo:"registration_deadline"`
	ChallengeIDs         []string       `dynamo:"challenge_ids"`
	DifficultyMultiplier float64        `dynamo:"difficulty_multiplier"`
	Capacity             int            `dynamo:"capacity"`
	ProOnly              bool           `dynamo:"pro_only"`
	IsActive             bool           `dynamo:"is_active"`
	Finalized            bool           `dynamo:"finalized"`
	ParticipantCount     int            `dynamo:"participant_count"`
	TopRankings          []RankingEntry `dynamo:"top_rankings,omitempty"`
}

type participantRow struct {
	Pk string `dynamo:"pk,hash"`
	Sk string `dynamo:"sk,range"`

	ContestID    string     `dynamo:"contest_id"`
	UserUUID     string     `dynamo:"user_uuid"`
	Score        int        `dynamo:"score"`
	SolveCount   int        `dynamo:"solve_count"`
	PenaltySec   int        `dynamo:"penalty_sec"`
	RegisteredAt time.Time  `dynamo:"registered_at"`
	FinishedAt   *time.Time `dynamo:"finished_at,omitempty"`
	FinalRank    int        `dynamo:"final_rank"`
	RatingAward  int        `dynamo:"rating_award"`
}

type attemptRow struct {
	Pk string `dynamo:"pk,hash"`
	Sk string `dynamo:"sk,range"`

	ContestID    string     `dynamo:"contest_id"`
	UserUUID     string     `dynamo:"user_uuid"`
	ChallengeID  string     `dynamo:"challenge_id"`
	Solved       bool       `dynamo:"solved"`
	WrongCount   int        `dynamo:"wrong_count"`
	LastWrongAt  *time.Time `dynamo:"last_wrong_at,omitempty"`
	PointsEarned int        `dynamo:"points_earned"`
	HintUsed     bool       `dynamo:"hint_used"`
}

func contestPk(contestID string) string {
	return fmt.Sprintf("contest#%s", contestID)
}

func participantSk(userUUID string) string {
	return fmt.Sprintf("part#%s", userUUID)
}

func attemptSk(userUUID, challengeID string) string {
	return fmt.Sprintf("att#%s#%s", userUUID, challengeID)
}

type DdbContestRepo struct {
	ddbClient *dynamodb.Client
	tableName string
	table     *dynamo.Table
}

func NewDdbContestRepo(ddbClient *dynamodb.Client, tableName string) *DdbContestRepo {
	repo := &DdbContestRepo{
		ddbClient: ddbClient,
		tableName: tableName,
	}
	db := dynamo.NewFromIface(ddbClient)
	table := db.Table(tableName)
	repo.table = &table

	return repo
}

func (r *DdbContestRepo) GetContest(ctx context.Context, id string) (*Contest, error) {
	row := new(contestRow)

	err := r.table.Get("pk", contestPk(id)).Range("sk", dynamo.Equal, "details").One(ctx, row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contest %s: %w", id, err)
	}

	return contestRowToContest(row), nil
}

func (r *DdbContestRepo) PutContest(ctx context.Context, c *Contest) error {
	return r.table.Put(contestToRow(c)).Run(ctx)
}

func (r *DdbContestRepo) ListDueContests(ctx context.Context, now time.Time) ([]*Contest, error) {
	var rows []*contestRow
	err := r.table.Scan().
		Filter("'sk' = ?", "details").
		Filter("'is_active' = ?", true).
		Filter("'finalized' = ?", false).
		Filter("'end_at' < ?", now.UTC()).
		All(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan due contests: %w", err)
	}

	contests := make([]*Contest, 0, len(rows))
	for _, row := range rows {
		contests = append(contests, contestRowToContest(row))
	}
	return contests, nil
}

// Register runs as one transaction: create the participant document
// only if it does not exist yet, and bump the participant count only
// while it is below capacity. Either condition failing cancels both.
func (r *DdbContestRepo) Register(ctx context.Context, p *Participant, capacity int) error {
	item, err := dynamo.MarshalItem(participantToRow(p))
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	countCond, err := expression.NewBuilder().
		WithCondition(expression.Name("participant_count").LessThan(expression.Value(capacity))).
		WithUpdate(expression.Add(expression.Name("participant_count"), expression.Value(1))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build register expression: %w", err)
	}

	_, err = r.ddbClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(pk)"),
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(r.tableName),
					Key:                       r.key(contestPk(p.ContestID), "details"),
					UpdateExpression:          countCond.Update(),
					ConditionExpression:       countCond.Condition(),
					ExpressionAttributeNames:  countCond.Names(),
					ExpressionAttributeValues: countCond.Values(),
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to register participant: %w", err)
	}
	return nil
}

func (r *DdbContestRepo) GetParticipant(ctx context.Context, contestID string, userUUID string) (*Participant, error) {
	row := new(participantRow)

	err := r.table.Get("pk", contestPk(contestID)).Range("sk", dynamo.Equal, participantSk(userUUID)).One(ctx, row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant %s: %w", userUUID, err)
	}

	return participantRowToParticipant(row), nil
}

func (r *DdbContestRepo) PutParticipant(ctx context.Context, p *Participant) error {
	return r.table.Put(participantToRow(p)).Run(ctx)
}

func (r *DdbContestRepo) ListParticipants(ctx context.Context, contestID string) ([]*Participant, error) {
	var rows []*participantRow
	err := r.table.Get("pk", contestPk(contestID)).
		Range("sk", dynamo.BeginsWith, "part#").
		All(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, participantRowToParticipant(row))
	}
	return participants, nil
}

func (r *DdbContestRepo) GetAttempt(ctx context.Context, contestID string, userUUID string, challengeID string) (*Attempt, error) {
	row := new(attemptRow)

	err := r.table.Get("pk", contestPk(contestID)).Range("sk", dynamo.Equal, attemptSk(userUUID, challengeID)).One(ctx, row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	return attemptRowToAttempt(row), nil
}

func (r *DdbContestRepo) RecordWrongAttempt(ctx context.Context, contestID string, userUUID string, challengeID string, at time.Time, penaltySec int) error {
	attUpd := expression.Add(expression.Name("wrong_count"), expression.Value(1)).
		Set(expression.Name("last_wrong_at"), expression.Value(at.UTC())).
		Set(expression.Name("contest_id"), expression.Value(contestID)).
		Set(expression.Name("user_uuid"), expression.Value(userUUID)).
		Set(expression.Name("challenge_id"), expression.Value(challengeID))
	_, err := r.update(ctx, contestPk(contestID), attemptSk(userUUID, challengeID), attUpd, nil, false)
	if err != nil {
		return fmt.Errorf("failed to record wrong attempt: %w", err)
	}

	partUpd := expression.Add(expression.Name("penalty_sec"), expression.Value(penaltySec))
	_, err = r.update(ctx, contestPk(contestID), participantSk(userUUID), partUpd, nil, false)
	if err != nil {
		return fmt.Errorf("failed to accrue penalty: %w", err)
	}
	return nil
}

// ApplySolve is guarded by the conditional flip of the attempt's solved
// flag; once that write fires the participant credit follows, and a
// crash in between is repaired by the retry hitting ErrConditionFailed
// and surfacing as already solved.
func (r *DdbContestRepo) ApplySolve(ctx context.Context, contestID string, userUUID string, challengeID string, points int, hintUsed bool, at time.Time, totalChallenges int) (int, error) {
	attUpd := expression.Set(expression.Name("solved"), expression.Value(true)).
		Set(expression.Name("points_earned"), expression.Value(points)).
		Set(expression.Name("hint_used"), expression.Value(hintUsed)).
		Set(expression.Name("contest_id"), expression.Value(contestID)).
		Set(expression.Name("user_uuid"), expression.Value(userUUID)).
		Set(expression.Name("challenge_id"), expression.Value(challengeID))
	notSolved := expression.Name("solved").AttributeNotExists().
		Or(expression.Name("solved").Equal(expression.Value(false)))

	_, err := r.update(ctx, contestPk(contestID), attemptSk(userUUID, challengeID), attUpd, &notSolved, false)
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return 0, ErrConditionFailed
		}
		return 0, fmt.Errorf("failed to mark attempt solved: %w", err)
	}

	partUpd := expression.Add(expression.Name("score"), expression.Value(points)).
		Add(expression.Name("solve_count"), expression.Value(1))
	attrs, err := r.update(ctx, contestPk(contestID), participantSk(userUUID), partUpd, nil, true)
	if err != nil {
		return 0, fmt.Errorf("failed to credit participant: %w", err)
	}

	var part participantRow
	if err := dynamo.UnmarshalItem(attrs, &part); err != nil {
		return 0, fmt.Errorf("failed to unmarshal participant: %w", err)
	}

	if part.SolveCount == totalChallenges {
		finishUpd := expression.Set(expression.Name("finished_at"), expression.Value(at.UTC()))
		notFinished := expression.Name("finished_at").AttributeNotExists()
		_, err := r.update(ctx, contestPk(contestID), participantSk(userUUID), finishUpd, &notFinished, false)
		if err != nil {
			var condFailed *types.ConditionalCheckFailedException
			if !errors.As(err, &condFailed) {
				return 0, fmt.Errorf("failed to stamp finish time: %w", err)
			}
		}
	}

	return part.SolveCount, nil
}

func (r *DdbContestRepo) MarkFinalized(ctx context.Context, contestID string) (bool, error) {
	upd := expression.Set(expression.Name("finalized"), expression.Value(true))
	cond := expression.Name("finalized").Equal(expression.Value(false))

	_, err := r.update(ctx, contestPk(contestID), "details", upd, &cond, false)
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return false, nil
		}
		return false, fmt.Errorf("failed to mark contest finalized: %w", err)
	}
	return true, nil
}

func (r *DdbContestRepo) SealParticipant(ctx context.Context, contestID string, userUUID string, rank int, award int) error {
	upd := expression.Set(expression.Name("final_rank"), expression.Value(rank)).
		Set(expression.Name("rating_award"), expression.Value(award))
	_, err := r.update(ctx, contestPk(contestID), participantSk(userUUID), upd, nil, false)
	if err != nil {
		return fmt.Errorf("failed to seal participant: %w", err)
	}
	return nil
}

func (r *DdbContestRepo) SetTopRankings(ctx context.Context, contestID string, entries []RankingEntry) error {
	upd := expression.Set(expression.Name("top_rankings"), expression.Value(entries))
	_, err := r.update(ctx, contestPk(contestID), "details", upd, nil, false)
	if err != nil {
		return fmt.Errorf("failed to set top rankings: %w", err)
	}
	return nil
}

func (r *DdbContestRepo) key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func (r *DdbContestRepo) update(ctx context.Context, pk string, sk string, upd expression.UpdateBuilder, cond *expression.ConditionBuilder, returnNew bool) (map[string]types.AttributeValue, error) {
	builder := expression.NewBuilder().WithUpdate(upd)
	if cond != nil {
		builder = builder.WithCondition(*cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build contest update expression: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		Key:                       r.key(pk, sk),
		TableName:                 aws.String(r.tableName),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
	}
	if cond != nil {
		input.ConditionExpression = expr.Condition()
	}
	if returnNew {
		input.ReturnValues = types.ReturnValueAllNew
	}

	out, err := r.ddbClient.UpdateItem(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.Attributes, nil
}

func contestRowToContest(row *contestRow) *Contest {
	return &Contest{
		ID:                   row.ID,
		Title:                row.Title,
		StartAt:              row.StartAt,
		EndAt:                row.EndAt,
		RegistrationDeadline: row.RegistrationDeadline,
		ChallengeIDs:         row.ChallengeIDs,
		DifficultyMultiplier: row.DifficultyMultiplier,
		Capacity:             row.Capacity,
		ProOnly:              row.ProOnly,
		IsActive:             row.IsActive,
		Finalized:            row.Finalized,
		ParticipantCount:     row.ParticipantCount,
		TopRankings:          row.TopRankings,
	}
}

func contestToRow(c *Contest) *contestRow {
	return &contestRow{
		Pk:                   contestPk(c.ID),
		Sk:                   "details",
		ID:                   c.ID,
		Title:                c.Title,
		StartAt:              c.StartAt.UTC(),
		EndAt:                c.EndAt.UTC(),
		RegistrationDeadline: c.RegistrationDeadline.UTC(),
		ChallengeIDs:         c.ChallengeIDs,
		DifficultyMultiplier: c.DifficultyMultiplier,
		Capacity:             c.Capacity,
		ProOnly:              c.ProOnly,
		IsActive:             c.IsActive,
		Finalized:            c.Finalized,
		ParticipantCount:     c.ParticipantCount,
		TopRankings:          c.TopRankings,
	}
}

func participantRowToParticipant(row *participantRow) *Participant {
	return &Participant{
		ContestID:    row.ContestID,
		UserUUID:     row.UserUUID,
		Score:        row.Score,
		SolveCount:   row.SolveCount,
		PenaltySec:   row.PenaltySec,
		RegisteredAt: row.RegisteredAt,
		FinishedAt:   row.FinishedAt,
		FinalRank:    row.FinalRank,
		RatingAward:  row.RatingAward,
	}
}

func participantToRow(p *Participant) *participantRow {
	return &participantRow{
		Pk:           contestPk(p.ContestID),
		Sk:           participantSk(p.UserUUID),
		ContestID:    p.ContestID,
		UserUUID:     p.UserUUID,
		Score:        p.Score,
		SolveCount:   p.SolveCount,
		PenaltySec:   p.PenaltySec,
		RegisteredAt: p.RegisteredAt.UTC(),
		FinishedAt:   p.FinishedAt,
		FinalRank:    p.FinalRank,
		RatingAward:  p.RatingAward,
	}
}

func attemptRowToAttempt(row *attemptRow) *Attempt {
	return &Attempt{
		ContestID:    row.ContestID,
		UserUUID:     row.UserUUID,
		ChallengeID:  row.ChallengeID,
		Solved:       row.Solved,
		WrongCount:   row.WrongCount,
		LastWrongAt:  row.LastWrongAt,
		PointsEarned: row.PointsEarned,
		HintUsed:     row.HintUsed,
	}
}
