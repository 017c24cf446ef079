package user

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

	"github.com/programme-lv/arena/rating"
	"github.com/programme-lv/arena/streak"
)

// Calendar days are stored as plain date strings so conditional
// equality checks on them are exact.
const dayLayout = "2006-01-02"

// userRow is the user rating-state document.
type userRow struct {
	UUID          string `dynamo:"uuid,hash"` // Primary key
	Rating        int    `dynamo:"rating"`
	WeeklyRating  int    `dynamo:"weekly_rating"`
	MonthlyRating int    `dynamo:"monthly_rating"`
	SolvedEasy    int    `dynamo:"solved_easy"`
	SolvedMedium  int    `dynamo:"solved_medium"`
	SolvedHard    int    `dynamo:"solved_hard"`
	CurrentStreak int    `dynamo:"current_streak"`
	MaxStreak     int    `dynamo:"max_streak"`
	LastActiveDay string `dynamo:"last_active_day"`
	FreezeCredits int    `dynamo:"freeze_credits"`
	SubmsToday    int    `dynamo:"subms_today"`
}

func formatDay(day time.Time) string {
	if day.IsZero() {
		return ""
	}
	return streak.DayOf(day).Format(dayLayout)
}

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}
	}
	return day
}

// DdbUserRepo stores user rating state in a DynamoDB table keyed by the
// user's uuid.
type DdbUserRepo struct {
	ddbClient *dynamodb.Client
	tableName string
	table     *dynamo.Table
}

func NewDdbUserRepo(ddbClient *dynamodb.Client, tableName string) *DdbUserRepo {
	repo := &DdbUserRepo{
		ddbClient: ddbClient,
		tableName: tableName,
	}
	db := dynamo.NewFromIface(ddbClient)
	table := db.Table(tableName)
	repo.table = &table

	return repo
}

func (r *DdbUserRepo) Get(ctx context.Context, userUUID string) (*RatingState, error) {
	row := new(userRow)

	err := r.table.Get("uuid", userUUID).One(ctx, row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userUUID, err)
	}

	return rowToState(row), nil
}

func (r *DdbUserRepo) Put(ctx context.Context, st *RatingState) error {
	return r.table.Put(stateToRow(st)).Run(ctx)
}

func (r *DdbUserRepo) List(ctx context.Context) ([]*RatingState, error) {
	var rows []*userRow
	err := r.table.Scan().All(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	states := make([]*RatingState, 0, len(rows))
	for _, row := range rows {
		states = append(states, rowToState(row))
	}
	return states, nil
}

// ApplySolveReward lands the whole reward on the user document in one
// UpdateItem: ADD for every counter, SET for the streak fields.
func (r *DdbUserRepo) ApplySolveReward(ctx context.Context, userUUID string, reward SolveReward) error {
	upd := expression.Add(expression.Name("rating"), expression.Value(reward.RatingDelta)).
		Add(expression.Name("weekly_rating"), expression.Value(reward.RatingDelta)).
		Add(expression.Name("monthly_rating"), expression.Value(reward.RatingDelta)).
		Add(expression.Name(solvedCountAttr(reward.Difficulty)), expression.Value(1)).
		Add(expression.Name("subms_today"), expression.Value(1)).
		Set(expression.Name("current_streak"), expression.Value(reward.Streak.Current)).
		Set(expression.Name("max_streak"), expression.Value(reward.Streak.Max)).
		Set(expression.Name("last_active_day"), expression.Value(formatDay(reward.Streak.LastActiveDay)))

	return r.update(ctx, userUUID, upd, nil)
}

func (r *DdbUserRepo) AddRating(ctx context.Context, userUUID string, delta int) error {
	upd := expression.Add(expression.Name("rating"), expression.Value(delta)).
		Add(expression.Name("weekly_rating"), expression.Value(delta)).
		Add(expression.Name("monthly_rating"), expression.Value(delta))
	return r.update(ctx, userUUID, upd, nil)
}

func (r *DdbUserRepo) AddSubmToday(ctx context.Context, userUUID string, delta int) error {
	upd := expression.Add(expression.Name("subms_today"), expression.Value(delta))
	return r.update(ctx, userUUID, upd, nil)
}

// ConsumeFreeze is a single conditional write: it only fires while the
// user still holds a credit and their last active day has not moved,
// which makes a retried sweep a no-op.
func (r *DdbUserRepo) ConsumeFreeze(ctx context.Context, userUUID string, expectedLastActive time.Time, coveredDay time.Time) (bool, error) {
	upd := expression.Add(expression.Name("freeze_credits"), expression.Value(-1)).
		Set(expression.Name("last_active_day"), expression.Value(formatDay(coveredDay)))
	cond := expression.Name("freeze_credits").GreaterThanEqual(expression.Value(1)).And(
		expression.Name("last_active_day").Equal(expression.Value(formatDay(expectedLastActive))))

	err := r.update(ctx, userUUID, upd, &cond)
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *DdbUserRepo) SetFreezeCredits(ctx context.Context, userUUID string, credits int) error {
	upd := expression.Set(expression.Name("freeze_credits"), expression.Value(credits))
	return r.update(ctx, userUUID, upd, nil)
}

func (r *DdbUserRepo) ResetSubmsToday(ctx context.Context, userUUID string) error {
	upd := expression.Set(expression.Name("subms_today"), expression.Value(0))
	return r.update(ctx, userUUID, upd, nil)
}

func (r *DdbUserRepo) ResetRollingRating(ctx context.Context, userUUID string, weekly bool, monthly bool) error {
	if !weekly && !monthly {
		return nil
	}
	var upd expression.UpdateBuilder
	if weekly {
		upd = upd.Set(expression.Name("weekly_rating"), expression.Value(0))
	}
	if monthly {
		upd = upd.Set(expression.Name("monthly_rating"), expression.Value(0))
	}
	return r.update(ctx, userUUID, upd, nil)
}

func (r *DdbUserRepo) update(ctx context.Context, userUUID string, upd expression.UpdateBuilder, cond *expression.ConditionBuilder) error {
	builder := expression.NewBuilder().WithUpdate(upd)
	if cond != nil {
		builder = builder.WithCondition(*cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build user update expression: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		Key: map[string]types.AttributeValue{
			"uuid": &types.AttributeValueMemberS{Value: userUUID},
		},
		TableName:                 aws.String(r.tableName),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
	}
	if cond != nil {
		input.ConditionExpression = expr.Condition()
	}

	_, err = r.ddbClient.UpdateItem(ctx, input)
	return err
}

func solvedCountAttr(d rating.Difficulty) string {
	switch d {
	case rating.DifficultyEasy:
		return "solved_easy"
	case rating.DifficultyMedium:
		return "solved_medium"
	case rating.DifficultyHard:
		return "solved_hard"
	}
	return "solved_easy"
}

func rowToState(row *userRow) *RatingState {
	return &RatingState{
		UUID:          row.UUID,
		Rating:        row.Rating,
		WeeklyRating:  row.WeeklyRating,
		MonthlyRating: row.MonthlyRating,
		SolvedEasy:    row.SolvedEasy,
		SolvedMedium:  row.SolvedMedium,
		SolvedHard:    row.SolvedHard,
		CurrentStreak: row.CurrentStreak,
		MaxStreak:     row.MaxStreak,
		LastActiveDay: parseDay(row.LastActiveDay),
		FreezeCredits: row.FreezeCredits,
		SubmsToday:    row.SubmsToday,
	}
}

func stateToRow(st *RatingState) *userRow {
	return &userRow{
		UUID:          st.UUID,
		Rating:        st.Rating,
		WeeklyRating:  st.WeeklyRating,
		MonthlyRating: st.MonthlyRating,
		SolvedEasy:    st.SolvedEasy,
		SolvedMedium:  st.SolvedMedium,
		SolvedHard:    st.SolvedHard,
		CurrentStreak: st.CurrentStreak,
		MaxStreak:     st.MaxStreak,
		LastActiveDay: formatDay(st.LastActiveDay),
		FreezeCredits: st.FreezeCredits,
		SubmsToday:    st.SubmsToday,
	}
}
