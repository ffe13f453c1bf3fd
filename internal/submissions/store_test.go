package submissions_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/submissions"
)

func sample(userID string, expires time.Duration) *address.Submission {
	created := time.Now().UTC().Truncate(time.Second)
	return &address.Submission{
		SubmissionID: uuid.Must(uuid.NewV7()).String(),
		UserID:       userID,
		CreatedAt:    created,
		ExpiresAt:    created.Add(expires),
		Input:        address.Input{RawAddress: "Rue du Rhône 10, 1204 Genève", CountryCode: "CH"},
		Results: map[address.PipelineID]address.Result{
			address.RuleBasedGeonames: address.Ok(address.Normalized{
				AddressLine1: "Rue du Rhône 10",
				Postcode:     "1204",
				City:         "Genève",
				CountryCode:  "CH",
				Confidence:   0.95,
				Warnings:     []string{},
				Source:       address.RuleBasedGeonames,
				GeoAccuracy:  address.AccuracyNone,
			}),
			address.Loqate: address.Failed(address.Loqate, address.ReasonTimeout, "timeout after 8s"),
		},
		Costs: map[address.PipelineID]address.Cost{
			address.Loqate: {EstimatedUSD: 0.02, Basis: "per_request"},
		},
	}
}

func TestMemoryStoreHidesExpired(t *testing.T) {
	store := submissions.NewMemoryStore()
	ctx := context.Background()

	live := sample("user-a", time.Hour)
	expired := sample("user-a", -time.Minute)
	require.NoError(t, store.Put(ctx, live))
	require.NoError(t, store.Put(ctx, expired))

	_, err := store.Get(ctx, "user-a", expired.SubmissionID)
	assert.ErrorIs(t, err, submissions.ErrNotFound)

	recent, err := store.ListRecent(ctx, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, live.SubmissionID, recent[0].SubmissionID)

	assert.ErrorIs(t, store.SetPreferred(ctx, "user-a", expired.SubmissionID, address.Loqate), submissions.ErrNotFound)
	assert.ErrorIs(t, store.Put(ctx, live), submissions.ErrDuplicate)
}

var columns = []string{
	"user_id", "submission_id", "created_at", "expires_at",
	"input", "results", "costs", "provenance", "preferred_method",
}

func row(t *testing.T, s *address.Submission, preferred any) *sqlmock.Rows {
	t.Helper()
	enc := func(v any) []byte {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return data
	}
	return sqlmock.NewRows(columns).AddRow(
		s.UserID, s.SubmissionID, s.CreatedAt, s.ExpiresAt,
		enc(s.Input), enc(s.Results), enc(s.Costs), enc(s.Provenance), preferred,
	)
}

func TestPostgresStorePut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sample("user-a", time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").
		WithArgs("user-a", s.SubmissionID, s.CreatedAt, s.ExpiresAt,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, submissions.NewPostgresStore(db).Put(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sample("user-a", time.Hour)
	q := regexp.QuoteMeta("FROM public.submissions s WHERE s.user_id = $1 AND s.submission_id = $2 AND s.expires_at > $3 LIMIT 1")

	mock.ExpectQuery(q).
		WithArgs("user-a", s.SubmissionID, sqlmock.AnyArg()).
		WillReturnRows(row(t, s, "loqate"))

	got, err := submissions.NewPostgresStore(db).Get(context.Background(), "user-a", s.SubmissionID)
	require.NoError(t, err)

	require.NotNil(t, got.PreferredMethod)
	assert.Equal(t, address.Loqate, *got.PreferredMethod)
	got.PreferredMethod = nil
	if diff := cmp.Diff(s, got, cmp.AllowUnexported(address.Result{})); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	mock.ExpectQuery(q).
		WithArgs("user-b", s.SubmissionID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = submissions.NewPostgresStore(db).Get(context.Background(), "user-b", s.SubmissionID)
	assert.ErrorIs(t, err, submissions.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sample("user-a", time.Hour)
	q := regexp.QuoteMeta("WHERE s.user_id = $1 AND s.expires_at > $2 ORDER BY s.created_at DESC, s.submission_id DESC LIMIT 5")

	mock.ExpectQuery(q).
		WithArgs("user-a", sqlmock.AnyArg()).
		WillReturnRows(row(t, s, nil))

	got, err := submissions.NewPostgresStore(db).ListRecent(context.Background(), "user-a", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s.SubmissionID, got[0].SubmissionID)
	assert.Nil(t, got[0].PreferredMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetPreferred(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := submissions.NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE submissions SET preferred_method").
		WithArgs("user-a", "sub-1", "loqate", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, store.SetPreferred(context.Background(), "user-a", "sub-1", address.Loqate))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE submissions SET preferred_method").
		WithArgs("user-b", "sub-1", "loqate", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err = store.SetPreferred(context.Background(), "user-b", "sub-1", address.Loqate)
	assert.ErrorIs(t, err, submissions.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSweep(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM submissions WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := submissions.NewPostgresStore(db).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeTable struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func key(pk, sk types.AttributeValue) string {
	return str(pk) + "|" + str(sk)
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	k := key(in.Item["PK"], in.Item["SK"])
	if _, exists := f.items[k]; exists && aws.ToString(in.ConditionExpression) != "" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[key(in.Key["PK"], in.Key["SK"])]}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	pk := str(in.ExpressionAttributeValues[":pk"])
	prefix := str(in.ExpressionAttributeValues[":sk"])

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item["PK"]) == pk && strings.HasPrefix(str(item["SK"]), prefix) {
			matched = append(matched, item)
		}
	}
	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		if forward {
			return str(matched[i]["SK"]) < str(matched[j]["SK"])
		}
		return str(matched[i]["SK"]) > str(matched[j]["SK"])
	})
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: matched}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	k := key(in.Key["PK"], in.Key["SK"])
	item, ok := f.items[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	item["preferred_method"] = in.ExpressionAttributeValues[":p"]
	return &dynamodb.UpdateItemOutput{}, nil
}

func TestDynamoStore(t *testing.T) {
	table := newFakeTable()
	store := submissions.NewDynamoStore(table, "submissions")
	ctx := context.Background()

	first := sample("user-a", time.Hour)
	second := sample("user-a", time.Hour)
	expired := sample("user-a", -time.Hour)
	other := sample("user-b", time.Hour)
	for _, s := range []*address.Submission{first, second, expired, other} {
		require.NoError(t, store.Put(ctx, s))
	}

	item := table.items["USER#user-a|SUB#"+first.SubmissionID]
	require.NotNil(t, item)
	assert.Equal(t, first.SubmissionID, str(item["submission_id"]))
	ttl, ok := item["ttl"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.NotEmpty(t, ttl.Value)

	got, err := store.Get(ctx, "user-a", first.SubmissionID)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got, cmp.AllowUnexported(address.Result{})); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	_, err = store.Get(ctx, "user-b", first.SubmissionID)
	assert.ErrorIs(t, err, submissions.ErrNotFound)
	_, err = store.Get(ctx, "user-a", expired.SubmissionID)
	assert.ErrorIs(t, err, submissions.ErrNotFound)

	recent, err := store.ListRecent(ctx, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.SubmissionID, recent[0].SubmissionID)
	assert.Equal(t, first.SubmissionID, recent[1].SubmissionID)

	require.NoError(t, store.SetPreferred(ctx, "user-a", first.SubmissionID, address.RuleBasedGeonames))
	got, err = store.Get(ctx, "user-a", first.SubmissionID)
	require.NoError(t, err)
	require.NotNil(t, got.PreferredMethod)
	assert.Equal(t, address.RuleBasedGeonames, *got.PreferredMethod)

	err = store.SetPreferred(ctx, "user-b", first.SubmissionID, address.Loqate)
	assert.ErrorIs(t, err, submissions.ErrNotFound)

	assert.ErrorIs(t, store.Put(ctx, first), submissions.ErrDuplicate)
}
