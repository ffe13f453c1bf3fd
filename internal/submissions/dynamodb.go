package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/JaimeStill/addrsplit/internal/address"
)

const (
	userPrefix = "USER#"
	subPrefix  = "SUB#"
)

// DynamoAPI is the slice of the DynamoDB client the submission store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// submissionItem is one submission. The JSON documents are kept as strings
// so results round-trip through their own encoding.
type submissionItem struct {
	PK              string  `dynamodbav:"PK"`
	SK              string  `dynamodbav:"SK"`
	SubmissionID    string  `dynamodbav:"submission_id"`
	UserSub         string  `dynamodbav:"user_sub"`
	CreatedAt       string  `dynamodbav:"created_at"`
	TTL             int64   `dynamodbav:"ttl"`
	Input           string  `dynamodbav:"input"`
	Results         string  `dynamodbav:"results"`
	Costs           string  `dynamodbav:"costs,omitempty"`
	Provenance      string  `dynamodbav:"provenance,omitempty"`
	PreferredMethod *string `dynamodbav:"preferred_method"`
}

// DynamoStore keeps submissions in a single table keyed by PK=USER#<sub>
// and SK=SUB#<id>. Expiry is delegated to the table's TTL on ttl.
type DynamoStore struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

// NewDynamoStore returns a Store over table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, now: time.Now}
}

func partitionKey(userID string) string {
	return userPrefix + userID
}

func sortKey(submissionID string) string {
	return subPrefix + submissionID
}

func itemKey(userID, submissionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: partitionKey(userID)},
		"SK": &types.AttributeValueMemberS{Value: sortKey(submissionID)},
	}
}

func (d *DynamoStore) Put(ctx context.Context, s *address.Submission) error {
	cols, err := encodeColumns(s)
	if err != nil {
		return err
	}

	item := submissionItem{
		PK:           partitionKey(s.UserID),
		SK:           sortKey(s.SubmissionID),
		SubmissionID: s.SubmissionID,
		UserSub:      s.UserID,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339Nano),
		TTL:          s.ExpiresAt.Unix(),
		Input:        string(cols.input),
		Results:      string(cols.results),
		Costs:        string(cols.costs),
		Provenance:   string(cols.provenance),
	}
	if s.PreferredMethod != nil {
		p := string(*s.PreferredMethod)
		item.PreferredMethod = &p
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrDuplicate
		}
		return fmt.Errorf("put submission: %w", err)
	}
	return nil
}

func (d *DynamoStore) Get(ctx context.Context, userID, submissionID string) (*address.Submission, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       itemKey(userID, submissionID),
	})
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	s, err := d.decode(out.Item)
	if err != nil {
		return nil, err
	}
	if !s.ExpiresAt.After(d.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (d *DynamoStore) ListRecent(ctx context.Context, userID string, limit int) ([]address.Submission, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionKey(userID)},
			":sk": &types.AttributeValueMemberS{Value: subPrefix},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	now := d.now()
	subs := make([]address.Submission, 0, len(out.Items))
	for _, item := range out.Items {
		s, err := d.decode(item)
		if err != nil {
			return nil, err
		}
		if s.ExpiresAt.After(now) {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (d *DynamoStore) SetPreferred(ctx context.Context, userID, submissionID string, id address.PipelineID) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 itemKey(userID, submissionID),
		UpdateExpression:    aws.String("SET preferred_method = :p"),
		ConditionExpression: aws.String("attribute_exists(PK) AND #ttl > :now"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: string(id)},
			":now": &types.AttributeValueMemberN{Value: fmt.Sprint(d.now().Unix())},
		},
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrNotFound
		}
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

func (d *DynamoStore) decode(av map[string]types.AttributeValue) (address.Submission, error) {
	var item submissionItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return address.Submission{}, fmt.Errorf("decode submission: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return address.Submission{}, fmt.Errorf("decode created_at: %w", err)
	}

	s := address.Submission{
		SubmissionID: item.SubmissionID,
		UserID:       strings.TrimPrefix(item.PK, userPrefix),
		CreatedAt:    created,
		ExpiresAt:    time.Unix(item.TTL, 0).UTC(),
	}
	cols := columns{
		input:      []byte(item.Input),
		results:    []byte(item.Results),
		costs:      []byte(item.Costs),
		provenance: []byte(item.Provenance),
	}
	if err := decodeColumns(&s, cols); err != nil {
		return address.Submission{}, err
	}
	if item.PreferredMethod != nil {
		p := address.PipelineID(*item.PreferredMethod)
		s.PreferredMethod = &p
	}
	return s, nil
}
