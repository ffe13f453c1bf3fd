package prompts

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/JaimeStill/addrsplit/internal/cost"
)

// DynamoAPI is the slice of the DynamoDB client the settings store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type settingsItem struct {
	UserSub        string        `dynamodbav:"user_sub"`
	PromptTemplate string        `dynamodbav:"prompt_template"`
	Pricing        *cost.Pricing `dynamodbav:"pricing,omitempty"`
	UpdatedAt      time.Time     `dynamodbav:"updated_at"`
}

type dynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore returns a Store over a table keyed by user_sub.
func NewDynamoStore(client DynamoAPI, table string) Store {
	return &dynamoStore{client: client, table: table}
}

func (d *dynamoStore) Get(ctx context.Context, userID string) (*Settings, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"user_sub": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item settingsItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &Settings{
		PromptTemplate: item.PromptTemplate,
		Pricing:        item.Pricing,
		UpdatedAt:      &item.UpdatedAt,
	}, nil
}

func (d *dynamoStore) Put(ctx context.Context, userID string, s Settings) error {
	item := settingsItem{
		UserSub:        userID,
		PromptTemplate: s.PromptTemplate,
		Pricing:        s.Pricing,
		UpdatedAt:      time.Now().UTC(),
	}
	if s.UpdatedAt != nil {
		item.UpdatedAt = *s.UpdatedAt
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
