package leads

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore persists leads to a DynamoDB table keyed by id. Scan order is
// arbitrary, so LoadAll sorts by creation time and then id; UUIDv7 ids make
// that the submission order.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string) *DynamoStore {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoStore{client: client, tableName: tableName}
}

// Append writes lead, refusing to overwrite an existing id.
func (s *DynamoStore) Append(ctx context.Context, lead Lead) error {
	ctx, span := storeTracer.Start(ctx, "leads.dynamodb.append")
	defer span.End()

	item, err := attributevalue.MarshalMap(lead)
	if err != nil {
		return fmt.Errorf("leads: failed to marshal lead: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrDuplicateLead
		}
		span.RecordError(err)
		return fmt.Errorf("leads: failed to persist lead: %w", err)
	}
	return nil
}

// LoadAll scans every page of the table.
func (s *DynamoStore) LoadAll(ctx context.Context) ([]Lead, error) {
	ctx, span := storeTracer.Start(ctx, "leads.dynamodb.load_all")
	defer span.End()

	out := []Lead{}
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		var batch []Lead
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("leads: failed to unmarshal leads: %w", err)
		}
		out = append(out, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetByID fetches a single lead.
func (s *DynamoStore) GetByID(ctx context.Context, id string) (*Lead, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("leads: get item failed: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, ErrLeadNotFound
	}
	var lead Lead
	if err := attributevalue.UnmarshalMap(resp.Item, &lead); err != nil {
		return nil, fmt.Errorf("leads: failed to unmarshal lead: %w", err)
	}
	return &lead, nil
}
