package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	items    map[string]map[string]types.AttributeValue
	order    []string
	pageSize int
	putErr   error
	scans    int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	if _, exists := f.items[id]; exists && aws.ToString(in.ConditionExpression) == "attribute_not_exists(id)" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.items[id] = in.Item
	// Prepend so scan order differs from insertion order.
	f.order = append([]string{id}, f.order...)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans++
	start := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["id"].(*types.AttributeValueMemberS).Value
		for i, id := range f.order {
			if id == last {
				start = i + 1
			}
		}
	}
	end := start + f.pageSize
	if end > len(f.order) {
		end = len(f.order)
	}
	out := &dynamodb.ScanOutput{}
	for _, id := range f.order[start:end] {
		out.Items = append(out.Items, f.items[id])
	}
	if end < len(f.order) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: f.order[end-1]},
		}
	}
	return out, nil
}

func TestDynamoStore_AppendAndLoadAll(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "leads")

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, sampleLead(i)))
	}

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, l := range all {
		assert.Equal(t, sampleLead(i+1), l)
	}
	assert.Equal(t, 3, fake.scans, "every page is read")
}

func TestDynamoStore_StoresCamelCaseAttributes(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "leads")
	require.NoError(t, store.Append(context.Background(), sampleLead(1)))

	item := fake.items["lead-1"]
	assert.Contains(t, item, "createdAt")
	assert.Contains(t, item, "email")
	assert.NotContains(t, item, "company")

	var decoded Lead
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, StatusNew, decoded.Status)
}

func TestDynamoStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoStore(newFakeDynamo(), "leads")
	require.NoError(t, store.Append(ctx, sampleLead(1)))
	assert.ErrorIs(t, store.Append(ctx, sampleLead(1)), ErrDuplicateLead)
}

func TestDynamoStore_PutFailure(t *testing.T) {
	fake := newFakeDynamo()
	fake.putErr = errors.New("throttled")
	store := NewDynamoStore(fake, "leads")

	err := store.Append(context.Background(), sampleLead(1))
	assert.ErrorIs(t, err, fake.putErr)
}

func TestDynamoStore_GetByID(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoStore(newFakeDynamo(), "leads")
	require.NoError(t, store.Append(ctx, sampleLead(1)))

	lead, err := store.GetByID(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "visitor1@example.com", lead.Email)

	_, err = store.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
