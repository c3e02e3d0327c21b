// Package dynamotest provides an in-memory stand-in for the DynamoDB API
// subset in store.DynamoAPI. It supports single-attribute string hash keys,
// equality key conditions of the form "#k = :v", Limit/ExclusiveStartKey on
// scans, and ALL_OLD return values on delete.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/daap14/tasktrack/internal/store"
)

var _ store.DynamoAPI = (*Fake)(nil)

type item = map[string]types.AttributeValue

type table struct {
	hashKey string
	order   []string
	items   map[string]item
}

// Fake is a concurrency-safe in-memory DynamoDB.
type Fake struct {
	mu     sync.Mutex
	tables map[string]*table

	// Err, when set, is returned by every call.
	Err error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{tables: map[string]*table{}}
}

// AddTable registers a table keyed by the string attribute hashKey.
func (f *Fake) AddTable(name, hashKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &table{hashKey: hashKey, items: map[string]item{}}
}

// Len returns the number of items in a table.
func (f *Fake) Len(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[name]; ok {
		return len(t.items)
	}
	return 0
}

func (f *Fake) table(name *string) (*table, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, nil
}

func stringValue(av types.AttributeValue) (string, bool) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func (t *table) keyOf(key item) (string, error) {
	v, ok := stringValue(key[t.hashKey])
	if !ok {
		return "", fmt.Errorf("missing string hash key %q", t.hashKey)
	}
	return v, nil
}

func copyItem(in item) item {
	out := make(item, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// GetItem implements store.DynamoAPI.
func (f *Fake) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}

	out := &dynamodb.GetItemOutput{}
	if it, ok := t.items[k]; ok {
		out.Item = copyItem(it)
	}
	return out, nil
}

// PutItem implements store.DynamoAPI.
func (f *Fake) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Item)
	if err != nil {
		return nil, err
	}

	if _, ok := t.items[k]; !ok {
		t.order = append(t.order, k)
	}
	t.items[k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem implements store.DynamoAPI.
func (f *Fake) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}

	out := &dynamodb.DeleteItemOutput{}
	old, ok := t.items[k]
	if !ok {
		return out, nil
	}
	delete(t.items, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// Query implements store.DynamoAPI for "#name = :value" key conditions on
// either the table key or any attribute (index queries).
func (f *Fake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(aws.ToString(in.KeyConditionExpression), "=")
	if len(parts) != 2 {
		return nil, errors.New("unsupported key condition expression")
	}
	attr, ok := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
	if !ok {
		return nil, errors.New("unknown expression attribute name")
	}
	want, ok := stringValue(in.ExpressionAttributeValues[strings.TrimSpace(parts[1])])
	if !ok {
		return nil, errors.New("unknown expression attribute value")
	}

	out := &dynamodb.QueryOutput{}
	for _, k := range t.order {
		it := t.items[k]
		if got, ok := stringValue(it[attr]); ok && got == want {
			out.Items = append(out.Items, copyItem(it))
			if in.Limit != nil && int32(len(out.Items)) >= *in.Limit {
				break
			}
		}
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// Scan implements store.DynamoAPI in insertion order.
func (f *Fake) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		k, err := t.keyOf(in.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		for i, o := range t.order {
			if o == k {
				start = i + 1
				break
			}
		}
	}

	out := &dynamodb.ScanOutput{}
	for i := start; i < len(t.order); i++ {
		if in.Limit != nil && *in.Limit > 0 && int32(len(out.Items)) >= *in.Limit {
			last := t.items[t.order[i-1]]
			out.LastEvaluatedKey = item{t.hashKey: last[t.hashKey]}
			break
		}
		out.Items = append(out.Items, copyItem(t.items[t.order[i]]))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// DescribeTable implements store.DynamoAPI. Tables are always ACTIVE.
func (f *Fake) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   in.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

// CreateTable implements store.DynamoAPI using the first HASH key element.
func (f *Fake) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists: " + name)}
	}

	var hashKey string
	for _, ks := range in.KeySchema {
		if ks.KeyType == types.KeyTypeHash {
			hashKey = aws.ToString(ks.AttributeName)
			break
		}
	}
	if hashKey == "" {
		return nil, errors.New("create table: no hash key")
	}

	f.tables[name] = &table{hashKey: hashKey, items: map[string]item{}}
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   in.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}
