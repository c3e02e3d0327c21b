package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/daap14/tasktrack/internal/store"
)

// dynamoTodo is the item layout in the todos table.
type dynamoTodo struct {
	ID          string `dynamodbav:"todo_id"`
	Name        string `dynamodbav:"todo_name"`
	Description string `dynamodbav:"todo_description"`
	Priority    int    `dynamodbav:"priority"`
	CreatedBy   string `dynamodbav:"created_by,omitempty"`
	CreatedAt   string `dynamodbav:"created_dt"`
}

// DynamoRepository implements Repository on a DynamoDB table keyed by todo_id.
type DynamoRepository struct {
	api   store.DynamoAPI
	table string
}

// NewDynamoRepository creates a Repository backed by DynamoDB.
func NewDynamoRepository(api store.DynamoAPI, table string) Repository {
	return &DynamoRepository{api: api, table: table}
}

// Create stores a new todo.
func (r *DynamoRepository) Create(ctx context.Context, t *Todo) error {
	return r.Put(ctx, t)
}

// GetByID reads a todo by primary key.
func (r *DynamoRepository) GetByID(ctx context.Context, id uuid.UUID) (*Todo, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            todoKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting todo: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return decodeTodo(out.Item)
}

// List scans the table page by page until limit items are collected.
func (r *DynamoRepository) List(ctx context.Context, limit int) ([]Todo, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	todos := []Todo{}
	paginator := dynamodb.NewScanPaginator(r.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanning todos: %w", err)
		}
		for _, item := range page.Items {
			t, err := decodeTodo(item)
			if err != nil {
				return nil, err
			}
			todos = append(todos, *t)
			if limit > 0 && len(todos) >= limit {
				return todos, nil
			}
		}
	}

	return todos, nil
}

// Put writes the todo, replacing any item with the same id.
func (r *DynamoRepository) Put(ctx context.Context, t *Todo) error {
	rec := dynamoTodo{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Priority:    int(t.Priority),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.CreatedBy != uuid.Nil {
		rec.CreatedBy = t.CreatedBy.String()
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshalling todo: %w", err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting todo: %w", err)
	}
	return nil
}

// Delete removes the item in one call and decodes the old attributes.
func (r *DynamoRepository) Delete(ctx context.Context, id uuid.UUID) (*Todo, error) {
	out, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          todoKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("deleting todo: %w", err)
	}
	if len(out.Attributes) == 0 {
		return nil, ErrNotFound
	}
	return decodeTodo(out.Attributes)
}

func todoKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"todo_id": &types.AttributeValueMemberS{Value: id.String()},
	}
}

func decodeTodo(item map[string]types.AttributeValue) (*Todo, error) {
	var rec dynamoTodo
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling todo: %w", err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing todo id: %w", err)
	}

	t := &Todo{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		Priority:    Priority(rec.Priority),
	}
	if !t.Priority.Valid() {
		t.Priority = PriorityLow
	}
	if rec.CreatedBy != "" {
		if t.CreatedBy, err = uuid.Parse(rec.CreatedBy); err != nil {
			return nil, fmt.Errorf("parsing todo created_by: %w", err)
		}
	}
	if rec.CreatedAt != "" {
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("parsing todo created_dt: %w", err)
		}
	}

	return t, nil
}
