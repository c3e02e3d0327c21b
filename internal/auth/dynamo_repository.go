package auth

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

// dynamoIdentity is the item layout in the users table.
type dynamoIdentity struct {
	ID             string `dynamodbav:"id"`
	Username       string `dynamodbav:"username"`
	Email          string `dynamodbav:"email"`
	HashedPassword string `dynamodbav:"hashed_password"`
	Role           string `dynamodbav:"role"`
	CreatedAt      string `dynamodbav:"created_at,omitempty"`
}

// DynamoRepository implements IdentityRepository on a DynamoDB table with
// global secondary indexes on username and email.
type DynamoRepository struct {
	api           store.DynamoAPI
	table         string
	usernameIndex string
	emailIndex    string
}

// NewDynamoRepository creates an IdentityRepository backed by DynamoDB.
func NewDynamoRepository(api store.DynamoAPI, table, usernameIndex, emailIndex string) IdentityRepository {
	return &DynamoRepository{
		api:           api,
		table:         table,
		usernameIndex: usernameIndex,
		emailIndex:    emailIndex,
	}
}

// FindByUsername looks the username up through its secondary index.
func (r *DynamoRepository) FindByUsername(ctx context.Context, username string) (*Identity, error) {
	return r.findByIndex(ctx, r.usernameIndex, "username", username)
}

// FindByEmail looks the email up through its secondary index.
func (r *DynamoRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.findByIndex(ctx, r.emailIndex, "email", email)
}

// FindByID performs a consistent point read by primary key.
func (r *DynamoRepository) FindByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting identity: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrIdentityNotFound
	}

	return decodeIdentity(out.Item)
}

// Insert writes the identity, replacing any item with the same id.
func (r *DynamoRepository) Insert(ctx context.Context, identity *Identity) error {
	item, err := attributevalue.MarshalMap(dynamoIdentity{
		ID:             identity.ID.String(),
		Username:       identity.Username,
		Email:          identity.Email,
		HashedPassword: identity.PasswordHash,
		Role:           identity.Role,
		CreatedAt:      identity.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshalling identity: %w", err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting identity: %w", err)
	}

	return nil
}

// findByIndex queries a secondary index for the item id, then reads the
// full item from the table, so indexes need not project every attribute.
func (r *DynamoRepository) findByIndex(ctx context.Context, index, attr, value string) (*Identity, error) {
	out, err := r.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		IndexName:                aws.String(index),
		KeyConditionExpression:   aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", index, err)
	}
	if len(out.Items) == 0 {
		return nil, ErrIdentityNotFound
	}

	idAttr, ok := out.Items[0]["id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("querying %s: item has no string id", index)
	}
	id, err := uuid.Parse(idAttr.Value)
	if err != nil {
		return nil, fmt.Errorf("querying %s: parsing id: %w", index, err)
	}

	return r.FindByID(ctx, id)
}

func decodeIdentity(item map[string]types.AttributeValue) (*Identity, error) {
	var rec dynamoIdentity
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling identity: %w", err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing identity id: %w", err)
	}

	identity := &Identity{
		ID:           id,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.HashedPassword,
		Role:         rec.Role,
	}
	if identity.Role == "" {
		identity.Role = RoleUser
	}
	if rec.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing identity created_at: %w", err)
		}
		identity.CreatedAt = createdAt
	}

	return identity, nil
}
