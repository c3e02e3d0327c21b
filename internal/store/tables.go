package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableNames names the DynamoDB tables and indexes the service uses.
type TableNames struct {
	Users         string
	UsernameIndex string
	EmailIndex    string
	Todos         string
}

// EnsureTables creates any missing table with on-demand billing and waits up
// to maxWait for each created table to become active. Existing tables are
// left untouched.
func EnsureTables(ctx context.Context, api DynamoAPI, names TableNames, maxWait time.Duration) error {
	tables := []*dynamodb.CreateTableInput{
		usersTableInput(names),
		todosTableInput(names),
	}

	for _, in := range tables {
		name := aws.ToString(in.TableName)

		exists, err := tableExists(ctx, api, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		if _, err := api.CreateTable(ctx, in); err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				continue
			}
			return fmt.Errorf("creating table %s: %w", name, err)
		}

		waiter := dynamodb.NewTableExistsWaiter(api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, maxWait); err != nil {
			return fmt.Errorf("waiting for table %s: %w", name, err)
		}

		slog.Info("dynamodb table created", "table", name)
	}

	return nil
}

func tableExists(ctx context.Context, api DynamoAPI, name string) (bool, error) {
	_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err == nil {
		return true, nil
	}
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("describing table %s: %w", name, err)
}

func usersTableInput(names TableNames) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(names.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("username"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			secondaryIndex(names.UsernameIndex, "username"),
			secondaryIndex(names.EmailIndex, "email"),
		},
	}
}

func todosTableInput(names TableNames) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(names.Todos),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("todo_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("todo_id"), KeyType: types.KeyTypeHash},
		},
	}
}

func secondaryIndex(name, attr string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attr), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}
