package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ConnectivityStatus represents the result of a store connectivity check.
type ConnectivityStatus struct {
	Backend   string
	Connected bool
}

// HealthChecker provides store connectivity checking.
type HealthChecker interface {
	CheckConnectivity(ctx context.Context) ConnectivityStatus
}

// DynamoChecker reports DynamoDB as connected when the users table can be
// described.
type DynamoChecker struct {
	api   DynamoAPI
	table string
}

// NewDynamoChecker creates a DynamoChecker probing table.
func NewDynamoChecker(api DynamoAPI, table string) *DynamoChecker {
	return &DynamoChecker{api: api, table: table}
}

// CheckConnectivity implements HealthChecker.
func (c *DynamoChecker) CheckConnectivity(ctx context.Context) ConnectivityStatus {
	_, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.table)})
	return ConnectivityStatus{Backend: "dynamodb", Connected: err == nil}
}

// CheckConnectivity implements HealthChecker by pinging the pool.
func (db *DB) CheckConnectivity(ctx context.Context) ConnectivityStatus {
	return ConnectivityStatus{Backend: "postgres", Connected: db.pool.Ping(ctx) == nil}
}
