package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/officehub/backend/internal/platform/dynamodb/client"
	"github.com/officehub/backend/internal/platform/session"
)

// DynamoDBSessionStore implements session.Store on a single-table layout:
// PK = SESSION#<sessionID>, SK = STATE#<key>. Expiry is stored as a unix
// timestamp; expired rows are treated as absent on read (the table's TTL
// attribute removes them eventually).
type DynamoDBSessionStore struct {
	client client.Client
	table  string
	logger *slog.Logger
	now    func() time.Time
}

// NewDynamoDBSessionStore creates a new DynamoDBSessionStore
func NewDynamoDBSessionStore(client client.Client, table string, logger *slog.Logger) *DynamoDBSessionStore {
	return &DynamoDBSessionStore{
		client: client,
		table:  table,
		logger: logger,
		now:    time.Now,
	}
}

type sessionItem struct {
	Payload   string `dynamodbav:"Payload"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt"`
	Type      string `dynamodbav:"Type"`
}

func sessionPK(sessionID string) string { return "SESSION#" + sessionID }
func statePrefix() string               { return "STATE#" }
func stateSK(key string) string         { return statePrefix() + key }

func (r *DynamoDBSessionStore) Get(ctx context.Context, sessionID, key string, dest interface{}) error {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: stateSK(key)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to get session state: %w", err)
	}
	if len(result.Item) == 0 {
		return session.ErrNotFound
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	if item.ExpiresAt > 0 && r.now().Unix() >= item.ExpiresAt {
		return session.ErrNotFound
	}
	return json.Unmarshal([]byte(item.Payload), dest)
}

func (r *DynamoDBSessionStore) Put(ctx context.Context, sessionID, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	item := sessionItem{
		Payload: string(payload),
		Type:    "session_state",
	}
	if ttl > 0 {
		item.ExpiresAt = r.now().Add(ttl).Unix()
	}

	attrs, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	attrs["PK"] = &types.AttributeValueMemberS{Value: sessionPK(sessionID)}
	attrs["SK"] = &types.AttributeValueMemberS{Value: stateSK(key)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to put session state: %w", err)
	}
	return nil
}

func (r *DynamoDBSessionStore) Delete(ctx context.Context, sessionID, key string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: stateSK(key)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

func (r *DynamoDBSessionStore) Keys(ctx context.Context, sessionID string) ([]string, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(sessionPK(sessionID))).
		And(expression.Key("SK").BeginsWith(statePrefix()))

	// Treat rows past their expiry as gone even if TTL has not swept them.
	filter := expression.Name("ExpiresAt").Equal(expression.Value(0)).
		Or(expression.Name("ExpiresAt").GreaterThan(expression.Value(r.now().Unix())))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCondition).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query session state: %w", err)
	}

	keys := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		sk, ok := it["SK"].(*types.AttributeValueMemberS)
		if !ok {
			r.logger.Warn("session item without string SK", "sessionId", sessionID)
			continue
		}
		keys = append(keys, strings.TrimPrefix(sk.Value, statePrefix()))
	}
	return keys, nil
}

var _ session.Store = (*DynamoDBSessionStore)(nil)
