package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/config"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the document store.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBDocumentStore keeps documents in a table keyed by (collection, id).
type DynamoDBDocumentStore struct {
	client    DynamoDBAPI
	tableName string
}

type documentItem struct {
	Collection string            `dynamodbav:"collection"`
	ID         string            `dynamodbav:"id"`
	CreatedAt  int64             `dynamodbav:"createdAt"` // unix nanoseconds
	Fields     map[string]string `dynamodbav:"fields"`
}

// NewDynamoDBDocumentStore loads AWS configuration and targets the configured table.
func NewDynamoDBDocumentStore(ctx context.Context, cfg config.DynamoDBConfig) (*DynamoDBDocumentStore, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, errors.New("dynamodb document store: table name is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewDynamoDBDocumentStoreWithClient(client, cfg.Table), nil
}

// NewDynamoDBDocumentStoreWithClient wraps an existing client.
func NewDynamoDBDocumentStoreWithClient(client DynamoDBAPI, table string) *DynamoDBDocumentStore {
	return &DynamoDBDocumentStore{client: client, tableName: table}
}

// Insert writes doc, refusing to overwrite an existing (collection, id) pair.
func (s *DynamoDBDocumentStore) Insert(ctx context.Context, doc backend.Document) error {
	item := documentItem{
		Collection: doc.Collection,
		ID:         doc.ID,
		CreatedAt:  doc.CreatedAt.UTC().UnixNano(),
		Fields:     doc.Fields,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConflict
		}
		return fmt.Errorf("put document: %w", err)
	}

	return nil
}

// List reads the whole collection partition and evaluates queries in memory.
func (s *DynamoDBDocumentStore) List(ctx context.Context, collection string, queries []backend.Query) ([]backend.Document, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
		},
	}

	var docs []backend.Document
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query documents: %w", err)
		}

		var items []documentItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal documents: %w", err)
		}

		for _, item := range items {
			docs = append(docs, backend.Document{
				ID:         item.ID,
				Collection: item.Collection,
				CreatedAt:  time.Unix(0, item.CreatedAt).UTC(),
				Fields:     item.Fields,
			})
		}
	}

	return backend.Apply(docs, queries), nil
}

var _ DocumentStore = (*DynamoDBDocumentStore)(nil)
