package graphstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoConfig configures a DynamoBackend connection. Grounded on
// database/database.go's DEFAULT_REGION constant and GetDynamoClient.
type DynamoConfig struct {
	Region string
}

// dynamoVertexItem is the item shape stored per vertex, generalizing
// database/database.go's Vertex{ID, Edges, Hash} from numeric to
// string vertex IDs and to a single float64 Value.
type dynamoVertexItem struct {
	ID        string   `dynamodbav:"ID"`
	Value     float64  `dynamodbav:"Value"`
	ShardHint uint32   `dynamodbav:"ShardHint"`
	Edges     []string `dynamodbav:"Edges"`
}

// DynamoBackend loads/stores a worker's partition from a DynamoDB
// table, one table per graph.
type DynamoBackend struct {
	client *dynamodb.Client
}

// NewDynamoBackend builds a DynamoBackend from the default AWS SDK
// config chain, grounded on database/database.go's GetDynamoClient.
func NewDynamoBackend(ctx context.Context, cfg DynamoConfig) (*DynamoBackend, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-2" // DEFAULT_REGION
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("graphstore: load aws config: %w", err)
	}
	return &DynamoBackend{client: dynamodb.NewFromConfig(awsCfg)}, nil
}

// LoadPartition scans the whole table and keeps only items belonging
// to this worker's shard, paging via the SDK's built-in scan
// paginator - grounded on database/database.go's GetAllVertices, which
// stubs the same dynamodb.NewScanPaginator call this completes.
func (b *DynamoBackend) LoadPartition(ctx context.Context, table string, workerShard, numShards uint32) ([]VertexRecord[float64, float64], error) {
	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})

	var records []VertexRecord[float64, float64]
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("graphstore: scan %s: %w", table, err)
		}
		for _, item := range page.Items {
			var v dynamoVertexItem
			if err := attributevalue.UnmarshalMap(item, &v); err != nil {
				return nil, fmt.Errorf("graphstore: unmarshal item: %w", err)
			}
			if shardOfVertex(v.ID, numShards) != workerShard {
				continue
			}
			edges := make([]Edge[float64], 0, len(v.Edges))
			for _, to := range v.Edges {
				edges = append(edges, Edge[float64]{
					ToVertexID: to,
					Value:      1,
					ShardHint:  shardOfVertex(to, numShards),
				})
			}
			records = append(records, VertexRecord[float64, float64]{
				VertexID:  v.ID,
				Value:     v.Value,
				ShardHint: workerShard,
				Edges:     edges,
			})
		}
	}
	return records, nil
}

// StoreResults batch-writes final vertex values back to the table,
// chunked at MAXIMUM_ITEMS_PER_BATCH like database/db-setup.go's
// BatchInsertVertices.
func (b *DynamoBackend) StoreResults(ctx context.Context, table string, results []VertexResult[float64]) error {
	const maxItemsPerBatch = 25

	for start := 0; start < len(results); start += maxItemsPerBatch {
		end := start + maxItemsPerBatch
		if end > len(results) {
			end = len(results)
		}
		var writeRequests []types.WriteRequest
		for _, r := range results[start:end] {
			item, err := attributevalue.MarshalMap(dynamoVertexItem{ID: r.VertexID, Value: r.Value})
			if err != nil {
				return fmt.Errorf("graphstore: marshal result for %s: %w", r.VertexID, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		_, err := b.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: writeRequests},
		})
		if err != nil {
			return fmt.Errorf("graphstore: batch write results: %w", err)
		}
	}
	return nil
}
