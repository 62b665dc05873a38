package graphstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a MongoBackend connection. Grounded on
// database/mongodb/create.go's GetDatabaseClient, which builds a
// mongodb+srv URI from an env-loaded password.
type MongoConfig struct {
	URI            string
	EnvFile        string
	ConnectTimeout time.Duration
}

// mongoVertexDoc is the on-disk vertex document shape. Grounded on
// database/mongodb/read.go's DBVertex, generalized from uint64 IDs to
// string vertex IDs and from a dedicated Hash field to a single
// float64 Value (SSSP distance / PageRank mass - the two algorithms
// this worker ships both bind V=float64).
type mongoVertexDoc struct {
	ID        string   `bson:"id"`
	Value     float64  `bson:"value"`
	ShardHint uint32   `bson:"shardHint"`
	Edges     []string `bson:"edges"`
	Weights   []float64 `bson:"weights"`
}

// MongoBackend loads/stores a worker's partition from a MongoDB
// collection, one collection per graph ("database" in worker config
// terms, matching the teacher's use of "database" for the ArangoDB
// vocbase name it reuses as a collection/table identifier).
type MongoBackend struct {
	client *mongo.Client
	cfg    MongoConfig
}

// NewMongoBackend connects to MongoDB with exponential backoff - the
// teacher's go.mod carries github.com/cenkalti/backoff/v4 only as an
// indirect dependency of the AWS SDK; this promotes it to a direct,
// exercised dependency guarding the same connect-on-boot path the
// teacher leaves to a bare mongo.Connect call.
func NewMongoBackend(ctx context.Context, cfg MongoConfig) (*MongoBackend, error) {
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			log.Printf("graphstore: no env file at %s: %v\n", cfg.EnvFile, err)
		}
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	uri := strings.ReplaceAll(cfg.URI, "${DB_PASSWORD}", dbPasswordFromEnv())
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	var client *mongo.Client
	connect := func() error {
		cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		c, err := mongo.Connect(cctx, clientOptions)
		if err != nil {
			return err
		}
		client = c
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(connect, bo); err != nil {
		return nil, fmt.Errorf("graphstore: connect to mongo: %w", err)
	}

	return &MongoBackend{client: client, cfg: cfg}, nil
}

func dbPasswordFromEnv() string { return os.Getenv("DB_PASSWORD") }

// LoadPartition scans the named collection and keeps only the
// documents whose FNV hash of the vertex ID falls into this worker's
// shard, mirroring database/mongodb/read.go's GetPartitionForWorkerX
// partitioning idiom.
func (b *MongoBackend) LoadPartition(ctx context.Context, database string, workerShard, numShards uint32) ([]VertexRecord[float64, float64], error) {
	collection := b.client.Database("bagel").Collection(database)

	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("graphstore: find %s: %w", database, err)
	}
	defer cursor.Close(ctx)

	var records []VertexRecord[float64, float64]
	for cursor.Next(ctx) {
		var doc mongoVertexDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("graphstore: decode vertex doc: %w", err)
		}
		if shardOfVertex(doc.ID, numShards) != workerShard {
			continue
		}
		edges := make([]Edge[float64], 0, len(doc.Edges))
		for i, to := range doc.Edges {
			weight := 1.0
			if i < len(doc.Weights) {
				weight = doc.Weights[i]
			}
			edges = append(edges, Edge[float64]{
				ToVertexID: to,
				Value:      weight,
				ShardHint:  shardOfVertex(to, numShards),
			})
		}
		records = append(records, VertexRecord[float64, float64]{
			VertexID:  doc.ID,
			Value:     doc.Value,
			ShardHint: workerShard,
			Edges:     edges,
		})
	}
	return records, cursor.Err()
}

// StoreResults upserts each vertex's final value back into the
// collection, grounded on database/db-setup.go's batch-insert idiom
// but expressed per-document since results are typically far smaller
// than the MAXIMUM_ITEMS_PER_BATCH bulk-load path.
func (b *MongoBackend) StoreResults(ctx context.Context, database string, results []VertexResult[float64]) error {
	collection := b.client.Database("bagel").Collection(database)
	for _, r := range results {
		_, err := collection.UpdateOne(ctx,
			bson.M{"id": r.VertexID},
			bson.M{"$set": bson.M{"value": r.Value}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("graphstore: store result for %s: %w", r.VertexID, err)
		}
	}
	return nil
}

// ShardOf deterministically maps a vertex ID to one of numShards
// shards. Exported so pkg/pregelworker's routing table can agree with
// the backend's own partitioning without duplicating the hash.
func ShardOf(vertexID string, numShards uint32) uint32 {
	return shardOfVertex(vertexID, numShards)
}

// shardOfVertex deterministically maps a vertex ID to one of numShards
// shards via a simple string hash, matching util/hashing.go's
// HashId-then-modulo partitioning idiom (generalized from numeric
// vertex IDs to string ones).
func shardOfVertex(vertexID string, numShards uint32) uint32 {
	if numShards == 0 {
		return 0
	}
	var h uint32 = 2166136261
	for i := 0; i < len(vertexID); i++ {
		h ^= uint32(vertexID[i])
		h *= 16777619
	}
	return h % numShards
}
