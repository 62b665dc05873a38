package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arangodb/pregel-worker/pkg/algorithm"
	"github.com/arangodb/pregel-worker/pkg/checkpoint"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/heartbeat"
	"github.com/arangodb/pregel-worker/pkg/pregelworker"
	"github.com/arangodb/pregel-worker/util"
)

// main boots one worker process: load its JSON config, build the
// graph-store backend, load this shard's partition, construct the
// pregelworker engine, and serve its lifecycle RPCs over HTTP.
// Generalizes cmd/worker/main.go's per-worker config loop, but for a
// single worker process per invocation - the conductor now starts one
// process per shard rather than one process looping over
// config/worker<N>_config.json.
func main() {
	configPath := flag.String("config", "config/worker_config.json", "path to worker JSON config")
	flag.Parse()

	logger := log.New(os.Stderr, "[worker] ", log.LstdFlags)

	var cfg fileConfig
	err := util.ReadJSONConfig(*configPath, &cfg)
	util.CheckErr(err, "worker: could not read config %s: %v\n", *configPath, err)

	algo, err := algorithm.New(cfg.Algorithm, cfg.UserParameters)
	util.CheckErr(err, "worker: could not build algorithm %q: %v\n", cfg.Algorithm, err)

	ctx := context.Background()
	backend, err := newGraphStoreBackend(ctx, cfg.GraphStore)
	util.CheckErr(err, "worker: could not build graph-store backend: %v\n", err)

	graphStore, err := graphstore.Load(ctx, backend, cfg.Database, cfg.Shard, cfg.NumShards)
	util.CheckErr(err, "worker: could not load partition for shard %d: %v\n", cfg.Shard, err)
	logger.Printf("loaded partition: %d vertices, %d edges", graphStore.VertexCount(), graphStore.EdgeCount())

	peerURLs := make(map[uint32]string, len(cfg.PeerAddrs))
	for shardStr, url := range cfg.PeerAddrs {
		shard, convErr := strconv.ParseUint(shardStr, 10, 32)
		util.CheckErr(convErr, "worker: invalid peerAddrs shard key %q: %v\n", shardStr, convErr)
		peerURLs[uint32(shard)] = url
	}

	var checkpoints *checkpoint.Store
	if cfg.Checkpoint.Enabled {
		checkpoints, err = checkpoint.Open(cfg.WorkerID)
		util.CheckErr(err, "worker: could not open checkpoint store: %v\n", err)
		defer checkpoints.Close()
	}

	workerCfg := pregelworker.Config{
		WorkerID:                cfg.WorkerID,
		ExecutionNumber:         cfg.ExecutionNumber,
		Database:                cfg.Database,
		CoordinatorURL:          cfg.CoordinatorAddr,
		BasePath:                cfg.BasePath,
		Shard:                   cfg.Shard,
		NumShards:               cfg.NumShards,
		CreateVerticesOnMessage: cfg.GraphStore.CreateVerticesOnMessage,
	}
	worker := pregelworker.New(workerCfg, algo, graphStore, backend, peerURLs, checkpoints)

	if cfg.Heartbeat.ConductorAddr != "" {
		startHeartbeat(cfg, logger)
	}

	r := gin.Default()
	pregelworker.RegisterRoutes(r, cfg.BasePath, worker)
	util.CheckErr(r.Run(cfg.WorkerAddr), "worker: gin server exited\n")
}

func newGraphStoreBackend(ctx context.Context, cfg graphStoreConfig) (graphstore.Backend[float64, float64], error) {
	switch cfg.Backend {
	case "dynamo":
		return graphstore.NewDynamoBackend(ctx, graphstore.DynamoConfig{Region: cfg.Dynamo.Region})
	default:
		return graphstore.NewMongoBackend(ctx, graphstore.MongoConfig{
			URI:     cfg.Mongo.URI,
			EnvFile: cfg.Mongo.EnvFile,
		})
	}
}

// startHeartbeat pings the conductor's heartbeat listener and logs
// when it goes quiet. epochNonce is derived from the boot time since
// each worker process only ever runs one monitoring epoch.
func startHeartbeat(cfg fileConfig, logger *log.Logger) {
	mon, err := heartbeat.Start(cfg.Heartbeat.ConductorAddr, uint64(time.Now().UnixNano()), logger)
	if err != nil {
		logger.Printf("heartbeat: could not start monitor: %v", err)
		return
	}
	go func() {
		for range mon.Missed {
			logger.Printf("heartbeat: conductor at %s missed %d consecutive acks", cfg.Heartbeat.ConductorAddr, heartbeat.MissedThreshold)
		}
	}()
}
