package main

import "encoding/json"

// fileConfig is the on-disk shape cmd/worker loads via
// util.ReadJSONConfig, combining spec.md §6's init-config fields
// (executionNumber, database, algorithm, userParameters,
// totalVertexCount/EdgeCount) with the ambient-stack fields
// SPEC_FULL.md §10.1 adds (addressing, graph-store backend selection,
// checkpoint/heartbeat opt-ins). Mirrors util/config.go's
// WorkerConfig/CoordConfig shape, generalized for the gss-driven
// worker.
type fileConfig struct {
	WorkerID        string `json:"workerId"`
	WorkerAddr      string `json:"workerAddr"`
	BasePath        string `json:"basePath"`
	CoordinatorAddr string `json:"coordinatorAddr"`

	Database        string          `json:"database"`
	ExecutionNumber uint64          `json:"executionNumber"`
	Algorithm       string          `json:"algorithm"`
	UserParameters  json.RawMessage `json:"userParameters"`

	TotalVertexCount uint64 `json:"totalVertexCount"`
	TotalEdgeCount   uint64 `json:"totalEdgeCount"`

	Shard     uint32            `json:"shard"`
	NumShards uint32            `json:"numShards"`
	PeerAddrs map[string]string `json:"peerAddrs"`

	GraphStore graphStoreConfig `json:"graphStore"`
	Checkpoint checkpointConfig `json:"checkpoint"`
	Heartbeat  heartbeatConfig  `json:"heartbeat"`
}

type graphStoreConfig struct {
	Backend                 string       `json:"backend"` // "mongo" | "dynamo"
	Mongo                   mongoConfig  `json:"mongo"`
	Dynamo                  dynamoConfig `json:"dynamo"`
	CreateVerticesOnMessage bool         `json:"createVerticesOnMessage"`
}

type mongoConfig struct {
	URI     string `json:"uri"`
	EnvFile string `json:"envFile"`
}

type dynamoConfig struct {
	Region string `json:"region"`
}

type checkpointConfig struct {
	Enabled bool `json:"enabled"`
}

type heartbeatConfig struct {
	ConductorAddr string `json:"conductorAddr"`
}
