// Package pregelworker is the worker engine: the state machine the
// conductor drives through prepareGlobalStep / startGlobalStep /
// receivedMessages / finalizeExecution, plus the range-partitioned
// thread pool and barrier that actually run an algorithm's compute
// function over a local graph partition.
package pregelworker

// Config is a worker's static identity and addressing, assembled by
// cmd/worker from its JSON config file and handed to New.
type Config struct {
	// WorkerID identifies this worker in completion reports.
	WorkerID string
	// ExecutionNumber is the conductor-assigned id for this Pregel run.
	ExecutionNumber uint64
	// Database names the graph this execution operates over - also the
	// graph-store collection/table name.
	Database string
	// CoordinatorURL is the conductor's base URL; completion reports
	// POST to CoordinatorURL + "/" + Database + "/" + finishedGSS.
	CoordinatorURL string
	// BasePath is this worker's own route prefix, included in the URL
	// peers use to reach it (e.g. "/pregel/7/graphA"). Router.WorkerURL
	// is expected to already carry the peer's own BasePath.
	BasePath string
	// Shard is this worker's shard index among NumShards total shards.
	Shard uint32
	// NumShards is the total number of worker shards in this execution.
	NumShards uint32
	// PoolSize bounds the compute thread pool; 0 means "use
	// runtime.NumCPU()".
	PoolSize int
	// CreateVerticesOnMessage controls what happens when a message
	// targets a vertex ID absent from this partition. Default (false)
	// drops it silently; true auto-creates the vertex at the start of
	// the superstep that first sees a message for it, so it can be
	// computed like any other vertex.
	CreateVerticesOnMessage bool
}
