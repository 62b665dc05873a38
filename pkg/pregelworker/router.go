package pregelworker

import (
	"github.com/arangodb/pregel-worker/pkg/graphstore"
)

// staticRouter implements cache.Router over a fixed shard->peer-URL
// table handed to the worker at construction (the conductor assigns
// shards once per execution; spec.md has no mechanism for
// reassignment mid-run).
type staticRouter struct {
	localShard uint32
	numShards  uint32
	peerURLs   map[uint32]string
}

func newStaticRouter(localShard, numShards uint32, peerURLs map[uint32]string) *staticRouter {
	return &staticRouter{localShard: localShard, numShards: numShards, peerURLs: peerURLs}
}

// ShardFor hashes vertexID the same way graphstore's backends
// partition vertices on load, so routing and storage never disagree
// about which shard owns a vertex.
func (r *staticRouter) ShardFor(vertexID string) uint32 {
	return graphstore.ShardOf(vertexID, r.numShards)
}

func (r *staticRouter) LocalShard() uint32 { return r.localShard }

func (r *staticRouter) WorkerURL(shard uint32) string { return r.peerURLs[shard] }
