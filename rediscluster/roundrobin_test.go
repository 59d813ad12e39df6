package rediscluster_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kvstream/rediswire/mockredis"
	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/rediscluster"
	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/require"
)

// fixedSeed always returns the same value, making replica selection under
// PreferReplica deterministic in a test instead of actually random.
type fixedSeed uint32

func (s fixedSeed) Current() uint32 { return uint32(s) }

func clusterSlotsReplyWithReplica(masterHost string, masterPort int, replicaHost string, replicaPort int) resp.Value {
	return resp.Array(resp.Array(
		resp.Integer(0),
		resp.Integer(int64(rediscluster.NumSlots-1)),
		resp.Array(resp.BulkStringFrom(masterHost), resp.Integer(int64(masterPort))),
		resp.Array(resp.BulkStringFrom(replicaHost), resp.Integer(int64(replicaPort))),
	))
}

// PreferReplica dispatch: a read-only request sent through WithPolicy lands
// on the partition's replica rather than its master, per rw_policy.go /
// roundrobin.go's candidate-selection path in chooseNode.
func TestClusterPreferReplicaDispatchesToReplica(t *testing.T) {
	var masterHit, replicaHit atomic.Bool

	var replicaHost string
	var replicaPort int
	srvReplica, err := mockredis.Start(func(verb string, args [][]byte) resp.Value {
		switch strings.ToUpper(verb) {
		case "PING":
			return resp.SimpleString("PONG")
		case "GET":
			replicaHit.Store(true)
			return resp.BulkStringFrom("replica-value")
		default:
			return resp.Err("ERR unexpected command on replica")
		}
	})
	require.NoError(t, err)
	defer srvReplica.Close()
	replicaHost, replicaPort = splitAddr(t, srvReplica.Addr())

	var masterHost string
	var masterPort int
	srvMaster, err := mockredis.Start(func(verb string, args [][]byte) resp.Value {
		switch {
		case strings.EqualFold(verb, "PING"):
			return resp.SimpleString("PONG")
		case isClusterSlots(verb, args):
			return clusterSlotsReplyWithReplica(masterHost, masterPort, replicaHost, replicaPort)
		case strings.EqualFold(verb, "GET"):
			masterHit.Store(true)
			return resp.BulkStringFrom("master-value")
		default:
			return resp.Err("ERR unexpected command on master")
		}
	})
	require.NoError(t, err)
	defer srvMaster.Close()
	masterHost, masterPort = splitAddr(t, srvMaster.Addr())

	ctx := context.Background()
	// candidates in chooseNode are [master, replica]; seed 1 picks index 1.
	cluster, err := rediscluster.NewCluster(ctx, []string{srvMaster.Addr()}, rediscluster.Opts{
		RoundRobinSeed: fixedSeed(1),
	})
	require.NoError(t, err)
	defer cluster.Close()

	v, err := redis.ExecuteSync(ctx, cluster.WithPolicy(rediscluster.PreferReplica), redis.Req("GET", []byte("{user}.x")))
	require.NoError(t, err)
	require.Equal(t, []byte("replica-value"), v.Bulk)
	require.True(t, replicaHit.Load())
	require.False(t, masterHit.Load())
}
