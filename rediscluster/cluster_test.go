package rediscluster_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kvstream/rediswire/mockredis"
	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/rediscluster"
	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/require"
)

func clusterSlotsReply(host string, port int) resp.Value {
	return resp.Array(resp.Array(
		resp.Integer(0),
		resp.Integer(int64(rediscluster.NumSlots-1)),
		resp.Array(resp.BulkStringFrom(host), resp.Integer(int64(port))),
	))
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portS, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portS)
	require.NoError(t, err)
	return host, port
}

func isClusterSlots(verb string, args [][]byte) bool {
	return strings.EqualFold(verb, "CLUSTER") && len(args) > 0 && strings.EqualFold(string(args[0]), "SLOTS")
}

// Testable property 7 (MOVED retry) / Scenario E from spec.md §8: a mock
// replies once with -MOVED, the cluster executor refreshes topology exactly
// once and produces the final successful reply exactly once.
func TestClusterMovedRetry(t *testing.T) {
	srv2, err := mockredis.Start(func(verb string, args [][]byte) resp.Value {
		switch strings.ToUpper(verb) {
		case "PING":
			return resp.SimpleString("PONG")
		case "GET":
			return resp.BulkStringFrom("9")
		default:
			return resp.Err("ERR unexpected command on target node")
		}
	})
	require.NoError(t, err)
	defer srv2.Close()
	host2, port2 := splitAddr(t, srv2.Addr())

	var movedFired atomic.Bool
	var refreshCount int32
	var host1 string
	var port1 int
	handler1 := func(verb string, args [][]byte) resp.Value {
		switch {
		case strings.EqualFold(verb, "PING"):
			return resp.SimpleString("PONG")
		case isClusterSlots(verb, args):
			n := atomic.AddInt32(&refreshCount, 1)
			if n == 1 {
				return clusterSlotsReply(host1, port1)
			}
			return clusterSlotsReply(host2, port2)
		case strings.EqualFold(verb, "GET"):
			movedFired.Store(true)
			return resp.Err(fmt.Sprintf("MOVED 5474 %s:%d", host2, port2))
		default:
			return resp.Err("ERR unexpected command on source node")
		}
	}
	srv1, err := mockredis.Start(handler1)
	require.NoError(t, err)
	defer srv1.Close()
	host1, port1 = splitAddr(t, srv1.Addr())

	ctx := context.Background()
	cluster, err := rediscluster.NewCluster(ctx, []string{srv1.Addr()}, rediscluster.Opts{})
	require.NoError(t, err)
	defer cluster.Close()
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCount))

	v, err := redis.ExecuteSync(ctx, cluster, redis.Req("GET", []byte("{user}.x")))
	require.NoError(t, err)
	require.Equal(t, []byte("9"), v.Bulk)
	require.True(t, movedFired.Load())
	require.EqualValues(t, 2, atomic.LoadInt32(&refreshCount))
}

// Testable property 8 (ASK retry) from spec.md §8: the retry is preceded by
// ASKING on the target node, and topology is not refreshed a second time.
func TestClusterAskRetry(t *testing.T) {
	var asked atomic.Bool
	srv2, err := mockredis.Start(func(verb string, args [][]byte) resp.Value {
		switch strings.ToUpper(verb) {
		case "PING":
			return resp.SimpleString("PONG")
		case "ASKING":
			asked.Store(true)
			return resp.SimpleString("OK")
		case "GET":
			if !asked.Load() {
				return resp.Err("ERR ASKING required")
			}
			return resp.BulkStringFrom("9")
		default:
			return resp.Err("ERR unexpected command on target node")
		}
	})
	require.NoError(t, err)
	defer srv2.Close()
	host2, port2 := splitAddr(t, srv2.Addr())

	var refreshCount int32
	var host1 string
	var port1 int
	handler1 := func(verb string, args [][]byte) resp.Value {
		switch {
		case strings.EqualFold(verb, "PING"):
			return resp.SimpleString("PONG")
		case isClusterSlots(verb, args):
			atomic.AddInt32(&refreshCount, 1)
			return clusterSlotsReply(host1, port1)
		case strings.EqualFold(verb, "GET"):
			return resp.Err(fmt.Sprintf("ASK 5474 %s:%d", host2, port2))
		default:
			return resp.Err("ERR unexpected command on source node")
		}
	}
	srv1, err := mockredis.Start(handler1)
	require.NoError(t, err)
	defer srv1.Close()
	host1, port1 = splitAddr(t, srv1.Addr())

	ctx := context.Background()
	cluster, err := rediscluster.NewCluster(ctx, []string{srv1.Addr()}, rediscluster.Opts{})
	require.NoError(t, err)
	defer cluster.Close()
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCount))

	v, err := redis.ExecuteSync(ctx, cluster, redis.Req("GET", []byte("{user}.x")))
	require.NoError(t, err)
	require.Equal(t, []byte("9"), v.Bulk)
	require.True(t, asked.Load())
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCount))
}

// Scenario F analogue at the cluster layer: a classified, non-retryable
// error (WRONGTYPE) propagates unchanged without being mistaken for a
// redirect or a retryable I/O failure.
func TestClusterWrongTypePropagates(t *testing.T) {
	var host1 string
	var port1 int
	srv1, err := mockredis.Start(func(verb string, args [][]byte) resp.Value {
		switch {
		case strings.EqualFold(verb, "PING"):
			return resp.SimpleString("PONG")
		case isClusterSlots(verb, args):
			return clusterSlotsReply(host1, port1)
		case strings.EqualFold(verb, "LPUSH"):
			return resp.Err("WRONGTYPE Operation against a key holding the wrong kind of value")
		default:
			return resp.Err("ERR unexpected command")
		}
	})
	require.NoError(t, err)
	defer srv1.Close()
	host1, port1 = splitAddr(t, srv1.Addr())

	ctx := context.Background()
	cluster, err := rediscluster.NewCluster(ctx, []string{srv1.Addr()}, rediscluster.Opts{})
	require.NoError(t, err)
	defer cluster.Close()

	_, err = redis.ExecuteSync(ctx, cluster, redis.Req("LPUSH", []byte("foo"), []byte("x")))
	require.Error(t, err)
	require.False(t, redis.Retryable(err))
}
