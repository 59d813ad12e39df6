package redisconn_test

import (
	"context"
	"testing"
	"time"

	"github.com/joomcode/errorx"
	"github.com/kvstream/rediswire/mockredis"
	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/redisconn"
	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, addr string) *redisconn.Connection {
	t.Helper()
	conn, err := redisconn.Connect(context.Background(), addr, redisconn.Opts{
		ReconnectPause: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

// Scenario A (SET/GET) from spec.md §8.
func TestSetGet(t *testing.T) {
	store := mockredis.NewKVStore()
	srv, err := mockredis.Start(store.Handler())
	require.NoError(t, err)
	defer srv.Close()

	conn := dial(t, srv.Addr())
	ctx := context.Background()

	v, err := redis.ExecuteSync(ctx, conn, redis.Req("SET", []byte("foo"), []byte("bar")))
	require.NoError(t, err)
	assert.Equal(t, "OK", v.Str)

	v, err = redis.ExecuteSync(ctx, conn, redis.Req("GET", []byte("foo")))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), v.Bulk)
}

// Scenario B (null) from spec.md §8.
func TestGetMissingKeyIsNull(t *testing.T) {
	store := mockredis.NewKVStore()
	srv, err := mockredis.Start(store.Handler())
	require.NoError(t, err)
	defer srv.Close()

	conn := dial(t, srv.Addr())
	v, err := redis.ExecuteSync(context.Background(), conn, redis.Req("GET", []byte("absent")))
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

// Scenario F (WRONGTYPE) from spec.md §8.
func TestWrongType(t *testing.T) {
	store := mockredis.NewKVStore()
	srv, err := mockredis.Start(store.Handler())
	require.NoError(t, err)
	defer srv.Close()

	conn := dial(t, srv.Addr())
	v, err := redis.ExecuteSync(context.Background(), conn, redis.Req("LPUSH", []byte("foo"), []byte("x")))
	require.NoError(t, err)
	require.True(t, v.IsError())
	classified := redis.ClassifyReplyError(v.Str)
	assert.True(t, errorx.IsOfType(classified, redis.ErrWrongType))
}

// Scenario C / testable property 4 (FIFO matching): N concurrent callers
// submitting commands observe replies in submission order.
func TestFIFOOrdering(t *testing.T) {
	script := mockredis.NewScripted(resp.Integer(1), resp.Integer(2), resp.Integer(3))
	srv, err := mockredis.Start(script.Handler())
	require.NoError(t, err)
	defer srv.Close()

	conn := dial(t, srv.Addr())
	ctx := context.Background()

	results, errs := redis.ExecuteManySync(ctx, conn, []redis.Request{
		redis.Req("INCR", []byte("k")),
		redis.Req("INCR", []byte("k")),
		redis.Req("INCR", []byte("k")),
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	require.Equal(t, int64(1), results[0].Int)
	require.Equal(t, int64(2), results[1].Int)
	require.Equal(t, int64(3), results[2].Int)
}

// Testable property 5 (Reconnect): after an induced mid-stream socket
// close, outstanding calls fail with ErrIO; subsequent calls succeed
// against a restarted server.
func TestReconnectAfterSocketClose(t *testing.T) {
	store := mockredis.NewKVStore()
	srv, err := mockredis.Start(store.Handler())
	require.NoError(t, err)
	addr := srv.Addr()

	conn := dial(t, addr)
	ctx := context.Background()

	_, err = redis.ExecuteSync(ctx, conn, redis.Req("PING"))
	require.NoError(t, err)

	srv.Close()
	time.Sleep(30 * time.Millisecond)

	_, err = redis.ExecuteSync(ctx, conn, redis.Req("PING"))
	assert.Error(t, err)
	assert.True(t, redis.Retryable(err))

	srv2, err := mockredis.StartOn(addr, store.Handler())
	require.NoError(t, err)
	defer srv2.Close()

	require.Eventually(t, func() bool {
		_, err := redis.ExecuteSync(ctx, conn, redis.Req("PING"))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}
