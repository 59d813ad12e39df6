/*
Package rediswire - high throughput Redis connector with implicit pipelining.

https://redis.io/topics/pipelining

Pipelining improves maximum throughput that redis can serve, and reduces CPU usage both on
redis server and on client. Mostly it comes from saving system CPU consumption.

But it is not always possible to use pipelining explicitly: usually there are dozens of
concurrent goroutines, each sends just one request at a time. To handle usual workload,
pipelining has to be implicit.

This connector was built implicitly pipelined from the ground up to achieve maximum performance
in a highly concurrent environment. It writes all requests to a single connection to redis, and
continuously reads answers from another goroutine.

Note that it trades a bit of latency for throughput, and therefore may be not optimal for
non-concurrent usage.

Capabilities

- fast,

- thread-safe: no need to lock around a connection, no need to "return to pool", etc,

- pipelining is implicit,

- cluster-topology-aware routing, with transparent MOVED/ASK redirect handling,

- hook for custom logging.

Limitations

- blocking calls (BLPOP, BRPOP, BRPOPLPUSH, BZPOPMIN, BZPOPMAX, XREAD, XREADGROUP, WAIT, SAVE)
are not rejected; replies are matched to requests strictly in order, so a blocking call delays
every request queued behind it on the same connection.

- SUBSCRIBE and PSUBSCRIBE are not rejected either, but the connection has no Pub/Sub mode: it
pairs every incoming reply with the oldest outstanding request, push messages included.

Structure

- root package is empty

- the wire codec (RESP) is in the resp subpackage

- common functionality - requests, typed replies, the Sender/Future interfaces, error
classification - is in the redis subpackage

- a single pipelined connection is in the redisconn subpackage

- cluster support is in the rediscluster subpackage

Usage

Both redisconn.Connect and rediscluster.NewCluster create implementations of redis.Sender.
redis.Sender provides an asynchronous api for sending requests: it accepts a redis.Future
implementation as an argument and resolves it asynchronously. Usually you don't need to provide
your own redis.Future implementation, but rather use redis.ExecuteSync or redis.ExecuteManySync
for a blocking call that still honors context cancellation.

Replies decode into resp.Value, a tagged union over the RESP types (simple string, error,
integer, bulk string, array, null). Package redis provides typed decoders on top of it
(redis.ClusterSlots, output_*.go's Lcs/Xinfo/etc helpers) for replies with non-trivial shape.

Errors resolved by the Senders and returned by redis.Command.Run are *errorx.Error values from
a shared namespace. MOVED and ASK errors carry the redirect address and slot as properties,
recoverable with (*errorx.Error).Property. The lower-level pieces return plain errors: the resp
decoder returns *resp.ProtocolError or the reader's I/O error, Arbitrary decoders return
*redis.CodecError, and WithChecksum codecs return redis.ErrChecksum.
*/
package rediswire
