package redis

import "github.com/kvstream/rediswire/resp"

// Future is resolved exactly once by a Sender with either the decoded
// resp.Value or a classified error (spec.md §6). n identifies which request
// in a batch this resolution belongs to, mirroring the teacher's
// Future.Resolve(res, n) signature.
type Future interface {
	Resolve(v resp.Value, err error, n uint64)
}

// FuncFuture adapts a plain function to Future.
type FuncFuture func(v resp.Value, err error, n uint64)

// Resolve implements Future.
func (f FuncFuture) Resolve(v resp.Value, err error, n uint64) { f(v, err, n) }

// Sender is the upward interface every executor (redisconn.Connection,
// rediscluster.Cluster) implements: RedisExecutor.execute(args) →
// future<RespValue|RedisError> from spec.md §6, expressed as Go's
// idiomatic async callback + explicit n for batch correlation instead of a
// future value, since there's no lighter-weight construct in the standard
// library for this in a hot path — an allocation-free callback without
// goroutine-per-future is core to keeping the pipeline wait-free all the
// way from the teacher's redisconn.Connection.Send.
type Sender interface {
	// Send submits a single request. cb is resolved exactly once, with n
	// passed through unchanged.
	Send(req Request, cb Future, n uint64)
	// SendMany submits a batch. cb is resolved once per request, with n
	// offset by the request's position in reqs (cb.Resolve(.., off+i)).
	SendMany(reqs []Request, cb Future, off uint64)
	// EachShard invokes cb once per distinct underlying connection this
	// Sender multiplexes over (exactly once for a single-node executor).
	// cb returning true stops the iteration early.
	EachShard(cb func(Sender, error) bool)
	// Close releases every resource owned by this Sender's lifetime
	// scope (spec.md §5): pending requests fail with ErrContext.
	Close()
}
