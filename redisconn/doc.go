/*
Package redisconn implements connection to a single Redis server.

Connection is a wrapper around one TCP stream. Every request submitted
through Send/SendMany is pipelined: a sender goroutine batches queued
requests and writes them to the socket, a reader goroutine decodes replies
streamingly and resolves completions in strict FIFO order. Connection is
thread-safe and does not need external synchronization.

Connect is responsible for reconnection — on any I/O failure the sender and
reader abort together, outstanding completions fail with a redis.Error of
type ErrIO, and a fresh socket is dialed after Opts.ReconnectPause. Connect
does no request retrying of its own; retry policy belongs to the caller or,
for cluster deployments, to package rediscluster.
*/
package redisconn
