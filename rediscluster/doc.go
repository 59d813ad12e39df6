/*
Package rediscluster implements a cluster-topology-aware router on top of
package redisconn.

A Cluster holds an atomic snapshot of the cluster's topology — the
partitions returned by CLUSTER SLOTS, plus one redisconn.Connection per
distinct node address. Dispatch computes the CRC16/XMODEM slot for a
request's key argument, looks up the owning partition in the current
snapshot, and sends through that partition's connection.

A MOVED reply triggers a full topology refresh followed by one retry; an
ASK reply opens (or reuses) a connection to the redirect target, sends
ASKING, and retries there without refreshing. Both redirects are followed
at once, without a backoff delay. Errors for which redis.Retryable holds
(IO, not-connected, LOADING, ClusterConfig, ClusterConnection) are retried
after an exponential backoff delay. Redirects and retries together are
bounded by Opts.MaxAttempts.

Refresh replaces the snapshot as a whole — it is never adjusted in place —
and closes, in parallel, the per-node connections the previous snapshot
owned that the new one didn't reuse.
*/
package rediscluster
