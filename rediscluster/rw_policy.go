package rediscluster

import "github.com/kvstream/rediswire/redis"

// ReplicaPolicyEnum selects which node within a partition a command may be
// dispatched to. Grounded on the teacher's MasterReplicaPolicyEnum
// (rediscluster/rw_policy.go).
type ReplicaPolicyEnum int

const (
	// MasterOnly always dispatches to the partition's master. Required for
	// any command that isn't safe to read from a possibly-lagging replica,
	// and for every write.
	MasterOnly ReplicaPolicyEnum = iota
	// PreferReplica spreads dispatch across the master and its replicas
	// using RoundRobinSeed, for read-only traffic that tolerates eventual
	// consistency.
	PreferReplica
)

// Policeman wraps a Cluster to force a ReplicaPolicyEnum on every request it
// dispatches, while still implementing redis.Sender so it composes with
// redis.Command.Run and redis.ExecuteSync like any other Sender.
type Policeman struct {
	*Cluster
	Policy ReplicaPolicyEnum
}

// Send implements redis.Sender.
func (p Policeman) Send(req redis.Request, cb redis.Future, n uint64) {
	p.Cluster.sendWithPolicy(req, cb, n, p.Policy, 0)
}

// SendMany implements redis.Sender.
func (p Policeman) SendMany(reqs []redis.Request, cb redis.Future, off uint64) {
	for i, req := range reqs {
		p.Send(req, cb, off+uint64(i))
	}
}

// WithPolicy returns a Sender that dispatches every request under policy
// instead of the Cluster's default MasterOnly.
func (c *Cluster) WithPolicy(policy ReplicaPolicyEnum) Policeman {
	return Policeman{c, policy}
}
