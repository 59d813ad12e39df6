// Package redisclusterutil holds small cluster helpers that don't belong on
// Cluster itself: slot extraction from a batch of requests, and a flattened
// host:port view of a CLUSTER SLOTS reply. Seed/redirect address resolution
// lives in package rediscluster (resolve.go).
package redisclusterutil

import (
	"net"
	"strconv"

	"github.com/kvstream/rediswire/redis"
)

// SlotsRange is a flattened view of one CLUSTER SLOTS partition: a slot
// range plus the addresses hosting it, master first. Grounded on the
// teacher's redisclusterutil.SlotsRange, now built from the typed
// redis.ClusterSlots decoder instead of parsing an untyped interface{}
// reply — package redis already owns that parsing
// (redis.ClusterPartition/redis.ClusterNode, redis.ClusterSlots).
type SlotsRange struct {
	From, To int64
	Addrs    []string // master first, then replicas
}

// FromPartitions converts the typed CLUSTER SLOTS reply into SlotsRanges,
// for callers (custom tooling, diagnostics) that want the flattened
// host:port form instead of redis.ClusterPartition's structured nodes.
func FromPartitions(partitions []redis.ClusterPartition) []SlotsRange {
	out := make([]SlotsRange, 0, len(partitions))
	for _, p := range partitions {
		addrs := make([]string, 0, 1+len(p.Replicas))
		if addr := nodeAddr(p.Master); addr != "" {
			addrs = append(addrs, addr)
		}
		for _, r := range p.Replicas {
			if addr := nodeAddr(r); addr != "" {
				addrs = append(addrs, addr)
			}
		}
		out = append(out, SlotsRange{From: p.StartSlot, To: p.EndSlot, Addrs: addrs})
	}
	return out
}

func nodeAddr(n redis.ClusterNode) string {
	if n.Host == "" {
		return ""
	}
	return net.JoinHostPort(n.Host, strconv.FormatInt(n.Port, 10))
}
