package rediscluster

import (
	"context"

	"github.com/kvstream/rediswire/redisconn"
)

// Scanner iterates a SCAN-family cursor independently over every shard's
// master connection, grounded on the teacher's rediscluster/scan.go
// cluster-wide scan pattern but built on redisconn.Scanner per shard
// instead of a bespoke per-address cursor implementation.
type Scanner struct {
	cluster *Cluster
	opts    redisconn.ScanOpts

	shards []*redisconn.Connection
	idx    int
	cur    *redisconn.Scanner
}

// NewScanner builds a Scanner over every master connection known to c at
// the time of the first Next call.
func NewScanner(c *Cluster, opts redisconn.ScanOpts) *Scanner {
	return &Scanner{cluster: c, opts: opts}
}

func (s *Scanner) init() {
	if s.shards != nil {
		return
	}
	snap := s.cluster.cfg.Load()
	if snap == nil {
		return
	}
	seen := make(map[string]bool, len(snap.partitions))
	for _, p := range snap.partitions {
		addr := nodeAddr(p.Master)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		if n := snap.byAddr[addr]; n != nil {
			s.shards = append(s.shards, n.conn)
		}
	}
}

// Next fetches the next page of keys from the current shard, advancing to
// the next shard once a shard's cursor returns to "0". It returns ok=false
// once every shard has been fully scanned.
func (s *Scanner) Next(ctx context.Context) (keys []string, ok bool, err error) {
	s.init()
	for {
		if s.cur == nil {
			if s.idx >= len(s.shards) {
				return nil, false, nil
			}
			s.cur = redisconn.NewScanner(s.shards[s.idx], s.opts)
			s.idx++
		}
		keys, ok, err = s.cur.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.cur = nil
			continue
		}
		return keys, true, nil
	}
}
