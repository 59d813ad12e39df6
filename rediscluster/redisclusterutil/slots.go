package redisclusterutil

import (
	"math/rand"

	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/rediscluster"
)

// ReqSlot returns the slot a request targets, and whether it has one at
// all. RANDOMKEY has no key argument but still needs a slot to pick which
// shard to ask, so it gets a uniformly random one.
func ReqSlot(req redis.Request) (uint16, bool) {
	if req.Cmd == "RANDOMKEY" {
		return uint16(rand.Intn(rediscluster.NumSlots)), true
	}
	key, ok := req.Key()
	if !ok {
		return 0, false
	}
	return rediscluster.Slot(string(key)), true
}

// BatchSlot returns the slot common to every request in a batch, if one
// exists — requests with no key of their own don't constrain it.
func BatchSlot(reqs []redis.Request) (uint16, bool) {
	var slot uint16
	var set bool
	for _, req := range reqs {
		s, ok := ReqSlot(req)
		if !ok {
			continue
		}
		if !set {
			slot, set = s, true
		} else if slot != s {
			return 0, false
		}
	}
	return slot, set
}

// BatchKey returns the first key in a batch that targets the batch's
// common slot, and whether such a common slot exists.
func BatchKey(reqs []redis.Request) ([]byte, bool) {
	var key []byte
	var slot uint16
	var set bool
	for _, req := range reqs {
		k, ok := req.Key()
		if !ok {
			continue
		}
		s := rediscluster.Slot(string(k))
		if !set {
			key, slot, set = k, s, true
		} else if slot != s {
			return nil, false
		}
	}
	return key, set
}
