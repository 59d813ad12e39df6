package rediscluster

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// RoundRobinSeed is the source of the "deterministic random" value used to
// pick a replica when a request is dispatched under PreferReplica (see
// rw_policy.go).
type RoundRobinSeed interface {
	// Current returns the current seed value.
	Current() uint32
}

// FairRoundRobinSeed returns a fresh value on every call via atomic
// increment. Kept as a reference implementation; it reduces pipelining
// efficiency in practice because every call observes a different value,
// defeating request batching on the chosen replica.
type FairRoundRobinSeed struct{ v uint32 }

// Current implements RoundRobinSeed.
func (d *FairRoundRobinSeed) Current() uint32 {
	return atomic.AddUint32(&d.v, 1)
}

// TimedRoundRobinSeed refreshes its value on a fixed interval from a
// background goroutine and returns that same value between refreshes,
// which keeps consecutive dispatches to the same replica batchable. This is
// the default seed.
type TimedRoundRobinSeed struct {
	v    uint32
	stop uint32
}

// NewTimedRoundRobinSeed starts a TimedRoundRobinSeed that reseeds every
// interval.
func NewTimedRoundRobinSeed(interval time.Duration) *TimedRoundRobinSeed {
	rr := &TimedRoundRobinSeed{}
	go func() {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		t := time.NewTicker(interval)
		defer t.Stop()
		for atomic.LoadUint32(&rr.stop) == 0 {
			<-t.C
			atomic.StoreUint32(&rr.v, rnd.Uint32())
		}
	}()
	return rr
}

// Current implements RoundRobinSeed.
func (rr *TimedRoundRobinSeed) Current() uint32 {
	return atomic.LoadUint32(&rr.v)
}

// Stop signals the reseeding goroutine to exit.
func (rr *TimedRoundRobinSeed) Stop() {
	atomic.StoreUint32(&rr.stop, 1)
}

var (
	defaultSeed     *TimedRoundRobinSeed
	defaultSeedOnce sync.Once
)

// DefaultRoundRobinSeed returns a process-wide singleton reseeding every
// 45-100ms; the random interval avoids every Cluster instance in a process
// reseeding in lockstep.
func DefaultRoundRobinSeed() *TimedRoundRobinSeed {
	defaultSeedOnce.Do(func() {
		interval := time.Duration(45000+time.Now().UnixNano()%55000) * time.Microsecond
		defaultSeed = NewTimedRoundRobinSeed(interval)
	})
	return defaultSeed
}
