// Package rediscluster implements the cluster-topology-aware router: slot
// computation, a CLUSTER SLOTS-derived topology snapshot, and MOVED/ASK
// redirect handling with retry.
package rediscluster

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joomcode/errorx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/redisconn"
	"github.com/kvstream/rediswire/resp"
)

const (
	defaultRetryBase    = 10 * time.Millisecond
	defaultRetryFactor  = 2.0
	defaultMaxAttempts  = 5
	defaultRefreshProbe = 3 * time.Second
	// defaultRefreshInterval bounds how often a refresh actually probes the
	// cluster: concurrent MOVED replies from a single resharding event would
	// otherwise each trigger their own CLUSTER SLOTS round trip.
	defaultRefreshInterval = 200 * time.Millisecond
)

// Opts configures a Cluster.
type Opts struct {
	// HostOpts is passed to redisconn.Connect for every node connection the
	// Cluster opens.
	HostOpts redisconn.Opts
	// Logger receives topology lifecycle events. Defaults to a stdlib-log
	// implementation.
	Logger Logger
	// RoundRobinSeed drives replica selection under PreferReplica. Defaults
	// to DefaultRoundRobinSeed().
	RoundRobinSeed RoundRobinSeed
	// RetryBase, RetryFactor and MaxAttempts configure the exponential
	// backoff retry policy of spec.md §4.5 step 5. RetryBase defaults to
	// 10ms, RetryFactor to 2, MaxAttempts to 5.
	RetryBase   time.Duration
	RetryFactor float64
	MaxAttempts int
}

func (o *Opts) setDefaults() {
	if o.Logger == nil {
		o.Logger = defaultLogger{}
	}
	if o.RoundRobinSeed == nil {
		o.RoundRobinSeed = DefaultRoundRobinSeed()
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RetryFactor <= 0 {
		o.RetryFactor = defaultRetryFactor
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
}

// node pairs an address with the connection executor dispatch sends
// through.
type node struct {
	addr string
	conn *redisconn.Connection
}

// snapshot is spec.md §3's ClusterConnection: an immutable view of the
// topology derived from one CLUSTER SLOTS reply. Swapped in whole by
// refresh, never mutated in place.
type snapshot struct {
	partitions []redis.ClusterPartition
	byAddr     map[string]*node
	slotAddr   [NumSlots]string
	slotPart   [NumSlots]int32
}

func newSnapshot(partitions []redis.ClusterPartition, byAddr map[string]*node) *snapshot {
	s := &snapshot{partitions: partitions, byAddr: byAddr}
	for i := range s.slotPart {
		s.slotPart[i] = -1
	}
	for idx, p := range partitions {
		addr := nodeAddr(p.Master)
		for slot := p.StartSlot; slot <= p.EndSlot; slot++ {
			s.slotAddr[slot] = addr
			s.slotPart[slot] = int32(idx)
		}
	}
	return s
}

func (s *snapshot) partitionFor(slot uint16) *redis.ClusterPartition {
	idx := s.slotPart[slot]
	if idx < 0 {
		return nil
	}
	return &s.partitions[idx]
}

func (s *snapshot) any() *node {
	for _, n := range s.byAddr {
		return n
	}
	return nil
}

func nodeAddr(n redis.ClusterNode) string {
	if n.Host == "" {
		return ""
	}
	return net.JoinHostPort(n.Host, strconv.FormatInt(n.Port, 10))
}

// Cluster is spec.md §4.5's cluster executor. It implements redis.Sender,
// routing each request by slot and transparently following MOVED/ASK
// redirects. Closing it closes every per-node connection it opened.
type Cluster struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Opts
	seeds  []string

	cfg atomic.Pointer[snapshot]

	refreshMu      sync.Mutex
	refreshLimiter *rate.Limiter

	adhocMu sync.Mutex
	adhoc   map[string]*redisconn.Connection
}

// NewCluster probes seeds in order until one answers CLUSTER SLOTS, builds
// the initial topology snapshot from it, and returns a live Cluster.
func NewCluster(ctx context.Context, seeds []string, opts Opts) (*Cluster, error) {
	if ctx == nil {
		return nil, redis.ErrOpts.New("nil context")
	}
	if len(seeds) == 0 {
		return nil, redis.ErrOpts.New("no seed addresses")
	}
	opts.setDefaults()

	c := &Cluster{
		opts:           opts,
		seeds:          append([]string(nil), seeds...),
		adhoc:          map[string]*redisconn.Connection{},
		refreshLimiter: rate.NewLimiter(rate.Every(defaultRefreshInterval), 1),
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.refresh(ctx); err != nil {
		c.cancel()
		return nil, err
	}
	return c, nil
}

// Close releases every resource owned by the Cluster's lifetime scope
// (spec.md §5): every node connection is closed, including any opened
// ad hoc to serve an ASK redirect.
func (c *Cluster) Close() {
	c.cancel()
	if snap := c.cfg.Load(); snap != nil {
		for _, n := range snap.byAddr {
			n.conn.Close()
		}
	}
	c.adhocMu.Lock()
	for addr, conn := range c.adhoc {
		conn.Close()
		delete(c.adhoc, addr)
	}
	c.adhocMu.Unlock()
	c.opts.Logger.Report(LogClosed, c)
}

// Send implements redis.Sender, dispatching under the Cluster's default
// MasterOnly policy. Use Cluster.WithPolicy for replica-aware dispatch.
func (c *Cluster) Send(req redis.Request, cb redis.Future, n uint64) {
	c.sendWithPolicy(req, cb, n, MasterOnly, 0)
}

// SendMany implements redis.Sender.
func (c *Cluster) SendMany(reqs []redis.Request, cb redis.Future, off uint64) {
	for i, req := range reqs {
		c.Send(req, cb, off+uint64(i))
	}
}

// EachShard implements redis.Sender: invoke cb once per distinct master
// connection, grounded on the teacher's rediscluster/eachshard.go.
func (c *Cluster) EachShard(cb func(redis.Sender, error) bool) {
	snap := c.cfg.Load()
	if snap == nil {
		cb(nil, redis.ErrClusterConfig.New("no topology"))
		return
	}
	seen := make(map[string]bool, len(snap.partitions))
	for _, p := range snap.partitions {
		addr := nodeAddr(p.Master)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		n := snap.byAddr[addr]
		if n == nil {
			continue
		}
		if cb(n.conn, nil) {
			return
		}
	}
}

func (c *Cluster) sendWithPolicy(req redis.Request, cb redis.Future, n uint64, policy ReplicaPolicyEnum, attempt int) {
	snap := c.cfg.Load()
	if snap == nil {
		cb.Resolve(resp.Value{}, redis.ErrClusterConfig.New("no topology"), n)
		return
	}
	target, err := c.pick(snap, req, policy)
	if err != nil {
		cb.Resolve(resp.Value{}, err, n)
		return
	}
	wrapped := redis.FuncFuture(func(v resp.Value, rerr error, _ uint64) {
		c.onReply(req, cb, n, policy, attempt, v, rerr)
	})
	target.conn.Send(req, wrapped, 0)
}

func (c *Cluster) pick(snap *snapshot, req redis.Request, policy ReplicaPolicyEnum) (*node, error) {
	key, ok := req.Key()
	if !ok {
		if any := snap.any(); any != nil {
			return any, nil
		}
		return nil, redis.ErrClusterConfig.New("no nodes available")
	}
	slot := Slot(string(key))
	part := snap.partitionFor(slot)
	if part == nil {
		return nil, redis.ErrClusterConfig.New("no partition owns slot %d", slot).WithProperty(redis.EKSlot, slot)
	}
	target := c.chooseNode(snap, part, policy)
	if target == nil {
		return nil, redis.ErrClusterConnection.New("no connection available for slot %d", slot).WithProperty(redis.EKSlot, slot)
	}
	return target, nil
}

func (c *Cluster) chooseNode(snap *snapshot, part *redis.ClusterPartition, policy ReplicaPolicyEnum) *node {
	master := snap.byAddr[nodeAddr(part.Master)]
	if policy == MasterOnly || len(part.Replicas) == 0 {
		return master
	}
	candidates := make([]*node, 0, 1+len(part.Replicas))
	if master != nil {
		candidates = append(candidates, master)
	}
	for _, r := range part.Replicas {
		if n := snap.byAddr[nodeAddr(r)]; n != nil {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	off := c.opts.RoundRobinSeed.Current()
	return candidates[off%uint32(len(candidates))]
}

// onReply implements spec.md §4.5 step 4: intercept MOVED/ASK, retry
// retryable IOError/ClusterConfig errors with backoff, and otherwise
// propagate. Runs off the connection's reader goroutine via a spawned
// goroutine so a slow redirect/backoff never stalls pipeline delivery on
// the connection that produced the reply.
func (c *Cluster) onReply(req redis.Request, cb redis.Future, n uint64, policy ReplicaPolicyEnum, attempt int, v resp.Value, err error) {
	if err == nil && v.IsError() {
		err = redis.ClassifyReplyError(v.Str)
	}
	if err == nil {
		cb.Resolve(v, nil, n)
		return
	}

	if errorx.IsOfType(err, redis.ErrMoved) {
		if attempt+1 >= c.opts.MaxAttempts {
			cb.Resolve(v, err, n)
			return
		}
		addr, _ := addrProperty(err)
		c.opts.Logger.Report(LogMoved, c, addr)
		go func() {
			if rerr := c.refresh(c.ctx); rerr != nil {
				c.opts.Logger.Report(LogRefreshFailed, c, addr, rerr)
			}
			c.sendWithPolicy(req, cb, n, policy, attempt+1)
		}()
		return
	}

	if errorx.IsOfType(err, redis.ErrAsk) {
		if attempt+1 >= c.opts.MaxAttempts {
			cb.Resolve(v, err, n)
			return
		}
		addr, _ := addrProperty(err)
		c.opts.Logger.Report(LogAsk, c, addr)
		go c.sendAsk(req, cb, n, policy, attempt, addr)
		return
	}

	if redis.Retryable(err) && attempt+1 < c.opts.MaxAttempts {
		go c.retryAfterBackoff(req, cb, n, policy, attempt)
		return
	}

	cb.Resolve(v, err, n)
}

func addrProperty(err error) (string, bool) {
	xerr, ok := err.(*errorx.Error)
	if !ok {
		return "", false
	}
	v, ok := xerr.Property(redis.EKAddress)
	if !ok {
		return "", false
	}
	addr, ok := v.(string)
	return addr, ok
}

func (c *Cluster) sendAsk(req redis.Request, cb redis.Future, n uint64, policy ReplicaPolicyEnum, attempt int, addr string) {
	if addr == "" {
		cb.Resolve(resp.Value{}, redis.ErrProtocol.New("ASK reply missing target address"), n)
		return
	}
	conn, err := c.dialReused(addr, c.cfg.Load())
	if err != nil {
		cb.Resolve(resp.Value{}, err, n)
		return
	}
	wrapped := redis.FuncFuture(func(v resp.Value, rerr error, _ uint64) {
		c.onReply(req, cb, n, policy, attempt+1, v, rerr)
	})
	conn.SendAsk(req, wrapped, 0)
}

func (c *Cluster) retryAfterBackoff(req redis.Request, cb redis.Future, n uint64, policy ReplicaPolicyEnum, attempt int) {
	delay := backoffDelay(c.opts.RetryBase, c.opts.RetryFactor, attempt)
	select {
	case <-time.After(delay):
	case <-c.ctx.Done():
		cb.Resolve(resp.Value{}, redis.ErrContext.New("cluster closed"), n)
		return
	}
	c.sendWithPolicy(req, cb, n, policy, attempt+1)
}

func backoffDelay(base time.Duration, factor float64, attempt int) time.Duration {
	d := float64(base)
	for i := 0; i < attempt; i++ {
		d *= factor
	}
	return time.Duration(d)
}

// refresh re-runs initialization (spec.md §4.5): probe known addresses in
// order until one answers CLUSTER SLOTS, build a new snapshot, install it,
// and close the per-node scopes the old snapshot owned that the new one
// doesn't reuse — in parallel, per spec.md §4.5's closing remark.
func (c *Cluster) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	old := c.cfg.Load()
	if old != nil && !c.refreshLimiter.Allow() {
		// A concurrent MOVED storm already refreshed moments ago; the
		// snapshot we'd rebuild is the same one already installed.
		return nil
	}
	candidates := c.candidateAddrs(old)
	c.opts.Logger.Report(LogRefreshing, c, candidates)

	var lastErr error
	for _, addr := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, defaultRefreshProbe)
		snap, err := c.buildSnapshot(probeCtx, addr, old)
		cancel()
		if err != nil {
			lastErr = err
			c.opts.Logger.Report(LogRefreshFailed, c, addr, err)
			continue
		}
		c.cfg.Store(snap)
		c.opts.Logger.Report(LogRefreshed, c, addr, len(snap.partitions))
		if old != nil {
			c.closeStale(old, snap)
		}
		return nil
	}
	return redis.ErrClusterConfig.Wrap(lastErr, "cluster refresh: every candidate address failed")
}

func (c *Cluster) candidateAddrs(old *snapshot) []string {
	seen := map[string]bool{}
	var addrs []string
	if old != nil {
		for addr := range old.byAddr {
			if !seen[addr] {
				seen[addr] = true
				addrs = append(addrs, addr)
			}
		}
	}
	for _, addr := range c.seeds {
		if !seen[addr] {
			seen[addr] = true
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

func (c *Cluster) buildSnapshot(ctx context.Context, probeAddr string, old *snapshot) (*snapshot, error) {
	probeConn, err := c.dialReused(probeAddr, old)
	if err != nil {
		return nil, err
	}
	v, err := redis.ExecuteSync(ctx, probeConn, redis.Req("CLUSTER SLOTS"))
	if err != nil {
		return nil, err
	}
	if v.IsError() {
		return nil, redis.ClassifyReplyError(v.Str)
	}
	partitions, err := redis.ClusterSlots(v)
	if err != nil {
		return nil, err
	}
	if len(partitions) == 0 {
		return nil, redis.ErrClusterConfig.New("CLUSTER SLOTS returned no partitions")
	}

	byAddr := map[string]*node{}
	ensure := func(n redis.ClusterNode) error {
		addr := nodeAddr(n)
		if addr == "" {
			return nil
		}
		if _, ok := byAddr[addr]; ok {
			return nil
		}
		conn, err := c.dialReused(addr, old)
		if err != nil {
			return err
		}
		byAddr[addr] = &node{addr: addr, conn: conn}
		return nil
	}
	for _, p := range partitions {
		if err := ensure(p.Master); err != nil {
			return nil, err
		}
		for _, r := range p.Replicas {
			if err := ensure(r); err != nil {
				return nil, err
			}
		}
	}

	c.adhocMu.Lock()
	for addr := range byAddr {
		delete(c.adhoc, addr)
	}
	c.adhocMu.Unlock()

	return newSnapshot(partitions, byAddr), nil
}

// dialReused returns an existing connection to addr — preferring the prior
// snapshot, then an ad hoc connection already opened for an ASK target —
// dialing a fresh one only if neither has it.
func (c *Cluster) dialReused(addr string, old *snapshot) (*redisconn.Connection, error) {
	if old != nil {
		if n, ok := old.byAddr[addr]; ok {
			return n.conn, nil
		}
	}
	c.adhocMu.Lock()
	if conn, ok := c.adhoc[addr]; ok {
		c.adhocMu.Unlock()
		return conn, nil
	}
	c.adhocMu.Unlock()

	dialAddr, _, err := resolveAddr(addr)
	if err != nil {
		return nil, redis.ErrClusterConfig.Wrap(err, "resolve %s", addr)
	}
	conn, err := redisconn.Connect(c.ctx, dialAddr, c.opts.HostOpts)
	if err != nil {
		return nil, err
	}
	c.adhocMu.Lock()
	c.adhoc[addr] = conn
	c.adhocMu.Unlock()
	return conn, nil
}

// closeStale closes, in parallel via errgroup, every connection the old
// snapshot owned that the new snapshot doesn't reuse.
func (c *Cluster) closeStale(old, newSnap *snapshot) {
	var g errgroup.Group
	for addr, n := range old.byAddr {
		if _, ok := newSnap.byAddr[addr]; ok {
			continue
		}
		conn := n.conn
		g.Go(func() error {
			conn.Close()
			return nil
		})
	}
	g.Wait()
}
