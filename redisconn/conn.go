// Package redisconn implements the pipelined single-node connection
// executor: one TCP stream shared by a sender and a reader goroutine,
// reconnecting unconditionally on any I/O failure.
package redisconn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/resp"
)

const (
	stateDisconnected uint32 = 0
	stateConnecting   uint32 = 1
	stateConnected    uint32 = 2
	stateClosed       uint32 = 3

	defaultReconnectPause = 500 * time.Millisecond
	defaultIOTimeout      = 1 * time.Second
	// defaultQueueSize is the bounded request queue capacity recommended
	// by spec.md §4.4; any value >= 1 is correct, this only affects batch
	// size and therefore throughput, not correctness (spec.md §9).
	defaultQueueSize = 16
	defaultReadBuf   = 128 * 1024
	defaultWriteBuf  = 128 * 1024
)

// Opts configures a Connection. Zero-value fields resolve to the defaults
// documented per field, mirroring the teacher's redisconn.Opts.
type Opts struct {
	// DialTimeout bounds each TCP dial attempt. Defaults to
	// ReconnectPause/2 capped at 5s.
	DialTimeout time.Duration
	// ReconnectPause is the delay between a failed connection attempt and
	// the next one. Negative disables reconnection entirely.
	ReconnectPause time.Duration
	// IOTimeout is resolved at Connect: zero becomes 1s and a negative
	// value becomes zero. The Connection sets no read or write deadline on
	// the socket from it.
	IOTimeout time.Duration
	// TCPKeepAlive configures net.Dialer's KeepAlive.
	TCPKeepAlive time.Duration
	// Password, if set, is sent via AUTH during connection setup.
	Password string
	// DB selects the logical database via SELECT during connection setup.
	DB int
	// QueueSize is the bounded request queue's capacity (spec.md §4.4).
	// Defaults to 16.
	QueueSize int
	// Logger receives lifecycle events. Defaults to a stdlib-log-backed
	// implementation.
	Logger Logger
	// Async makes Connect return immediately without waiting for the
	// first connection attempt to resolve.
	Async bool
}

func (o *Opts) setDefaults() {
	if o.ReconnectPause == 0 {
		o.ReconnectPause = defaultReconnectPause
	}
	if o.IOTimeout == 0 {
		o.IOTimeout = defaultIOTimeout
	} else if o.IOTimeout < 0 {
		o.IOTimeout = 0
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = defaultLogger{}
	}
}

// pendingRequest is the executor-internal Request of spec.md §3: an
// argument array plus a one-shot completion handle, created on invocation,
// enqueued once, resolved exactly once, then discarded.
type pendingRequest struct {
	// pre, when hasPre is set, is written and pushed onto the outstanding
	// FIFO immediately ahead of req in the same batch — used for ASKING,
	// which must land on the wire as the one command directly preceding
	// the redirected one, with nothing from a concurrent caller able to
	// land between them (spec.md §4.5).
	pre    redis.Request
	hasPre bool

	req redis.Request
	cb  redis.Future
	n   uint64
}

var noopFuture = redis.FuncFuture(func(resp.Value, error, uint64) {})

// Connection is the single-node pipelined executor of spec.md §4.4. It
// implements redis.Sender.
type Connection struct {
	ctx    context.Context
	cancel context.CancelFunc

	addr string
	opts Opts

	state uint32

	mu       sync.Mutex
	netConn  net.Conn
	queue    chan pendingRequest
	closeErr error

	firstErr  error
	firstDone chan struct{}
}

// Connect dials addr and returns a live Connection. Reconnection happens
// transparently for the lifetime of the returned Connection; Connect only
// reports whether the *first* attempt succeeded (unless Opts.Async is set,
// in which case it returns immediately and connects in the background).
func Connect(ctx context.Context, addr string, opts Opts) (*Connection, error) {
	if ctx == nil {
		return nil, redis.ErrOpts.New("nil context")
	}
	if addr == "" {
		return nil, redis.ErrOpts.New("empty address")
	}
	opts.setDefaults()

	conn := &Connection{
		addr:      addr,
		opts:      opts,
		queue:     make(chan pendingRequest, opts.QueueSize),
		firstDone: make(chan struct{}),
	}
	conn.ctx, conn.cancel = context.WithCancel(ctx)

	go conn.connectLoop()

	if opts.Async {
		return conn, nil
	}
	<-conn.firstDone
	if conn.firstErr != nil {
		conn.cancel()
		return nil, conn.firstErr
	}
	return conn, nil
}

// Addr is the configured remote address.
func (c *Connection) Addr() string { return c.addr }

// ConnectedNow reports whether a socket is currently established.
func (c *Connection) ConnectedNow() bool {
	return atomic.LoadUint32(&c.state) == stateConnected
}

func (c *Connection) String() string {
	return fmt.Sprintf("*redisconn.Connection{addr: %s}", c.addr)
}

func (c *Connection) report(event LogKind, v ...interface{}) {
	c.opts.Logger.Report(event, c, v...)
}

// Close releases every resource owned by this Connection's lifetime scope
// (spec.md §5): the socket is closed and all outstanding and queued
// requests fail with redis.ErrContext.
func (c *Connection) Close() {
	c.cancel()
}

// connectLoop owns the reconnect state machine: dial, run one generation's
// sender/reader pair until it fails, pause, repeat. Runs for the lifetime
// of the Connection.
func (c *Connection) connectLoop() {
	first := true
	for {
		if c.ctx.Err() != nil {
			c.finishClosed()
			return
		}
		atomic.StoreUint32(&c.state, stateConnecting)
		c.report(LogConnecting)

		netConn, r, w, err := c.dial()
		if err != nil {
			atomic.StoreUint32(&c.state, stateDisconnected)
			c.report(LogConnectFailed, err)
			if first {
				c.firstErr = err
				close(c.firstDone)
				first = false
				if c.opts.ReconnectPause < 0 {
					return
				}
			}
			if c.opts.ReconnectPause < 0 {
				c.failQueued(err)
				return
			}
			c.sleepReconnectPause()
			continue
		}

		atomic.StoreUint32(&c.state, stateConnected)
		c.mu.Lock()
		c.netConn = netConn
		c.mu.Unlock()
		c.report(LogConnected, netConn.LocalAddr().String(), netConn.RemoteAddr().String())

		if first {
			close(c.firstDone)
			first = false
		}

		genErr := c.runGeneration(netConn, r, w)

		atomic.StoreUint32(&c.state, stateDisconnected)
		c.mu.Lock()
		c.netConn = nil
		c.mu.Unlock()
		netConn.Close()
		c.report(LogDisconnected, genErr)

		if c.opts.ReconnectPause < 0 {
			c.failQueued(genErr)
			return
		}
		c.sleepReconnectPause()
	}
}

func (c *Connection) sleepReconnectPause() {
	select {
	case <-c.ctx.Done():
	case <-time.After(c.opts.ReconnectPause):
	}
}

func (c *Connection) finishClosed() {
	if atomic.SwapUint32(&c.state, stateClosed) == stateClosed {
		return
	}
	c.report(LogContextClosed)
	c.mu.Lock()
	if c.netConn != nil {
		c.netConn.Close()
		c.netConn = nil
	}
	c.mu.Unlock()
	closedErr := redis.ErrContext.New("connection closed")
	c.failQueued(closedErr)
}

func (c *Connection) failQueued(err error) {
	for {
		select {
		case p := <-c.queue:
			p.cb.Resolve(resp.Value{}, err, p.n)
		default:
			return
		}
	}
}

// dial opens the TCP stream and performs AUTH/PING/SELECT setup, matching
// the teacher's redisconn.Connection.dial but against the resp package's
// Encode/Decoder instead of the old resp.AppendRequest/resp.Read helpers.
func (c *Connection) dial() (net.Conn, *bufio.Reader, *bufio.Writer, error) {
	dialTimeout := c.opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = c.opts.ReconnectPause / 2
		if dialTimeout <= 0 {
			dialTimeout = defaultReconnectPause / 2
		} else if dialTimeout > 5*time.Second {
			dialTimeout = 5 * time.Second
		}
	}
	dialer := net.Dialer{Timeout: dialTimeout, KeepAlive: c.opts.TCPKeepAlive}
	netConn, err := dialer.DialContext(c.ctx, "tcp", c.addr)
	if err != nil {
		return nil, nil, nil, redis.ErrIO.Wrap(err, "dial %s", c.addr)
	}
	if tc, ok := netConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
		tc.SetKeepAlive(c.opts.TCPKeepAlive > 0)
	}

	r := bufio.NewReaderSize(netConn, defaultReadBuf)
	w := bufio.NewWriterSize(netConn, defaultWriteBuf)
	dec := resp.NewDecoder(r)

	var setup []byte
	if c.opts.Password != "" {
		setup = resp.EncodeCommand(setup, "AUTH", [][]byte{[]byte(c.opts.Password)})
	}
	setup = resp.EncodeCommand(setup, "PING", nil)
	if c.opts.DB != 0 {
		setup = resp.EncodeCommand(setup, "SELECT", [][]byte{[]byte(fmt.Sprintf("%d", c.opts.DB))})
	}
	if _, err := w.Write(setup); err != nil {
		netConn.Close()
		return nil, nil, nil, redis.ErrIO.Wrap(err, "write setup")
	}
	if err := w.Flush(); err != nil {
		netConn.Close()
		return nil, nil, nil, redis.ErrIO.Wrap(err, "flush setup")
	}

	if c.opts.Password != "" {
		v, err := dec.Decode()
		if err != nil || v.IsError() {
			netConn.Close()
			return nil, nil, nil, redis.ErrIO.New("AUTH failed: %v %s", err, v.Str)
		}
	}
	pong, err := dec.Decode()
	if err != nil || pong.IsError() || pong.Str != "PONG" {
		netConn.Close()
		return nil, nil, nil, redis.ErrIO.New("PING setup failed: %v %+v", err, pong)
	}
	if c.opts.DB != 0 {
		v, err := dec.Decode()
		if err != nil || v.IsError() {
			netConn.Close()
			return nil, nil, nil, redis.ErrIO.New("SELECT failed: %v %s", err, v.Str)
		}
	}
	return netConn, r, w, nil
}

// runGeneration runs one sender/reader pair over a single socket lifetime,
// per spec.md §4.4: "Two cooperative tasks sharing one socket ... sender
// and reader race; whichever fails first aborts the other." It returns the
// error that ended the generation.
func (c *Connection) runGeneration(netConn net.Conn, r *bufio.Reader, w *bufio.Writer) error {
	out := newFIFO()
	errCh := make(chan error, 2)
	aborted := make(chan struct{})
	var once sync.Once
	abort := func(err error) {
		once.Do(func() {
			errCh <- err
			netConn.Close()
			close(aborted)
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.sender(w, out, abort, aborted)
	}()
	go func() {
		defer wg.Done()
		c.reader(r, out, abort)
	}()
	wg.Wait()

	err := <-errCh
	for _, p := range out.drainAll() {
		p.cb.Resolve(resp.Value{}, err, p.n)
	}
	return err
}

// sender implements spec.md §4.4's Sender task: dequeue 1..queueCap
// requests in one take, serialize, write once, push completions onto the
// outstanding FIFO in dequeue order on success. aborted is closed by the
// reader (or by the sender itself) the instant either side fails, so a
// sender parked waiting on an empty queue unblocks immediately instead of
// waiting for the next enqueued request — per spec.md §4.4, "whichever
// fails first aborts the other," and that abort must be prompt, not merely
// eventual.
func (c *Connection) sender(w *bufio.Writer, out *fifo, abort func(error), aborted <-chan struct{}) {
	queueCap := c.opts.QueueSize
	var buf []byte
	for {
		var first pendingRequest
		select {
		case first = <-c.queue:
		case <-aborted:
			return
		case <-c.ctx.Done():
			abort(redis.ErrContext.New("connection closed"))
			return
		}
		batch := make([]pendingRequest, 0, queueCap)
		batch = append(batch, first)
	drain:
		for len(batch) < queueCap {
			select {
			case p := <-c.queue:
				batch = append(batch, p)
			default:
				break drain
			}
		}

		buf = buf[:0]
		for _, p := range batch {
			if p.hasPre {
				buf = resp.EncodeCommand(buf, p.pre.Cmd, p.pre.Args)
			}
			buf = resp.EncodeCommand(buf, p.req.Cmd, p.req.Args)
		}
		if _, err := w.Write(buf); err != nil {
			ioErr := redis.ErrIO.Wrap(err, "write")
			failBatch(batch, ioErr)
			abort(ioErr)
			return
		}
		if err := w.Flush(); err != nil {
			ioErr := redis.ErrIO.Wrap(err, "flush")
			failBatch(batch, ioErr)
			abort(ioErr)
			return
		}
		for _, p := range batch {
			if p.hasPre {
				out.push(pendingRequest{req: p.pre, cb: noopFuture, n: 0})
			}
			out.push(p)
		}
	}
}

func failBatch(batch []pendingRequest, err error) {
	for _, p := range batch {
		p.cb.Resolve(resp.Value{}, err, p.n)
	}
}

// reader implements spec.md §4.4's Reader task: drive the decoder over the
// read stream, resolving the head of the outstanding FIFO for every parsed
// value, in strict arrival order. Classification of a server error reply
// happens at the descriptor boundary (redis.Command.Run), not here.
func (c *Connection) reader(r *bufio.Reader, out *fifo, abort func(error)) {
	dec := resp.NewDecoder(r)
	for {
		v, err := dec.Decode()
		if err != nil {
			abort(redis.ErrIO.Wrap(err, "read"))
			return
		}
		p := out.pop()
		p.cb.Resolve(v, nil, p.n)
	}
}

// Send implements redis.Sender.
func (c *Connection) Send(req redis.Request, cb redis.Future, n uint64) {
	c.sendOne(req, cb, n, false)
}

func (c *Connection) sendOne(req redis.Request, cb redis.Future, n uint64, asking bool) {
	switch atomic.LoadUint32(&c.state) {
	case stateClosed:
		cb.Resolve(resp.Value{}, redis.ErrContext.New("connection closed"), n)
		return
	case stateDisconnected, stateConnecting:
		cb.Resolve(resp.Value{}, redis.ErrConnection.New("not connected to %s", c.addr), n)
		return
	}
	p := pendingRequest{req: req, cb: cb, n: n}
	if asking {
		p.pre, p.hasPre = redis.Req("ASKING"), true
	}
	select {
	case c.queue <- p:
	case <-c.ctx.Done():
		cb.Resolve(resp.Value{}, redis.ErrContext.New("connection closed"), n)
	}
}

// SendAsk sends req preceded by ASKING on this connection, per spec.md
// §4.5's ASK-redirect handling: the cluster executor calls this on the
// target node's executor rather than issuing ASKING as a separate Send.
func (c *Connection) SendAsk(req redis.Request, cb redis.Future, n uint64) {
	c.sendOne(req, cb, n, true)
}

// SendMany implements redis.Sender.
func (c *Connection) SendMany(reqs []redis.Request, cb redis.Future, off uint64) {
	for i, req := range reqs {
		c.Send(req, cb, off+uint64(i))
	}
}

// EachShard implements redis.Sender: a single-node executor has exactly
// one shard, itself.
func (c *Connection) EachShard(cb func(redis.Sender, error) bool) {
	cb(c, nil)
}
