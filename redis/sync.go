package redis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kvstream/rediswire/resp"
)

// ExecuteSync adapts Sender's async Send to a blocking call, honoring ctx
// cancellation the way the teacher's redis.SyncCtx does: if ctx is done
// before the Future resolves, ExecuteSync returns ErrTimeout
// immediately without waiting further (spec.md §5's "Cancellation"). The
// request may still complete on the wire — the socket cannot be rewound —
// but its result is discarded.
func ExecuteSync(ctx context.Context, s Sender, req Request) (resp.Value, error) {
	done := make(chan struct{})
	var v resp.Value
	var rerr error
	s.Send(req, FuncFuture(func(rv resp.Value, e error, _ uint64) {
		v, rerr = rv, e
		close(done)
	}), 0)

	select {
	case <-ctx.Done():
		return resp.Value{}, classifyCtxErr(ctx)
	case <-done:
		return v, rerr
	}
}

// ExecuteManySync is the batch counterpart of ExecuteSync: it blocks until
// every request in reqs has resolved, or ctx is cancelled.
func ExecuteManySync(ctx context.Context, s Sender, reqs []Request) ([]resp.Value, []error) {
	n := len(reqs)
	values := make([]resp.Value, n)
	errs := make([]error, n)
	done := make(chan struct{})
	remaining := int32(n)

	// mu guards values/errs against the concurrent read on the ctx.Done
	// branch below: the reader goroutine resolving futures and the caller
	// reading out partial results on cancellation must not race on the
	// same slice slots.
	var mu sync.Mutex
	cb := FuncFuture(func(v resp.Value, e error, i uint64) {
		mu.Lock()
		values[i] = v
		errs[i] = e
		mu.Unlock()
		if atomic.AddInt32(&remaining, -1) == 0 {
			close(done)
		}
	})
	s.SendMany(reqs, cb, 0)

	select {
	case <-ctx.Done():
		cerr := classifyCtxErr(ctx)
		mu.Lock()
		for i := range errs {
			if errs[i] == nil && values[i].Type == 0 && values[i].Str == "" {
				errs[i] = cerr
			}
		}
		result := make([]resp.Value, n)
		copy(result, values)
		resultErrs := make([]error, n)
		copy(resultErrs, errs)
		mu.Unlock()
		return result, resultErrs
	case <-done:
		return values, errs
	}
}

func classifyCtxErr(ctx context.Context) error {
	return ErrTimeout.Wrap(ctx.Err(), "request cancelled")
}
