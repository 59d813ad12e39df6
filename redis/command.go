package redis

import (
	"context"
	"errors"

	"github.com/kvstream/rediswire/resp"
)

// InputEncoder turns a typed argument value into the ordered bulk-string
// arguments that follow the verb on the wire (spec.md §4.1's Input encoder
// inventory). Composable encoders (Optional, Varargs, TupleN, ...) live in
// input.go and are built by returning functions of this same shape.
type InputEncoder[T any] func(in T) [][]byte

// OutputDecoder maps a decoded resp.Value to a typed reply, or raises a
// classified error (spec.md §4.1's Output decoder inventory, §7).
type OutputDecoder[T any] func(v resp.Value) (T, error)

// Command is the descriptor of spec.md §4.2: "A descriptor binds a verb, an
// Input encoder, and an Output decoder." It is a pure value — it carries no
// connection state, so the same Command can be run against any Sender.
type Command[In, Out any] struct {
	Verb   string
	Encode InputEncoder[In]
	Decode OutputDecoder[Out]
}

// NewCommand builds a Command descriptor.
func NewCommand[In, Out any](verb string, enc InputEncoder[In], dec OutputDecoder[Out]) Command[In, Out] {
	return Command[In, Out]{Verb: verb, Encode: enc, Decode: dec}
}

// Run executes the command against s: encode in to an array of bulk
// strings, prepend the verb tokens, call the executor, then decode the
// reply — short-circuiting on a server error reply, which is always
// rethrown as the classified error (spec.md §4.2, §7).
func (c Command[In, Out]) Run(ctx context.Context, s Sender, in In) (Out, error) {
	var zero Out
	var args [][]byte
	if c.Encode != nil {
		args = c.Encode(in)
	}
	v, err := ExecuteSync(ctx, s, Req(c.Verb, args...))
	if err != nil {
		return zero, err
	}
	if v.IsError() {
		return zero, ClassifyReplyError(v.Str)
	}
	out, err := c.Decode(v)
	var cerr *CodecError
	if errors.As(err, &cerr) {
		return zero, ErrCodec.Wrap(err, "decode %s reply", c.Verb)
	}
	return out, err
}
