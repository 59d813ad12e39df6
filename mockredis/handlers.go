package mockredis

import (
	"strconv"
	"sync"

	"github.com/kvstream/rediswire/resp"
)

// KVStore is a tiny in-memory string store backing a realistic-enough
// Handler for GET/SET/DEL/INCR/PING/LPUSH-against-string-key (WRONGTYPE)
// scenarios (spec.md §8 scenarios A, B, F).
type KVStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewKVStore builds an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: map[string]string{}}
}

// Handler returns a Handler backed by the store.
func (s *KVStore) Handler() Handler {
	return func(verb string, args [][]byte) resp.Value {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch verb {
		case "PING":
			return resp.SimpleString("PONG")
		case "SET":
			if len(args) < 2 {
				return resp.Err("ERR wrong number of arguments for 'set' command")
			}
			s.data[string(args[0])] = string(args[1])
			return resp.SimpleString("OK")
		case "GET":
			if len(args) < 1 {
				return resp.Err("ERR wrong number of arguments for 'get' command")
			}
			v, ok := s.data[string(args[0])]
			if !ok {
				return resp.NullBulkString()
			}
			return resp.BulkStringFrom(v)
		case "DEL":
			var n int64
			for _, a := range args {
				if _, ok := s.data[string(a)]; ok {
					delete(s.data, string(a))
					n++
				}
			}
			return resp.Integer(n)
		case "INCR":
			if len(args) < 1 {
				return resp.Err("ERR wrong number of arguments for 'incr' command")
			}
			key := string(args[0])
			n, _ := strconv.ParseInt(s.data[key], 10, 64)
			n++
			s.data[key] = strconv.FormatInt(n, 10)
			return resp.Integer(n)
		case "LPUSH":
			// every key in this store is a string; LPUSH against one is
			// always a type error, which is all scenario F needs.
			return resp.Err("WRONGTYPE Operation against a key holding the wrong kind of value")
		default:
			return resp.Err("ERR unknown command '" + verb + "'")
		}
	}
}

// Scripted replies a fixed sequence of resp.Values in order, ignoring the
// request content entirely — spec.md §8 scenario C ("pipeline order") and
// test 4 ("FIFO matching") only care that replies come back in the order
// requests were received, not what they say.
type Scripted struct {
	mu      sync.Mutex
	replies []resp.Value
	next    int
}

// NewScripted builds a Scripted handler that replies with replies[i] to
// the i-th request it receives, in arrival order.
func NewScripted(replies ...resp.Value) *Scripted {
	return &Scripted{replies: replies}
}

// Handler returns the Handler function. PING is answered with +PONG
// directly, since every Connection performs one as part of its connection
// setup handshake before any scripted traffic is sent; only non-PING
// commands consume a scripted reply. Requests beyond len(replies) get a
// generic +OK.
func (s *Scripted) Handler() Handler {
	return func(verb string, _ [][]byte) resp.Value {
		if verb == "PING" {
			return resp.SimpleString("PONG")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.next >= len(s.replies) {
			return resp.SimpleString("OK")
		}
		v := s.replies[s.next]
		s.next++
		return v
	}
}
