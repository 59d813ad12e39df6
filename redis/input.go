package redis

import (
	"strconv"
	"time"
)

// This file is the Input-encoder inventory of spec.md §4.1: "Recognized
// primitive encoders (each produces 0..n bulk strings)." Each encoder is a
// plain function from a typed value to the ordered bulk-string arguments it
// contributes, matching InputEncoder's shape so they compose directly as
// Command.Encode.

// String encodes a single bulk string argument.
func String(s string) [][]byte { return [][]byte{[]byte(s)} }

// Bytes encodes a single bulk string argument from raw bytes.
func Bytes(b []byte) [][]byte { return [][]byte{b} }

// EncodeLong encodes an integer as its decimal text form.
func EncodeLong(n int64) [][]byte { return [][]byte{[]byte(strconv.FormatInt(n, 10))} }

// EncodeDouble encodes a float as Redis expects scores/increments to be written:
// shortest round-trippable decimal form.
func EncodeDouble(f float64) [][]byte {
	return [][]byte{[]byte(strconv.FormatFloat(f, 'g', -1, 64))}
}

// InstantSeconds encodes a time.Time as a Unix-seconds timestamp argument
// (e.g. EXPIREAT).
func InstantSeconds(t time.Time) [][]byte { return EncodeLong(t.Unix()) }

// InstantMillis encodes a time.Time as a Unix-milliseconds timestamp
// argument (e.g. PEXPIREAT).
func InstantMillis(t time.Time) [][]byte { return EncodeLong(t.UnixMilli()) }

// DurationSeconds encodes a time.Duration truncated to whole seconds (e.g.
// EXPIRE).
func DurationSeconds(d time.Duration) [][]byte { return EncodeLong(int64(d / time.Second)) }

// DurationMillis encodes a time.Duration in whole milliseconds (e.g.
// PEXPIRE).
func DurationMillis(d time.Duration) [][]byte { return EncodeLong(int64(d / time.Millisecond)) }

// Pattern encodes a glob pattern argument (e.g. KEYS, SCAN MATCH) — it is
// passed through verbatim, Redis interprets the glob server-side.
func Pattern(p string) [][]byte { return String(p) }

// Literal flag encoders: each produces its fixed token unconditionally.
// Callers gate emission with Optional/a plain bool check, matching
// spec.md §4.1's "Literal flag inputs (produce a fixed token when
// present)".
func literal(token string) func() [][]byte {
	return func() [][]byte { return [][]byte{[]byte(token)} }
}

var (
	FlagWithScores = literal("WITHSCORES")
	FlagCH         = literal("CH")
	FlagXX         = literal("XX")
	FlagNX         = literal("NX")
	FlagGT         = literal("GT")
	FlagLT         = literal("LT")
	FlagINCR       = literal("INCR")
	FlagCopy       = literal("COPY")
	FlagReplace    = literal("REPLACE")
	FlagABSTTL     = literal("ABSTTL")
	FlagWithCoord  = literal("WITHCOORD")
	FlagWithDist   = literal("WITHDIST")
	FlagWithHash   = literal("WITHHASH")
	FlagMKStream   = literal("MKSTREAM")
	FlagForce      = literal("FORCE")
	FlagJustID     = literal("JUSTID")
	FlagNoAck      = literal("NOACK")
	FlagGet        = literal("GET")
	FlagAsc        = literal("ASC")
	FlagDesc       = literal("DESC")
	FlagAlpha      = literal("ALPHA")
)

// IdleTime encodes the RESTORE IDLETIME option.
func IdleTime(ms int64) [][]byte { return append([][]byte{[]byte("IDLETIME")}, []byte(strconv.FormatInt(ms, 10))) }

// Freq encodes the RESTORE FREQ option.
func Freq(n int64) [][]byte { return append([][]byte{[]byte("FREQ")}, []byte(strconv.FormatInt(n, 10))) }

// Count encodes a COUNT option (SCAN family, SRANDMEMBER, ...).
func Count(n int64) [][]byte { return append([][]byte{[]byte("COUNT")}, []byte(strconv.FormatInt(n, 10))) }

// Match encodes a MATCH option (SCAN family).
func Match(pattern string) [][]byte { return append([][]byte{[]byte("MATCH")}, []byte(pattern)) }

// Aggregate encodes the ZUNIONSTORE/ZINTERSTORE AGGREGATE {SUM|MIN|MAX}
// option.
type AggregateMode string

const (
	AggregateSum AggregateMode = "SUM"
	AggregateMin AggregateMode = "MIN"
	AggregateMax AggregateMode = "MAX"
)

func Aggregate(mode AggregateMode) [][]byte {
	return [][]byte{[]byte("AGGREGATE"), []byte(mode)}
}

// Weights encodes the ZUNIONSTORE/ZINTERSTORE WEIGHTS option.
func Weights(ws []float64) [][]byte {
	out := make([][]byte, 0, len(ws)+1)
	out = append(out, []byte("WEIGHTS"))
	for _, w := range ws {
		out = append(out, []byte(strconv.FormatFloat(w, 'g', -1, 64)))
	}
	return out
}

// Limit encodes the LIMIT offset count option.
func Limit(offset, count int64) [][]byte {
	return [][]byte{
		[]byte("LIMIT"),
		[]byte(strconv.FormatInt(offset, 10)),
		[]byte(strconv.FormatInt(count, 10)),
	}
}

// Store encodes the STORE key option (SORT, GEORADIUS).
func Store(key string) [][]byte { return [][]byte{[]byte("STORE"), []byte(key)} }

// StoreDist encodes the STOREDIST key option (GEORADIUS).
func StoreDist(key string) [][]byte { return [][]byte{[]byte("STOREDIST"), []byte(key)} }

// By encodes the SORT BY pattern option.
func By(pattern string) [][]byte { return [][]byte{[]byte("BY"), []byte(pattern)} }

// RangeBound encodes a ZRANGEBYSCORE/ZRANGEBYLEX range endpoint: "-inf",
// "+inf", "(x" (exclusive), "[x" (lex inclusive), or a plain numeric score.
type RangeBound string

func (b RangeBound) Bytes() []byte { return []byte(b) }

const (
	RangeNegInf = RangeBound("-inf")
	RangePosInf = RangeBound("+inf")
)

// Exclusive builds an exclusive score-range bound "(x".
func Exclusive(score float64) RangeBound {
	return RangeBound("(" + strconv.FormatFloat(score, 'g', -1, 64))
}

// LexInclusive builds an inclusive lex-range bound "[x".
func LexInclusive(member string) RangeBound { return RangeBound("[" + member) }

// LexExclusive builds an exclusive lex-range bound "(x".
func LexExclusive(member string) RangeBound { return RangeBound("(" + member) }

// EncodeOptional encodes inner(v) if present is true, else emits nothing —
// spec.md §4.1's Optional(encoder) composite.
func EncodeOptional[T any](present bool, v T, inner InputEncoder[T]) [][]byte {
	if !present {
		return nil
	}
	return inner(v)
}

// NonEmptyList encodes every element of vs with inner, concatenated. Per
// spec.md §4.1 it "emits at least one" — callers are expected not to invoke
// a NonEmptyList-backed command with an empty slice; this encoder does not
// itself enforce that (enforcement belongs to the command wrapper, which is
// out of scope per spec.md §1).
func NonEmptyList[T any](vs []T, inner InputEncoder[T]) [][]byte {
	return Varargs(vs, inner)
}

// Varargs encodes every element of vs with inner, concatenated in order.
func Varargs[T any](vs []T, inner InputEncoder[T]) [][]byte {
	out := make([][]byte, 0, len(vs))
	for _, v := range vs {
		out = append(out, inner(v)...)
	}
	return out
}

// Tuple2 concatenates the encodings of a and b in order — spec.md §4.1's
// TupleN(encoder₁…encoderₙ).
func Tuple2[A, B any](a A, encA InputEncoder[A], b B, encB InputEncoder[B]) [][]byte {
	return append(encA(a), encB(b)...)
}

// Tuple3 is Tuple2 for three components.
func Tuple3[A, B, C any](a A, encA InputEncoder[A], b B, encB InputEncoder[B], c C, encC InputEncoder[C]) [][]byte {
	out := encA(a)
	out = append(out, encB(b)...)
	out = append(out, encC(c)...)
	return out
}

// ScoreMember is the ZADD score/member pair, emitted score then member per
// spec.md §4.1's documented order.
type ScoreMember struct {
	Score  float64
	Member string
}

func EncodeScoreMember(sm ScoreMember) [][]byte {
	return [][]byte{
		[]byte(strconv.FormatFloat(sm.Score, 'g', -1, 64)),
		[]byte(sm.Member),
	}
}

// LonLat is the GEOADD longitude/latitude pair.
type LonLat struct {
	Lon, Lat float64
}

func EncodeLonLat(ll LonLat) [][]byte {
	return [][]byte{
		[]byte(strconv.FormatFloat(ll.Lon, 'g', -1, 64)),
		[]byte(strconv.FormatFloat(ll.Lat, 'g', -1, 64)),
	}
}

// StreamField is one XADD field/value pair of an entry; Redis wants an
// entry's pairs flattened field,value,field,value....
type StreamField struct {
	Field, Value string
}

func EncodeStreamField(f StreamField) [][]byte {
	return [][]byte{[]byte(f.Field), []byte(f.Value)}
}

// EncodeArbitrary encodes v through a Codec, the supplier capability of spec.md
// §6 ("a capability the caller injects"). Returns a CodecError, not a
// panic, on encode failure — the caller must check err before using the
// returned args in a Command.Encode.
func EncodeArbitrary[T any](c Codec[T], v T) ([][]byte, error) {
	b, err := c.Encode(v)
	if err != nil {
		return nil, &CodecError{Cause: err}
	}
	return [][]byte{b}, nil
}
