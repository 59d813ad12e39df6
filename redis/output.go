package redis

import (
	"math"
	"strconv"

	"github.com/kvstream/rediswire/resp"
)

// This file is the Output-decoder inventory of spec.md §4.1: "Each decoder
// maps RespValue → typed result, or raises a classified error." Decoders
// never see a server error reply (Command.Run short-circuits on
// v.IsError() before calling Decode) — a decoder only has to reject shapes
// that don't match what it expects, which it does by returning
// ErrProtocol.

// protoErr builds the ErrProtocol used throughout this file's decoders.
func protoErr(format string, args ...any) error {
	return ErrProtocol.New(format, args...)
}

// Unit decodes a +OK reply to no value.
func Unit(v resp.Value) (struct{}, error) {
	if v.Type == resp.TypeSimpleString && v.Str == "OK" {
		return struct{}{}, nil
	}
	return struct{}{}, protoErr("expected +OK, got %s", v.Type)
}

// Reset decodes a +RESET reply to no value (HELLO/RESET).
func Reset(v resp.Value) (struct{}, error) {
	if v.Type == resp.TypeSimpleString && v.Str == "RESET" {
		return struct{}{}, nil
	}
	return struct{}{}, protoErr("expected +RESET, got %s", v.Type)
}

// Bool decodes :0/:1 to false/true.
func Bool(v resp.Value) (bool, error) {
	if v.Type != resp.TypeInteger {
		return false, protoErr("expected integer, got %s", v.Type)
	}
	switch v.Int {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, protoErr("expected 0 or 1, got %d", v.Int)
	}
}

// Long decodes :n to n.
func Long(v resp.Value) (int64, error) {
	if v.Type != resp.TypeInteger {
		return 0, protoErr("expected integer, got %s", v.Type)
	}
	return v.Int, nil
}

// Double decodes a bulk string holding a decimal float.
func Double(v resp.Value) (float64, error) {
	if v.Type != resp.TypeBulkString {
		return 0, protoErr("expected bulk string, got %s", v.Type)
	}
	f, err := strconv.ParseFloat(string(v.Bulk), 64)
	if err != nil {
		return 0, protoErr("non-numeric double %q", v.Bulk)
	}
	return f, nil
}

// DoubleOrInfinity decodes a bulk string float that may also be the literal
// "inf"/"+inf"/"-inf" tokens Redis uses for ZINCRBY overflow and similar.
func DoubleOrInfinity(v resp.Value) (float64, error) {
	if v.Type != resp.TypeBulkString {
		return 0, protoErr("expected bulk string, got %s", v.Type)
	}
	switch string(v.Bulk) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return Double(v)
}

// BulkString decodes a bulk string's raw bytes. Never called on a null bulk
// string directly — use Optional(BulkString) for commands whose reply may
// be absent.
func BulkString(v resp.Value) ([]byte, error) {
	if v.Type != resp.TypeBulkString {
		return nil, protoErr("expected bulk string, got %s", v.Type)
	}
	return v.Bulk, nil
}

// MultiString decodes a bulk string as UTF-8 text.
func MultiString(v resp.Value) (string, error) {
	b, err := BulkString(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Arbitrary decodes a bulk string through a Codec, the supplier capability
// of spec.md §6.
func Arbitrary[T any](c Codec[T]) OutputDecoder[T] {
	return func(v resp.Value) (T, error) {
		var zero T
		b, err := BulkString(v)
		if err != nil {
			return zero, err
		}
		t, err := c.Decode(b)
		if err != nil {
			return zero, &CodecError{Cause: err}
		}
		return t, nil
	}
}

// OptionalDecoded wraps inner so a null bulk/null array reply decodes to
// (zero, false, nil) instead of invoking inner at all — spec.md §4.1's
// Optional<T> output decoder.
func OptionalDecoded[T any](inner OutputDecoder[T]) OutputDecoder[Optional[T]] {
	return func(v resp.Value) (Optional[T], error) {
		if v.IsNull() {
			return Optional[T]{}, nil
		}
		t, err := inner(v)
		if err != nil {
			return Optional[T]{}, err
		}
		return Optional[T]{Value: t, Present: true}, nil
	}
}

// Optional is the decoded result of OptionalDecoded: Present is false for
// a null bulk string / null array reply.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Chunk decodes a null array to an empty slice, or maps inner over every
// array element — spec.md §4.1's Chunk<T>.
func Chunk[T any](inner OutputDecoder[T]) OutputDecoder[[]T] {
	return func(v resp.Value) ([]T, error) {
		if v.Type == resp.TypeNullArray {
			return nil, nil
		}
		if v.Type != resp.TypeArray {
			return nil, protoErr("expected array, got %s", v.Type)
		}
		out := make([]T, len(v.Array))
		for i, elem := range v.Array {
			t, err := inner(elem)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}
}

// KeyValue is one decoded (key, value) pair, as produced by ChunkTuple2 and
// KeyValueMap.
type KeyValue[K, V any] struct {
	Key   K
	Value V
}

// ChunkTuple2 decodes an array of even length as consecutive (key, value)
// pairs — spec.md §4.1's ChunkTuple2.
func ChunkTuple2[K, V any](keyDec OutputDecoder[K], valDec OutputDecoder[V]) OutputDecoder[[]KeyValue[K, V]] {
	return func(v resp.Value) ([]KeyValue[K, V], error) {
		if v.Type != resp.TypeArray {
			return nil, protoErr("expected array, got %s", v.Type)
		}
		if len(v.Array)%2 != 0 {
			return nil, protoErr("expected even-length array, got %d elements", len(v.Array))
		}
		out := make([]KeyValue[K, V], 0, len(v.Array)/2)
		for i := 0; i < len(v.Array); i += 2 {
			k, err := keyDec(v.Array[i])
			if err != nil {
				return nil, err
			}
			val, err := valDec(v.Array[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, KeyValue[K, V]{Key: k, Value: val})
		}
		return out, nil
	}
}

// KeyValueMap decodes an array of even length directly into a map —
// spec.md §4.1's KeyValue<K,V>. K must be a comparable decoded type
// (string, int64, ...).
func KeyValueMap[K comparable, V any](keyDec OutputDecoder[K], valDec OutputDecoder[V]) OutputDecoder[map[K]V] {
	return func(v resp.Value) (map[K]V, error) {
		if v.Type != resp.TypeArray {
			return nil, protoErr("expected array, got %s", v.Type)
		}
		if len(v.Array)%2 != 0 {
			return nil, protoErr("expected even-length array, got %d elements", len(v.Array))
		}
		out := make(map[K]V, len(v.Array)/2)
		for i := 0; i < len(v.Array); i += 2 {
			k, err := keyDec(v.Array[i])
			if err != nil {
				return nil, err
			}
			val, err := valDec(v.Array[i+1])
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	}
}

// DurationUnit selects the scale Duration multiplies :n by: the number of
// milliseconds in one unit of the reply.
type DurationUnit int64

const (
	DurationSecondsUnit DurationUnit = 1000
	DurationMillisUnit  DurationUnit = 1
)

// Duration decodes TTL/PTTL-style replies into milliseconds: :-1 means no
// expiry (returned as -1), :-2 means
// the key doesn't exist (surfaced as ErrProtocol per spec.md §4.1's table
// rather than a third sentinel type, since no command in this module's
// surface needs to distinguish "no TTL" success from "missing key" without
// also checking EXISTS first).
func Duration(unit DurationUnit) OutputDecoder[int64] {
	return func(v resp.Value) (int64, error) {
		n, err := Long(v)
		if err != nil {
			return 0, err
		}
		switch n {
		case -1:
			return -1, nil
		case -2:
			return 0, protoErr("key does not exist")
		default:
			return n * int64(unit), nil
		}
	}
}

// ScanReply is the (cursor, items) pair decoded by Scan.
type ScanReply[T any] struct {
	Cursor string
	Items  []T
}

// Scan decodes the two-element [cursor-bulk, items-array] shape shared by
// SCAN, HSCAN, SSCAN, ZSCAN.
func Scan[T any](inner OutputDecoder[T]) OutputDecoder[ScanReply[T]] {
	return func(v resp.Value) (ScanReply[T], error) {
		if v.Type != resp.TypeArray || len(v.Array) != 2 {
			return ScanReply[T]{}, protoErr("expected 2-element array, got %s", v.Type)
		}
		cursor, err := MultiString(v.Array[0])
		if err != nil {
			return ScanReply[T]{}, err
		}
		items, err := Chunk(inner)(v.Array[1])
		if err != nil {
			return ScanReply[T]{}, err
		}
		return ScanReply[T]{Cursor: cursor, Items: items}, nil
	}
}

// Set decodes the SET command's reply: null bulk (NX/XX condition not met)
// → false, simple string +OK → true.
func Set(v resp.Value) (bool, error) {
	switch v.Type {
	case resp.TypeNullBulkString:
		return false, nil
	case resp.TypeSimpleString:
		return true, nil
	default:
		return false, protoErr("expected +OK or $-1, got %s", v.Type)
	}
}

// KeyType is the decoded enum of the TYPE command.
type KeyType int

const (
	TypeNone KeyType = iota
	TypeString
	TypeList
	TypeSet
	TypeZSet
	TypeHash
	TypeStream
)

var keyTypeNames = map[string]KeyType{
	"none":   TypeNone,
	"string": TypeString,
	"list":   TypeList,
	"set":    TypeSet,
	"zset":   TypeZSet,
	"hash":   TypeHash,
	"stream": TypeStream,
}

// Type decodes the +string/+list/... reply of the TYPE command.
func Type(v resp.Value) (KeyType, error) {
	if v.Type != resp.TypeSimpleString {
		return TypeNone, protoErr("expected simple string, got %s", v.Type)
	}
	kt, ok := keyTypeNames[v.Str]
	if !ok {
		return TypeNone, protoErr("unknown key type %q", v.Str)
	}
	return kt, nil
}
