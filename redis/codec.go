package redis

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Codec is the pluggable serialization capability spec.md §6 describes as
// "a capability the caller injects; given a typed schema, returns a binary
// codec with encode: T → bytes and decode: bytes → T | codec-error". The
// core never hard-codes a serialization format (JSON, protobuf, msgpack...);
// callers supply one per typed command they build on Arbitrary[T].
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// CodecError wraps a Codec.Decode/Encode failure, classified as ErrCodec at
// the descriptor boundary per spec.md §7.
type CodecError struct {
	Cause error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %v", e.Cause)
}

func (e *CodecError) Unwrap() error { return e.Cause }

// FuncCodec adapts two plain functions to Codec, for callers who don't want
// to define a named type per schema.
type FuncCodec[T any] struct {
	EncodeFunc func(T) ([]byte, error)
	DecodeFunc func([]byte) (T, error)
}

func (c FuncCodec[T]) Encode(v T) ([]byte, error) { return c.EncodeFunc(v) }
func (c FuncCodec[T]) Decode(b []byte) (T, error)  { return c.DecodeFunc(b) }

// ErrChecksum is returned by a checksummedCodec when the trailing xxhash64
// sum doesn't match the payload that precedes it.
var ErrChecksum = fmt.Errorf("redis: codec checksum mismatch")

// WithChecksum wraps inner so every encoded value carries a trailing
// xxhash64 checksum over its payload, and Decode rejects a blob whose
// checksum doesn't match before handing the payload to inner.Decode. This
// is for callers storing Arbitrary[T] values where a flipped bit in transit
// or at rest should fail loudly instead of handed to inner's own decoder as
// silently-corrupt input.
func WithChecksum[T any](inner Codec[T]) Codec[T] {
	return checksummedCodec[T]{inner: inner}
}

type checksummedCodec[T any] struct {
	inner Codec[T]
}

func (c checksummedCodec[T]) Encode(v T) ([]byte, error) {
	payload, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	sum := xxhash.Sum64(payload)
	out := make([]byte, len(payload)+8)
	copy(out, payload)
	binary.LittleEndian.PutUint64(out[len(payload):], sum)
	return out, nil
}

func (c checksummedCodec[T]) Decode(b []byte) (T, error) {
	var zero T
	if len(b) < 8 {
		return zero, ErrChecksum
	}
	payload, want := b[:len(b)-8], binary.LittleEndian.Uint64(b[len(b)-8:])
	if xxhash.Sum64(payload) != want {
		return zero, ErrChecksum
	}
	return c.inner.Decode(payload)
}
