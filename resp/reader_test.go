package resp_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns at most chunk bytes per Read call, to exercise the
// decoder's resumability (property 2 in spec.md §8).
type chunkReader struct {
	buf   []byte
	chunk int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.buf) == 0 {
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.buf) {
		n = len(c.buf)
	}
	copy(p, c.buf[:n])
	c.buf = c.buf[n:]
	return n, nil
}

func roundTrip(t *testing.T, v resp.Value) {
	t.Helper()
	buf := resp.Encode(nil, v)
	d := resp.NewDecoder(bytes.NewReader(buf))
	got, err := d.Decode()
	require.NoError(t, err)
	assert.True(t, v.Equal(got), "roundtrip mismatch: want %+v got %+v", v, got)
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, resp.SimpleString("OK"))
	roundTrip(t, resp.Err("WRONGTYPE Operation against a key holding the wrong kind of value"))
	roundTrip(t, resp.Integer(0))
	roundTrip(t, resp.Integer(-9223372036854775))
	roundTrip(t, resp.BulkStringFrom("bar"))
	roundTrip(t, resp.BulkString([]byte{}))
	roundTrip(t, resp.NullBulkString())
	roundTrip(t, resp.NullArray())
	roundTrip(t, resp.Array())
	roundTrip(t, resp.Array(resp.Integer(1), resp.Integer(2), resp.Integer(3)))
	roundTrip(t, resp.Array(resp.BulkStringFrom("a"), resp.NullBulkString(), resp.Array(resp.Integer(1))))
}

// TestNullVariantsDistinct asserts that NullBulkString/NullArray survive the
// round trip distinctly from an empty bulk string / empty array, as required
// by spec.md §8 property 1.
func TestNullVariantsDistinct(t *testing.T) {
	assert.False(t, resp.NullBulkString().Equal(resp.BulkString([]byte{})))
	assert.False(t, resp.NullArray().Equal(resp.Array()))
}

func TestStreamingArbitraryChunking(t *testing.T) {
	v := resp.Array(
		resp.BulkStringFrom("SET"),
		resp.BulkStringFrom("foo"),
		resp.BulkStringFrom("bar"),
	)
	full := resp.Encode(nil, v)
	for chunk := 1; chunk <= len(full); chunk++ {
		d := resp.NewDecoder(&chunkReader{buf: append([]byte{}, full...), chunk: chunk})
		got, err := d.Decode()
		require.NoError(t, err, "chunk size %d", chunk)
		assert.True(t, v.Equal(got), "chunk size %d", chunk)
	}
}

func TestMultipleValuesInOneSegment(t *testing.T) {
	var buf []byte
	buf = resp.Encode(buf, resp.Integer(1))
	buf = resp.Encode(buf, resp.Integer(2))
	buf = resp.Encode(buf, resp.Integer(3))

	d := resp.NewDecoder(bytes.NewReader(buf))
	for i := int64(1); i <= 3; i++ {
		v, err := d.Decode()
		require.NoError(t, err)
		assert.Equal(t, resp.Integer(i), v)
	}
}

func TestProtocolErrors(t *testing.T) {
	cases := []string{
		"$abc\r\nxx\r\n",
		"*abc\r\n",
		"$3\r\nfooXX",
		"?OK\r\n",
		":notanumber\r\n",
	}
	for _, c := range cases {
		d := resp.NewDecoder(bytes.NewReader([]byte(c)))
		_, err := d.Decode()
		require.Error(t, err, "input %q", c)
		var perr *resp.ProtocolError
		assert.ErrorAs(t, err, &perr, "input %q", c)
	}
}

func TestDecodeEOF(t *testing.T) {
	d := resp.NewDecoder(bytes.NewReader(nil))
	_, err := d.Decode()
	assert.ErrorIs(t, err, io.EOF)
}
