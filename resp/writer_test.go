package resp_test

import (
	"testing"

	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/assert"
)

func TestEncodeSimple(t *testing.T) {
	assert.Equal(t, "+OK\r\n", string(resp.Encode(nil, resp.SimpleString("OK"))))
	assert.Equal(t, "-ERR bad\r\n", string(resp.Encode(nil, resp.Err("ERR bad"))))
	assert.Equal(t, ":123\r\n", string(resp.Encode(nil, resp.Integer(123))))
	assert.Equal(t, ":-5\r\n", string(resp.Encode(nil, resp.Integer(-5))))
	assert.Equal(t, "$3\r\nfoo\r\n", string(resp.Encode(nil, resp.BulkStringFrom("foo"))))
	assert.Equal(t, "$0\r\n\r\n", string(resp.Encode(nil, resp.BulkString([]byte{}))))
	assert.Equal(t, "$-1\r\n", string(resp.Encode(nil, resp.NullBulkString())))
	assert.Equal(t, "*-1\r\n", string(resp.Encode(nil, resp.NullArray())))
	assert.Equal(t, "*0\r\n", string(resp.Encode(nil, resp.Array())))
}

func TestEncodeCommand(t *testing.T) {
	got := resp.EncodeCommand(nil, "SET", [][]byte{[]byte("foo"), []byte("bar")})
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", string(got))
}

func TestEncodeCommandMultiWordVerb(t *testing.T) {
	got := resp.EncodeCommand(nil, "CLUSTER SLOTS", nil)
	assert.Equal(t, "*2\r\n$7\r\nCLUSTER\r\n$5\r\nSLOTS\r\n", string(got))
}
