package redis_test

import (
	"strings"
	"testing"

	"github.com/kvstream/rediswire/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperCaseCodec struct{}

func (upperCaseCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }
func (upperCaseCodec) Decode(b []byte) (string, error) { return strings.ToUpper(string(b)), nil }

func TestWithChecksumRoundTrip(t *testing.T) {
	codec := redis.WithChecksum[string](upperCaseCodec{})

	b, err := codec.Encode("hello")
	require.NoError(t, err)

	v, err := codec.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", v)
}

func TestWithChecksumRejectsCorruption(t *testing.T) {
	codec := redis.WithChecksum[string](upperCaseCodec{})

	b, err := codec.Encode("hello")
	require.NoError(t, err)

	b[0] ^= 0xff // flip a payload bit without touching the trailing sum
	_, err = codec.Decode(b)
	assert.ErrorIs(t, err, redis.ErrChecksum)
}

func TestWithChecksumRejectsShortInput(t *testing.T) {
	codec := redis.WithChecksum[string](upperCaseCodec{})
	_, err := codec.Decode([]byte("short"))
	assert.ErrorIs(t, err, redis.ErrChecksum)
}
