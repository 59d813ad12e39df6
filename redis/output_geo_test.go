package redis_test

import (
	"testing"

	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoRadiusDecoderWithAllFields(t *testing.T) {
	decoder := redis.GeoRadiusDecoder(true, true, true)
	reply := resp.Array(
		resp.Array(
			resp.BulkStringFrom("Palermo"),
			resp.BulkStringFrom("190.4424"),
			resp.Integer(3479447370796909),
			resp.Array(resp.BulkStringFrom("13.361389"), resp.BulkStringFrom("38.115556")),
		),
	)

	out, err := decoder(reply)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Palermo", out[0].Member)
	assert.True(t, out[0].HasDist)
	assert.True(t, out[0].HasHash)
	require.NotNil(t, out[0].Position)
}

// A nested element missing its WITHHASH/WITHCOORD fields must fail decode
// rather than index past the end of the array.
func TestGeoRadiusDecoderShortElementErrors(t *testing.T) {
	decoder := redis.GeoRadiusDecoder(true, true, true)
	reply := resp.Array(
		resp.Array(
			resp.BulkStringFrom("Palermo"),
			resp.BulkStringFrom("190.4424"),
		),
	)

	_, err := decoder(reply)
	assert.Error(t, err)
}
