package redis_test

import (
	"testing"

	"github.com/kvstream/rediswire/redis"
	"github.com/kvstream/rediswire/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario D from spec.md §8: XINFO STREAM fields arrive in a different
// order than the documented field list, and with an unknown field mixed
// in; StreamInfoDecoder must still yield the correct record by matching on
// key name rather than position.
func TestStreamInfoDecoderFieldReorder(t *testing.T) {
	reply := resp.Array(
		resp.BulkStringFrom("groups"), resp.Integer(2),
		resp.BulkStringFrom("last-generated-id"), resp.BulkStringFrom("5-0"),
		resp.BulkStringFrom("some-future-field"), resp.BulkStringFrom("ignored"),
		resp.BulkStringFrom("length"), resp.Integer(7),
		resp.BulkStringFrom("radix-tree-nodes"), resp.Integer(2),
		resp.BulkStringFrom("radix-tree-keys"), resp.Integer(1),
		resp.BulkStringFrom("entries-added"), resp.Integer(9),
		resp.BulkStringFrom("max-deleted-entry-id"), resp.BulkStringFrom("0-0"),
	)

	info, err := redis.StreamInfoDecoder(reply)
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Length)
	assert.Equal(t, int64(1), info.RadixTreeKeys)
	assert.Equal(t, int64(2), info.RadixTreeNodes)
	assert.Equal(t, int64(2), info.Groups)
	assert.Equal(t, "5-0", info.LastGeneratedID)
	assert.Equal(t, "0-0", info.MaxDeletedEntryID)
	assert.Equal(t, int64(9), info.EntriesAdded)
	assert.Nil(t, info.FirstEntry)
	assert.Nil(t, info.LastEntry)
}

// A missing field keeps its zero value instead of erroring.
func TestStreamInfoDecoderMissingFieldsAreZero(t *testing.T) {
	reply := resp.Array(
		resp.BulkStringFrom("length"), resp.Integer(3),
	)

	info, err := redis.StreamInfoDecoder(reply)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Length)
	assert.Equal(t, int64(0), info.Groups)
	assert.Equal(t, "", info.LastGeneratedID)
}

// first-entry/last-entry decode into nested StreamEntry records, field
// order still independent of position.
func TestStreamInfoDecoderWithEntries(t *testing.T) {
	entry := resp.Array(
		resp.BulkStringFrom("1-0"),
		resp.Array(resp.BulkStringFrom("field1"), resp.BulkStringFrom("value1")),
	)
	reply := resp.Array(
		resp.BulkStringFrom("last-entry"), entry,
		resp.BulkStringFrom("length"), resp.Integer(1),
		resp.BulkStringFrom("first-entry"), entry,
	)

	info, err := redis.StreamInfoDecoder(reply)
	require.NoError(t, err)
	require.NotNil(t, info.FirstEntry)
	require.NotNil(t, info.LastEntry)
	assert.Equal(t, "1-0", info.FirstEntry.ID)
	assert.Equal(t, []redis.StreamField{{Field: "field1", Value: "value1"}}, info.FirstEntry.Fields)
}
