package rediscluster_test

import (
	"testing"

	"github.com/kvstream/rediswire/rediscluster"
	"github.com/stretchr/testify/assert"
)

// Testable property 6 (slot computation) from spec.md §8.
func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x31c3), rediscluster.CRC16([]byte("123456789")))
}

func TestSlotModulo(t *testing.T) {
	slot := rediscluster.Slot("123456789")
	assert.Equal(t, uint16(0x31c3%rediscluster.NumSlots), slot)
	assert.Less(t, slot, uint16(rediscluster.NumSlots))
}

func TestHashTag(t *testing.T) {
	assert.Equal(t, "user1000", rediscluster.HashTag("{user1000}.following"))
	assert.Equal(t, "plainkey", rediscluster.HashTag("plainkey"))
	assert.Equal(t, "{}empty", rediscluster.HashTag("{}empty"))
	assert.Equal(t, "no}open{brace", rediscluster.HashTag("no}open{brace"))
}

func TestSlotSameHashTagSameSlot(t *testing.T) {
	a := rediscluster.Slot("{user1000}.following")
	b := rediscluster.Slot("{user1000}.followers")
	assert.Equal(t, a, b)
}
