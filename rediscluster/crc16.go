package rediscluster

import "strings"

// NumSlots is the size of the cluster's slot space (spec.md §3: "integer
// in [0, 16384)").
const NumSlots = 1 << 14

// CRC16 computes the CRC-16/XMODEM checksum of data: polynomial 0x1021,
// initial value 0, no input/output reflection. This is the checksum
// variant Redis Cluster's key-hashing algorithm is defined over; the
// documented test vector is CRC16("123456789") == 0x31C3 (spec.md §8 test
// 6), which this bit-by-bit implementation reproduces without needing a
// precomputed table.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// HashTag extracts the substring Redis Cluster hashes in place of the
// whole key, per spec.md §3: "if the key contains a substring {tag} where
// tag is non-empty, only tag is hashed." Returns key unchanged if no
// non-empty {...} tag is present.
func HashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end < 0 {
		return key
	}
	tag := key[start+1 : start+1+end]
	if tag == "" {
		return key
	}
	return tag
}

// Slot computes the cluster slot a key routes to: CRC16/XMODEM of
// HashTag(key), modulo NumSlots (spec.md §3).
func Slot(key string) uint16 {
	return uint16(CRC16([]byte(HashTag(key))) % NumSlots)
}
