package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Checksum computes the xxHash64 of a state payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Bucket maps key onto one of n buckets. n must be positive.
func Bucket(key string, n int) int {
	return int(ID(key) % uint64(n))
}
