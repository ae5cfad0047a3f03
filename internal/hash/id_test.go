package hash

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestChecksumMatchesID(t *testing.T) {
	require.Equal(t, ID("partition-7"), Checksum([]byte("partition-7")))
	require.NotEqual(t, Checksum([]byte{1, 2, 3}), Checksum([]byte{1, 2, 4}))
}

func TestBucket(t *testing.T) {
	counts := make([]int, 8)
	for i := range 8000 {
		b := Bucket("row-"+strconv.Itoa(i), 8)
		require.GreaterOrEqual(t, b, 0)
		require.Less(t, b, 8)
		counts[b]++
	}

	for i, c := range counts {
		assert.Greater(t, c, 700, "bucket %d underfilled", i)
	}

	require.Equal(t, Bucket("same", 5), Bucket("same", 5))
}

func BenchmarkChecksum(b *testing.B) {
	payload := make([]byte, 8*64)
	b.ResetTimer()
	for b.Loop() {
		Checksum(payload)
	}
}
