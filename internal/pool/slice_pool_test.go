package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFloat64Slice(t *testing.T) {
	t.Run("returns slice with correct size", func(t *testing.T) {
		slice, cleanup := GetFloat64Slice(100)
		defer cleanup()

		require.Len(t, slice, 100)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("recycled slices are zeroed", func(t *testing.T) {
		slice, cleanup := GetFloat64Slice(16)
		for i := range slice {
			slice[i] = float64(i + 1)
		}
		cleanup()

		for range 10 {
			again, cleanupAgain := GetFloat64Slice(16)
			for _, v := range again {
				require.Zero(t, v)
			}
			cleanupAgain()
		}
	})

	t.Run("grows when capacity insufficient", func(t *testing.T) {
		_, cleanup1 := GetFloat64Slice(10)
		cleanup1()

		slice, cleanup2 := GetFloat64Slice(1000)
		defer cleanup2()

		require.Len(t, slice, 1000)
	})

	t.Run("zero size", func(t *testing.T) {
		slice, cleanup := GetFloat64Slice(0)
		defer cleanup()

		require.Empty(t, slice)
	})
}
