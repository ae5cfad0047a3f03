package pool

import "sync"

// float64SlicePool recycles the scratch and state buffers handed out by alloc.Arena.
var float64SlicePool = sync.Pool{
	New: func() any { return &[]float64{} },
}

// GetFloat64Slice retrieves a zeroed float64 slice of exactly size elements from the pool.
//
// If the pooled slice has insufficient capacity, a new slice is allocated.
// The caller must call the returned cleanup function exactly once to return the
// slice to the pool, and must not touch the slice afterwards.
//
// Parameters:
//   - size: The desired length of the slice
//
// Returns:
//   - []float64: A zeroed slice with length equal to size
//   - func(): Cleanup function returning the slice to the pool
//
// Example:
//
//	xtx, cleanup := pool.GetFloat64Slice(p * p)
//	defer cleanup()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float64, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { float64SlicePool.Put(ptr) }
}
