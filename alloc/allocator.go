package alloc

import (
	"fmt"

	"github.com/arloliu/olsagg/errs"
)

// Allocator acquires and releases float64 buffers.
type Allocator interface {
	// Allocate returns a zeroed buffer of n elements, or an error wrapping
	// errs.ErrOutOfMemory when the request cannot be satisfied.
	Allocate(n int) ([]float64, error)
	// TryAllocate is the non-failing variant: it returns nil instead of an error.
	TryAllocate(n int) []float64
	// Release gives buf back. Releasing a buffer the allocator does not own is a no-op.
	Release(buf []float64)
}

// Heap allocates with make and never fails on budget. Release is a no-op.
type Heap struct{}

var _ Allocator = Heap{}

// Allocate returns a new zeroed slice of n elements.
func (Heap) Allocate(n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative allocation size %d", errs.ErrInvalidValue, n)
	}

	return make([]float64, n), nil
}

// TryAllocate returns a new zeroed slice of n elements, or nil if n is negative.
func (h Heap) TryAllocate(n int) []float64 {
	buf, err := h.Allocate(n)
	if err != nil {
		return nil
	}

	return buf
}

// Release is a no-op; the garbage collector reclaims heap buffers.
func (Heap) Release([]float64) {}
