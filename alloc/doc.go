// Package alloc provides the buffer-acquisition capability handed to the
// aggregation engine.
//
// A transition state needs one p(p+1)/2 buffer for X'X and a few O(p) vectors;
// the final computation needs p×p scratch. Rather than reaching for an ambient
// allocator, every consumer receives an Allocator explicitly:
//
//   - Heap is a plain make-backed allocator with no budget and no-op release.
//   - Arena hands out pooled buffers, enforces an optional byte budget, and
//     releases every outstanding buffer when closed. An arena is scoped either
//     to a single call (ScopeCall) or to the lifetime of one aggregate
//     computation (ScopeAggregate).
//
// Scoped use:
//
//	err := alloc.Do(func(a alloc.Allocator) error {
//	    st, err := regression.NewState(regression.WithAllocator(a))
//	    if err != nil {
//	        return err
//	    }
//	    defer st.Release()
//	    ...
//	    return nil
//	}, alloc.WithScope(alloc.ScopeAggregate), alloc.WithByteLimit(64<<20))
//
// Buffers obtained from an arena must not be used after the arena is closed.
package alloc
