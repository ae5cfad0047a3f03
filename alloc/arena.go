package alloc

import (
	"fmt"
	"sync"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/internal/pool"
)

// Scope identifies the lifetime an Arena is bound to.
type Scope uint8

const (
	// ScopeCall arenas live for a single transition, merge or final call.
	ScopeCall Scope = iota + 1
	// ScopeAggregate arenas live for a whole aggregate computation.
	ScopeAggregate
)

func (s Scope) String() string {
	switch s {
	case ScopeCall:
		return "call"
	case ScopeAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

const float64Size = 8

// ArenaConfig holds Arena settings.
type ArenaConfig struct {
	// Scope is informational; it is reported by Arena.Scope.
	Scope Scope
	// ByteLimit caps the bytes outstanding at any time. Zero means unlimited.
	ByteLimit int64
}

// ArenaOption configures an Arena.
type ArenaOption = options.Option[*ArenaConfig]

// WithScope sets the arena's scope.
func WithScope(scope Scope) ArenaOption {
	return options.New(func(cfg *ArenaConfig) error {
		if scope != ScopeCall && scope != ScopeAggregate {
			return fmt.Errorf("%w: unknown arena scope %d", errs.ErrInvalidValue, scope)
		}
		cfg.Scope = scope

		return nil
	})
}

// WithByteLimit caps the bytes an arena may have outstanding.
func WithByteLimit(limit int64) ArenaOption {
	return options.New(func(cfg *ArenaConfig) error {
		if limit < 0 {
			return fmt.Errorf("%w: negative byte limit %d", errs.ErrInvalidValue, limit)
		}
		cfg.ByteLimit = limit

		return nil
	})
}

type lease struct {
	size    int
	cleanup func()
}

// Arena is a pooled, optionally budgeted Allocator whose buffers are released
// individually or abandoned together on Close.
//
// Arena is safe for concurrent use so that one aggregate-scoped arena can back
// the states of several partitions processed in parallel.
type Arena struct {
	mu     sync.Mutex
	cfg    ArenaConfig
	used   int64
	live   map[*float64]lease
	closed bool
}

var _ Allocator = (*Arena)(nil)

// NewArena creates an arena. The default scope is ScopeCall with no byte limit.
func NewArena(opts ...ArenaOption) (*Arena, error) {
	cfg := ArenaConfig{Scope: ScopeCall}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Arena{
		cfg:  cfg,
		live: make(map[*float64]lease),
	}, nil
}

// Allocate returns a zeroed pooled buffer of n elements.
//
// Returns an error wrapping errs.ErrOutOfMemory if the arena is closed or the
// request would exceed the byte limit.
func (a *Arena) Allocate(n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative allocation size %d", errs.ErrInvalidValue, n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("%w: %s arena is closed", errs.ErrOutOfMemory, a.cfg.Scope)
	}
	if n == 0 {
		return []float64{}, nil
	}

	bytes := int64(n) * float64Size
	if a.cfg.ByteLimit > 0 && a.used+bytes > a.cfg.ByteLimit {
		return nil, fmt.Errorf("%w: %s arena needs %d bytes, %d of %d in use",
			errs.ErrOutOfMemory, a.cfg.Scope, bytes, a.used, a.cfg.ByteLimit)
	}

	buf, cleanup := pool.GetFloat64Slice(n)
	a.live[&buf[0]] = lease{size: n, cleanup: cleanup}
	a.used += bytes

	return buf, nil
}

// TryAllocate is like Allocate but returns nil on failure.
func (a *Arena) TryAllocate(n int) []float64 {
	buf, err := a.Allocate(n)
	if err != nil {
		return nil
	}

	return buf
}

// Release returns buf to the pool if the arena handed it out.
func (a *Arena) Release(buf []float64) {
	if len(buf) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := &buf[0]
	l, ok := a.live[key]
	if !ok {
		return
	}
	delete(a.live, key)
	a.used -= int64(l.size) * float64Size
	l.cleanup()
}

// Close ends the arena. Closing twice is a no-op.
//
// Buffers still outstanding are forgotten rather than pooled: a state may
// still hold one, so it is left to the garbage collector. Releasing such a
// buffer after Close does nothing.
func (a *Arena) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	clear(a.live)
	a.used = 0
	a.closed = true
}

// Scope returns the lifetime the arena is bound to.
func (a *Arena) Scope() Scope {
	return a.cfg.Scope
}

// BytesInUse returns the bytes currently handed out.
func (a *Arena) BytesInUse() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.used
}

// Outstanding returns the number of buffers currently handed out.
func (a *Arena) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.live)
}

// Do runs fn with a fresh arena and closes the arena when fn returns.
func Do(fn func(Allocator) error, opts ...ArenaOption) error {
	arena, err := NewArena(opts...)
	if err != nil {
		return err
	}
	defer arena.Close()

	return fn(arena)
}
