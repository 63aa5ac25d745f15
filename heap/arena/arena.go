package arena

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/brkheap/internal/logger"
)

// DefaultCapacity is the reservation size used by callers that have no
// preference (100 MiB).
const DefaultCapacity = 100 << 20

// Arena is a fixed-capacity region with a forward-only top.
// The zero value is unusable until Init.
type Arena struct {
	mem     []byte // Whole reservation; len(mem) is the capacity
	brk     int    // Current top (exclusive)
	backing Backing
	release func() error
	log     *slog.Logger
}

// New creates and initializes an arena of the given capacity.
func New(capacity int, opts ...Option) (*Arena, error) {
	a := &Arena{}
	if err := a.Init(capacity, opts...); err != nil {
		return nil, err
	}
	return a, nil
}

// Init reserves exactly capacity bytes and sets the top to the base.
// It must be called once; a second call returns ErrAlreadyInitialized and
// leaves the existing reservation intact.
func (a *Arena) Init(capacity int, opts ...Option) error {
	if a.mem != nil {
		return ErrAlreadyInitialized
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mem, backing, release, err := reserve(capacity, o.backing)
	if err != nil {
		return fmt.Errorf("arena: reserve %d bytes: %w", capacity, err)
	}

	a.mem = mem
	a.brk = 0
	a.backing = backing
	a.release = release
	a.log = logger.Or(o.logger)
	return nil
}

// Sbrk advances the top by delta bytes and returns the previous top, which
// is the offset of the newly available region. The region's contents are
// unspecified. Growth is all-or-nothing: on error the top does not move.
func (a *Arena) Sbrk(delta int) (int, error) {
	if a.mem == nil {
		return 0, ErrNotInitialized
	}
	if delta < 0 {
		a.log.Warn("out of memory", "reason", "negative growth", "delta", delta)
		return 0, fmt.Errorf("%w: delta=%d", ErrInvalidGrowth, delta)
	}
	// Compare against the remaining space so huge deltas cannot overflow.
	if delta > len(a.mem)-a.brk {
		a.log.Warn("out of memory", "top", a.brk, "delta", delta, "max", len(a.mem))
		return 0, fmt.Errorf("%w: top=%d delta=%d max=%d", ErrArenaExhausted, a.brk, delta, len(a.mem))
	}
	old := a.brk
	a.brk += delta
	return old, nil
}

// Base returns the heap base offset. It is always 0.
func (a *Arena) Base() int { return 0 }

// Top returns the current top (exclusive).
func (a *Arena) Top() int { return a.brk }

// Max returns the capacity, the exclusive upper bound for Top.
func (a *Arena) Max() int { return len(a.mem) }

// Len returns the number of mapped bytes (Top - Base).
func (a *Arena) Len() int { return a.brk }

// Remaining returns how many more bytes Sbrk can hand out.
func (a *Arena) Remaining() int { return len(a.mem) - a.brk }

// Backing reports the reservation strategy actually in use.
func (a *Arena) Backing() Backing { return a.backing }

// Bytes returns the mapped region [Base, Top). The slice aliases the
// reservation; it is invalidated by Close, never by Sbrk.
func (a *Arena) Bytes() []byte {
	return a.mem[:a.brk:a.brk]
}

// Mem returns the whole reservation [Base, Max). Bytes past Top belong to
// nobody yet; the allocator uses Mem so payload slices it hands out stay
// valid as the top moves.
func (a *Arena) Mem() []byte {
	return a.mem
}

// Close releases the reservation. Further Sbrk calls return ErrNotInitialized.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := a.release()
	a.mem = nil
	a.brk = 0
	a.release = nil
	return err
}
