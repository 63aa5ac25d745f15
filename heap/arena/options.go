package arena

import (
	"fmt"
	"log/slog"
	"strings"
)

// Backing selects where an arena's reservation comes from.
type Backing uint8

const (
	// BackingHeap reserves the arena as an aligned Go byte slice.
	BackingHeap Backing = iota
	// BackingMmap reserves the arena as an anonymous private mapping.
	BackingMmap
)

// String returns the flag spelling of b.
func (b Backing) String() string {
	switch b {
	case BackingHeap:
		return "heap"
	case BackingMmap:
		return "mmap"
	default:
		return fmt.Sprintf("Backing(%d)", uint8(b))
	}
}

// ParseBacking parses "heap" or "mmap".
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heap":
		return BackingHeap, nil
	case "mmap":
		return BackingMmap, nil
	default:
		return 0, fmt.Errorf("arena: unknown backing %q (want heap or mmap)", s)
	}
}

type options struct {
	backing Backing
	logger  *slog.Logger
}

// Option configures an Arena at Init time.
type Option func(*options)

// WithBacking selects the reservation strategy.
func WithBacking(b Backing) Option {
	return func(o *options) {
		o.backing = b
	}
}

// WithLogger sets the logger for out-of-memory notices.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
