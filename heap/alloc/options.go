package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/brkheap/internal/format"
)

type options struct {
	chunkSize int
	splitMin  int
	strict    bool
	logger    *slog.Logger
	observer  Observer
}

func defaultOptions() options {
	return options{
		chunkSize: format.DefaultChunkSize,
		splitMin:  format.MinBlockSize,
		observer:  NoopObserver{},
	}
}

func (o *options) validate() error {
	if o.chunkSize < format.MinBlockSize {
		return fmt.Errorf("%w: chunk size %d below minimum block size %d",
			ErrInvalidOption, o.chunkSize, format.MinBlockSize)
	}
	if o.splitMin < format.MinBlockSize {
		return fmt.Errorf("%w: split threshold %d below minimum block size %d",
			ErrInvalidOption, o.splitMin, format.MinBlockSize)
	}
	if o.observer == nil {
		o.observer = NoopObserver{}
	}
	return nil
}

// Option configures an Allocator.
type Option func(*options)

// WithChunkSize sets how many bytes each heap extension requests at minimum.
// The value is rounded up to the block alignment. Default 4096.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = format.Align16(n)
	}
}

// WithSplitMin sets the smallest remainder that placement will carve off as a
// separate free block. Smaller remainders stay attached to the allocation.
// The value is rounded up to the block alignment and may not be below the
// minimum block size (32). Default 32.
func WithSplitMin(n int) Option {
	return func(o *options) {
		o.splitMin = format.Align16(n)
	}
}

// WithStrictFree makes Free and Bytes confirm, by walking the chain, that a
// pointer is the start of a live block. This turns foreign and stale pointers
// into ErrBadPtr/ErrDoubleFree reliably, at O(blocks) per call.
func WithStrictFree() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger sets the diagnostics logger. Default: internal/logger.L.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver installs an event observer, such as metrics.Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}
