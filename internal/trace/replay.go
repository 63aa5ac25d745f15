package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/brkheap/heap/alloc"
	"github.com/joshuapare/brkheap/internal/logger"
)

// Heap is the allocator surface a replay drives. Both *alloc.Allocator and
// *alloc.Sync satisfy it.
type Heap interface {
	Alloc(size int) (alloc.Ptr, error)
	Free(p alloc.Ptr) error
	Bytes(p alloc.Ptr) ([]byte, error)
	Check() error
	Summary() (alloc.Summary, error)
}

// Options controls how much checking a replay does.
type Options struct {
	// Check validates every heap invariant after each operation.
	Check bool
	// Verify fills each payload with an id-derived pattern and confirms it
	// is intact before the block is freed and at the end of the run.
	Verify bool
	// Logger receives per-operation debug records. Default: internal/logger.L.
	Logger *slog.Logger
}

// Result summarizes a replay.
type Result struct {
	Ops           int
	Allocs        int
	ZeroAllocs    int // Alloc(0) requests, which yield Nil
	FailedAllocs  int // Requests refused with alloc.ErrArenaExhausted
	Frees         int
	SkippedFrees  int // Frees of ids whose allocation failed
	Live          int // Ids still allocated when the replay stopped
	LiveBytes     int64
	PeakLiveBytes int64 // High-water mark of requested bytes outstanding
	Summary       alloc.Summary
}

type liveBlock struct {
	p    alloc.Ptr
	size int
}

// Replay performs ops against h in order. Allocation failures for lack of
// space are counted, not fatal; any other error stops the run and is
// returned together with the partial result. ctx is checked between ops.
func Replay(ctx context.Context, h Heap, ops []Op, opts Options) (res Result, err error) {
	log := logger.Or(opts.Logger)

	live := make(map[int]liveBlock)
	failed := make(map[int]bool)
	defer func() { res.Live = len(live) }()

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Ops++

		var err error
		switch op.Kind {
		case KindAlloc:
			err = replayAlloc(h, op, opts, live, failed, &res)
		case KindFree:
			err = replayFree(h, op, opts, live, failed, &res)
		default:
			err = fmt.Errorf("unknown op kind %v", op.Kind)
		}
		if err != nil {
			return res, fmt.Errorf("trace: line %d (%v): %w", op.Line, op, err)
		}
		log.Debug("replayed", "line", op.Line, "op", op.String(), "live", len(live))

		if opts.Check {
			if err := h.Check(); err != nil {
				return res, fmt.Errorf("trace: line %d (%v): %w", op.Line, op, err)
			}
		}
	}

	if opts.Verify {
		for id, lb := range live {
			if err := verifyPattern(h, id, lb); err != nil {
				return res, fmt.Errorf("trace: final check: %w", err)
			}
		}
	}

	sum, err := h.Summary()
	if err != nil {
		return res, fmt.Errorf("trace: summary: %w", err)
	}
	res.Summary = sum
	return res, nil
}

func replayAlloc(h Heap, op Op, opts Options, live map[int]liveBlock, failed map[int]bool, res *Result) error {
	if _, ok := live[op.ID]; ok {
		return fmt.Errorf("%w: %d", ErrLiveID, op.ID)
	}
	delete(failed, op.ID)

	p, err := h.Alloc(op.Size)
	if errors.Is(err, alloc.ErrArenaExhausted) {
		res.FailedAllocs++
		failed[op.ID] = true
		return nil
	}
	if err != nil {
		return err
	}

	res.Allocs++
	if p == alloc.Nil {
		res.ZeroAllocs++
	} else if opts.Verify {
		b, err := h.Bytes(p)
		if err != nil {
			return err
		}
		fillPattern(b[:op.Size], op.ID)
	}

	live[op.ID] = liveBlock{p: p, size: op.Size}
	res.LiveBytes += int64(op.Size)
	res.PeakLiveBytes = max(res.PeakLiveBytes, res.LiveBytes)
	return nil
}

func replayFree(h Heap, op Op, opts Options, live map[int]liveBlock, failed map[int]bool, res *Result) error {
	lb, ok := live[op.ID]
	if !ok {
		if failed[op.ID] {
			delete(failed, op.ID)
			res.SkippedFrees++
			return nil
		}
		return fmt.Errorf("%w: %d", ErrUnknownID, op.ID)
	}

	if opts.Verify {
		if err := verifyPattern(h, op.ID, lb); err != nil {
			return err
		}
	}
	if err := h.Free(lb.p); err != nil {
		return err
	}

	delete(live, op.ID)
	res.Frees++
	res.LiveBytes -= int64(lb.size)
	return nil
}

// patternByte is the expected content of byte i of block id.
func patternByte(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}

func fillPattern(b []byte, id int) {
	for i := range b {
		b[i] = patternByte(id, i)
	}
}

func verifyPattern(h Heap, id int, lb liveBlock) error {
	if lb.p == alloc.Nil {
		return nil
	}
	b, err := h.Bytes(lb.p)
	if err != nil {
		return err
	}
	if len(b) < lb.size {
		return fmt.Errorf("%w: id %d: payload %d bytes, requested %d", ErrCorrupted, id, len(b), lb.size)
	}
	for i := range lb.size {
		if b[i] != patternByte(id, i) {
			return fmt.Errorf("%w: id %d at %v+%d", ErrCorrupted, id, lb.p, i)
		}
	}
	return nil
}
