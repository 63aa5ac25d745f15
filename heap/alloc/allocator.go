package alloc

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/brkheap/heap/arena"
	"github.com/joshuapare/brkheap/internal/buf"
	"github.com/joshuapare/brkheap/internal/format"
	"github.com/joshuapare/brkheap/internal/logger"
)

// Allocator is an implicit-list, first-fit, boundary-tag allocator.
// It exclusively owns every byte of its arena above the base.
type Allocator struct {
	ar  *arena.Arena
	mem []byte // Whole arena reservation; tags are read and written here

	chunkSize int
	splitMin  int
	strict    bool

	log   *slog.Logger
	obs   Observer
	stats Stats

	// corrupt is set once a chain walk meets a malformed tag; every later
	// operation returns it without touching memory.
	corrupt error

	// Test hook: called after each heap extension (nil in production)
	onExtend func(bytes int)
}

// New lays out the prologue and epilogue in a fresh arena, then extends the
// heap by one chunk so the first allocations need no growth.
// The arena must be initialized and must not have been grown yet.
func New(ar *arena.Arena, opts ...Option) (*Allocator, error) {
	if ar == nil || ar.Mem() == nil {
		return nil, arena.ErrNotInitialized
	}
	if ar.Top() != ar.Base() {
		return nil, fmt.Errorf("%w: top=%d", ErrArenaInUse, ar.Top())
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	a := &Allocator{
		ar:        ar,
		mem:       ar.Mem(),
		chunkSize: o.chunkSize,
		splitMin:  o.splitMin,
		strict:    o.strict,
		log:       logger.Or(o.logger),
		obs:       o.observer,
	}

	if _, err := ar.Sbrk(format.PrefixSize); err != nil {
		return nil, fmt.Errorf("alloc: init prologue: %w", err)
	}
	format.PutWord(a.mem, format.PadOffset, 0)
	format.PutWord(a.mem, format.PrologueHeaderOffset, format.Pack(format.PrologueSize, true))
	format.PutWord(a.mem, format.ProloguePayload, format.Pack(format.PrologueSize, true))
	format.PutWord(a.mem, format.HeaderOffset(format.FirstPayload), format.Pack(0, true))

	if _, err := a.extend(a.chunkSize); err != nil {
		return nil, fmt.Errorf("alloc: init chunk: %w", err)
	}
	return a, nil
}

// Alloc returns the payload offset of a block with at least size usable bytes.
// Alloc(0) returns Nil and a nil error without touching the heap. When the
// arena cannot grow enough the result is Nil and an error wrapping
// ErrArenaExhausted; the heap is left unchanged.
func (a *Allocator) Alloc(size int) (Ptr, error) {
	a.stats.AllocCalls++

	if err := a.usable(); err != nil {
		return Nil, err
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	if size == 0 {
		a.stats.ZeroRequests++
		return Nil, nil
	}
	// No request above the capacity can ever fit; refusing it here also keeps
	// the size arithmetic below from overflowing.
	if size > a.ar.Max() {
		return Nil, a.refuse(size, fmt.Errorf("%w: request %d exceeds capacity %d",
			ErrArenaExhausted, size, a.ar.Max()))
	}

	asize := format.AdjustedSize(size)

	bp, err := a.findFit(asize)
	if err != nil {
		return Nil, err
	}

	extended := false
	if bp == 0 {
		bp, err = a.extend(max(asize, a.chunkSize))
		if err != nil {
			if a.corrupt != nil {
				return Nil, err
			}
			return Nil, a.refuse(size, err)
		}
		extended = true
	} else {
		a.stats.FitHits++
		a.log.Debug("search hit", "request", size, "block", Ptr(bp), "size", format.BlockSize(a.mem, bp))
	}

	got := a.place(bp, asize)

	a.stats.BytesInUse += int64(got)
	a.stats.PeakInUse = max(a.stats.PeakInUse, a.stats.BytesInUse)
	a.obs.OnAlloc(size, got, extended)

	return Ptr(bp), nil
}

// Free releases the block whose payload starts at p and merges it with any
// free neighbours. Free(Nil) is a no-op. Pointers that do not name a live
// block are rejected with ErrBadPtr or ErrDoubleFree and nothing is written.
// A malformed free neighbour poisons the allocator, also before any write.
func (a *Allocator) Free(p Ptr) error {
	a.stats.FreeCalls++

	if err := a.usable(); err != nil {
		return err
	}
	if p == Nil {
		return nil
	}

	bp, size, err := a.lookup(p)
	if err != nil {
		return err
	}
	prev, next, err := a.freeNeighbours(bp, size)
	if err != nil {
		return a.poison(err)
	}

	format.SetTags(a.mem, bp, size, false)
	a.stats.BytesInUse -= int64(size)
	a.obs.OnFree(size)

	a.coalesce(bp, prev, next)
	return nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// usable reports why the allocator cannot run, if it cannot.
func (a *Allocator) usable() error {
	if a.corrupt != nil {
		return a.corrupt
	}
	if a.ar.Mem() == nil {
		return arena.ErrNotInitialized
	}
	return nil
}

// heap returns the mapped part of the arena, ending just after the epilogue.
func (a *Allocator) heap() []byte {
	return a.mem[:a.ar.Top()]
}

// refuse records a failed allocation and passes err through.
func (a *Allocator) refuse(size int, err error) error {
	a.stats.FailedAllocs++
	a.log.Warn("out of memory", "request", size, "top", a.ar.Top(), "max", a.ar.Max())
	a.obs.OnAllocFailed(size, err)
	return err
}

// poison marks the heap corrupt. Every later call returns the same error.
func (a *Allocator) poison(cause error) error {
	if a.corrupt == nil {
		a.corrupt = fmt.Errorf("%w: %w", ErrHeapCorrupt, cause)
		a.log.Error("heap corrupt", "err", cause)
	}
	return a.corrupt
}

// findFit scans the chain in address order and returns the payload offset of
// the first free block of at least asize bytes, or 0 when none exists.
func (a *Allocator) findFit(asize int) (int, error) {
	h := a.heap()
	for bp := format.FirstPayload; ; {
		blk, err := format.DecodeBlock(h, bp)
		if err != nil {
			return 0, a.poison(err)
		}
		if blk.IsEpilogue() {
			return 0, nil
		}
		if !blk.Allocated && blk.Size >= asize {
			return bp, nil
		}
		bp += blk.Size
	}
}

// place marks asize bytes of the free block at bp allocated. When the rest
// of the block is at least splitMin bytes it becomes a new free block;
// otherwise the whole block is handed out. Returns the allocated size.
func (a *Allocator) place(bp, asize int) int {
	csize := format.BlockSize(a.mem, bp)

	if csize-asize >= a.splitMin {
		format.SetTags(a.mem, bp, asize, true)
		format.SetTags(a.mem, bp+asize, csize-asize, false)
		a.stats.Splits++
		return asize
	}

	format.SetTags(a.mem, bp, csize, true)
	return csize
}

// extend grows the heap by at least n bytes (rounded up to the alignment).
// The old epilogue becomes the new block's header and a new epilogue is
// written at the top. Returns the payload offset of the resulting free
// block after coalescing with a free predecessor. On arena failure nothing
// has been written; a malformed predecessor poisons the allocator.
func (a *Allocator) extend(n int) (int, error) {
	size := format.Align16(n)

	bp, err := a.ar.Sbrk(size)
	if err != nil {
		return 0, err
	}

	format.SetTags(a.mem, bp, size, false)
	format.PutWord(a.mem, format.HeaderOffset(bp+size), format.Pack(0, true))

	a.stats.Extensions++
	a.stats.ExtendBytes += int64(size)
	a.log.Debug("extended heap", "bytes", size, "top", a.ar.Top(), "remaining", a.ar.Remaining())
	a.obs.OnExtend(size)
	if a.onExtend != nil {
		a.onExtend(size)
	}

	prev, _, err := a.freeNeighbours(bp, size)
	if err != nil {
		return 0, a.poison(err)
	}
	return a.coalesce(bp, prev, 0), nil
}

// freeNeighbours returns the payload offsets of the free blocks on either
// side of the size-byte block at bp, or 0 where the neighbour is allocated.
// Each free neighbour is decoded in full, so coalescing only ever writes
// inside the mapped heap.
func (a *Allocator) freeNeighbours(bp, size int) (prev, next int, err error) {
	h := a.heap()

	if tag := format.ReadWord(h, format.PrevFooterOffset(bp)); !format.TagAllocated(tag) {
		psize := format.TagSize(tag)
		prev = bp - psize
		if psize <= 0 || prev < format.FirstPayload {
			return 0, 0, fmt.Errorf("block at %d: free predecessor of size %d: %w",
				bp, psize, format.ErrBadTag)
		}
		blk, err := format.DecodeBlock(h, prev)
		if err != nil {
			return 0, 0, err
		}
		if blk.Allocated || blk.Size != psize {
			return 0, 0, fmt.Errorf("block at %d: header 0x%x footer 0x%x: %w",
				prev, format.Pack(blk.Size, blk.Allocated), tag, format.ErrTagMismatch)
		}
	}

	if n := bp + size; !format.BlockAllocated(h, n) {
		if _, err := format.DecodeBlock(h, n); err != nil {
			return 0, 0, err
		}
		next = n
	}
	return prev, next, nil
}

// coalesce merges the free block at bp with the free neighbours found by
// freeNeighbours (0 for none) and returns the payload offset of the merged
// block.
//
//	prev   next   result
//	alloc  alloc  bp unchanged
//	alloc  free   bp absorbs next
//	free   alloc  prev absorbs bp
//	free   free   prev absorbs bp and next
func (a *Allocator) coalesce(bp, prev, next int) int {
	mem := a.mem
	size := format.BlockSize(mem, bp)

	switch {
	case prev == 0 && next == 0:
		return bp

	case prev == 0:
		size += format.BlockSize(mem, next)
		format.SetTags(mem, bp, size, false)
		a.stats.CoalesceNext++
		a.obs.OnCoalesce(MergeNext)

	case next == 0:
		size += format.BlockSize(mem, prev)
		format.SetTags(mem, prev, size, false)
		bp = prev
		a.stats.CoalescePrev++
		a.obs.OnCoalesce(MergePrev)

	default:
		size += format.BlockSize(mem, prev) + format.BlockSize(mem, next)
		format.SetTags(mem, prev, size, false)
		bp = prev
		a.stats.CoalesceBoth++
		a.obs.OnCoalesce(MergeBoth)
	}
	return bp
}

// lookup validates that p is the payload of an allocated block and returns
// its offset and size. It never writes.
func (a *Allocator) lookup(p Ptr) (int, int, error) {
	top := a.ar.Top()
	if uint64(p) > math.MaxInt {
		return 0, 0, fmt.Errorf("%w: %v out of range", ErrBadPtr, p)
	}
	bp := int(p)
	if bp < format.FirstPayload || bp >= top || !format.IsAligned(bp) {
		return 0, 0, fmt.Errorf("%w: %v outside heap [0x%x, 0x%x) or misaligned",
			ErrBadPtr, p, format.FirstPayload, top)
	}

	if a.strict {
		if err := a.confirmBlockStart(bp); err != nil {
			return 0, 0, err
		}
	}

	tag := format.ReadWord(a.mem, format.HeaderOffset(bp))
	size := format.TagSize(tag)
	if !format.TagAllocated(tag) {
		return 0, 0, fmt.Errorf("%w: %v", ErrDoubleFree, p)
	}
	if _, ok := buf.End(bp, size, top); !ok || size < format.MinBlockSize || !format.IsAligned(size) {
		return 0, 0, fmt.Errorf("%w: %v has implausible header 0x%x", ErrBadPtr, p, tag)
	}
	if ftr := format.ReadWord(a.mem, format.FooterOffset(bp, size)); ftr != tag {
		return 0, 0, fmt.Errorf("%w: %v header 0x%x footer 0x%x", ErrBadPtr, p, tag, ftr)
	}
	return bp, size, nil
}

// confirmBlockStart walks the chain to prove bp starts an allocated block.
func (a *Allocator) confirmBlockStart(bp int) error {
	found := false
	allocated := false
	err := a.walk(func(blk format.Block) bool {
		if blk.Payload < bp {
			return true
		}
		found = blk.Payload == bp
		allocated = blk.Allocated
		return false
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %v is not a block start", ErrBadPtr, Ptr(bp))
	}
	if !allocated {
		return fmt.Errorf("%w: %v", ErrDoubleFree, Ptr(bp))
	}
	return nil
}

// walk decodes every block between the prologue and the epilogue, stopping
// early when fn returns false. A malformed tag poisons the allocator.
func (a *Allocator) walk(fn func(format.Block) bool) error {
	h := a.heap()
	for bp := format.FirstPayload; ; {
		blk, err := format.DecodeBlock(h, bp)
		if err != nil {
			return a.poison(err)
		}
		if blk.IsEpilogue() || !fn(blk) {
			return nil
		}
		bp += blk.Size
	}
}
