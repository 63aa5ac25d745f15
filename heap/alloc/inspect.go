package alloc

import (
	"github.com/joshuapare/brkheap/heap/arena"
	"github.com/joshuapare/brkheap/heap/verify"
	"github.com/joshuapare/brkheap/internal/format"
)

// Bytes returns the payload of the live block at p. The slice's capacity is
// capped at the payload end, so appending to it reallocates instead of
// overwriting the footer.
func (a *Allocator) Bytes(p Ptr) ([]byte, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	if p == Nil {
		return nil, ErrBadPtr
	}
	bp, size, err := a.lookup(p)
	if err != nil {
		return nil, err
	}
	end := bp + size - format.TagOverhead
	return a.mem[bp:end:end], nil
}

// Walk calls fn for every block between the prologue and the epilogue in
// address order until fn returns false.
func (a *Allocator) Walk(fn func(Block) bool) error {
	if err := a.usable(); err != nil {
		return err
	}
	return a.walk(func(blk format.Block) bool {
		return fn(Block{Ptr: Ptr(blk.Payload), Size: blk.Size, Allocated: blk.Allocated})
	})
}

// Summary walks the chain and tallies it.
func (a *Allocator) Summary() (Summary, error) {
	s := Summary{HeapBytes: a.ar.Top() - format.PrefixSize}
	err := a.Walk(func(b Block) bool {
		s.Blocks++
		if b.Allocated {
			s.AllocatedBlocks++
			s.AllocatedBytes += b.Size
		} else {
			s.FreeBlocks++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		}
		return true
	})
	return s, err
}

// Check validates every heap invariant with the independent verifier.
// A failure poisons the allocator.
func (a *Allocator) Check() error {
	if err := a.usable(); err != nil {
		return err
	}
	if err := verify.AllInvariants(a.heap()); err != nil {
		return a.poison(err)
	}
	return nil
}

// Stats returns a copy of the cumulative counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Arena returns the arena the allocator grows.
func (a *Allocator) Arena() *arena.Arena {
	return a.ar
}
