package alloc

import (
	"fmt"

	"github.com/joshuapare/brkheap/internal/format"
)

// Ptr is a payload offset within the arena.
type Ptr uint64

// Nil is the null Ptr. Offset 0 is the pad word, never a payload.
const Nil Ptr = 0

// String formats p as a hex offset.
func (p Ptr) String() string {
	if p == Nil {
		return "nil"
	}
	return fmt.Sprintf("0x%x", uint64(p))
}

// Block describes one block of the chain, as seen by Walk.
type Block struct {
	Ptr       Ptr  // Payload offset
	Size      int  // Total size including header and footer
	Allocated bool // True when lent out to a caller
}

// PayloadSize returns the usable bytes of the block.
func (b Block) PayloadSize() int {
	return b.Size - format.TagOverhead
}

// Merge identifies which neighbours a coalesce folded in.
type Merge uint8

const (
	MergeNext Merge = iota + 1 // Previous allocated, next free
	MergePrev                  // Previous free, next allocated
	MergeBoth                  // Both neighbours free
)

// String returns a short label suitable for metric labels.
func (m Merge) String() string {
	switch m {
	case MergeNext:
		return "next"
	case MergePrev:
		return "prev"
	case MergeBoth:
		return "both"
	default:
		return "none"
	}
}

// Stats holds cumulative allocator counters.
type Stats struct {
	AllocCalls   int   // Total Alloc() calls
	ZeroRequests int   // Alloc(0) calls, which return Nil without touching the heap
	FitHits      int   // Allocations served by the first-fit search
	Extensions   int   // Heap extensions (including the initial chunk)
	ExtendBytes  int64 // Total bytes obtained from the arena by extensions
	FailedAllocs int   // Allocations refused for lack of arena space
	FreeCalls    int   // Total Free() calls
	Splits       int   // Blocks split during placement
	CoalesceNext int   // Merges with the following block only
	CoalescePrev int   // Merges with the preceding block only
	CoalesceBoth int   // Merges with both neighbours
	BytesInUse   int64 // Sum of allocated block sizes (tags included)
	PeakInUse    int64 // High-water mark of BytesInUse
}

// Summary is a point-in-time census of the block chain.
type Summary struct {
	HeapBytes       int // Bytes between the prologue and the epilogue
	Blocks          int
	FreeBlocks      int
	AllocatedBlocks int
	FreeBytes       int
	AllocatedBytes  int
	LargestFree     int
}

// Fragmentation returns the external fragmentation ratio in [0, 1):
// the share of free bytes not in the largest free block.
func (s Summary) Fragmentation() float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.LargestFree)/float64(s.FreeBytes)
}
