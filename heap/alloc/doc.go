// Package alloc implements a boundary-tag heap allocator on top of an arena.
//
// # Overview
//
// The allocator manages an implicit free list: every block carries a header
// word before its payload and an identical footer word after it, each packing
// the block's total size with an allocated bit. Walking forward uses header
// sizes; walking backward uses the footer of the preceding block. There is no
// separate list of free blocks, so finding one is a linear scan.
//
// # Heap Layout
//
//	offset 0x00  pad word
//	offset 0x08  prologue header  (16, allocated)
//	offset 0x10  prologue footer  (16, allocated)
//	offset 0x18  first block header ... blocks ... epilogue header (0, allocated)
//
// The prologue and epilogue are allocated sentinels: the first real block
// always has an allocated predecessor and the last an allocated successor, so
// coalescing needs no bounds checks.
// The epilogue is always the last word below the arena top and is rewritten
// every time the heap is extended.
//
// # Operations
//
//   - Alloc(n): round n up to a block size (n + 16 tag bytes, multiple of 16,
//     at least 32), take the first free block that fits, split it when the
//     remainder can stand alone, otherwise extend the heap by
//     max(size, chunk) and place into the new space.
//   - Free(p): clear the allocated bit in both tags and merge with free
//     neighbours. Two free blocks are never left adjacent.
//
// # Usage Example
//
//	ar, err := arena.New(1 << 20)
//	if err != nil {
//	    return err
//	}
//	a, err := alloc.New(ar)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(1024)
//	if err != nil {
//	    return err // errors.Is(err, alloc.ErrArenaExhausted) when full
//	}
//	buf, _ := a.Bytes(p)
//	copy(buf, payload)
//
//	err = a.Free(p)
//
// # Pointers
//
// A Ptr is the byte offset of a payload inside the arena. Nil (0) is never a
// valid payload because offset 0 holds the pad word. Every non-nil Ptr is a
// multiple of 16.
//
// # Error Handling
//
// Allocation failure is reported before any tag is written, so a failed
// Alloc leaves the heap exactly as it was. Free validates its argument and
// returns ErrBadPtr or ErrDoubleFree without touching memory. A malformed
// tag met during a chain walk means the heap was already scribbled on; the
// allocator then returns ErrHeapCorrupt from every later call.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Wrap one in Sync to share it.
package alloc
