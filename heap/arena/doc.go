// Package arena simulates a process break pointer over a fixed reservation.
//
// An Arena owns one contiguous byte range of a capacity chosen at Init time.
// The only mutating operation is Sbrk, which moves the current top forward by
// a non-negative delta and returns the old top, exactly like the classic
// sbrk(2) call, except that the ceiling is hard: a request that would pass
// the capacity fails with ErrArenaExhausted and leaves the top untouched.
//
// Addresses are byte offsets from the start of the reservation. Offset 0 is
// the heap base; Top() is exclusive; Max() equals the capacity.
//
// # Backing
//
// BackingHeap (the default) reserves a 16-byte aligned Go slice.
// BackingMmap reserves a private anonymous mapping on unix, so untouched
// capacity costs no resident memory; on other platforms it quietly falls
// back to BackingHeap.
//
// # Thread Safety
//
// Arena instances are not thread-safe. The allocator that owns an arena is
// its only caller.
package arena
