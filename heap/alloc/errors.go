package alloc

import (
	"errors"

	"github.com/joshuapare/brkheap/heap/arena"
)

var (
	// ErrArenaExhausted indicates the arena cannot grow enough to satisfy a request.
	// It is the same value as arena.ErrArenaExhausted.
	ErrArenaExhausted = arena.ErrArenaExhausted

	// ErrNegativeSize indicates a negative allocation request.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrBadPtr indicates a pointer that is not the payload of a live block.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrDoubleFree indicates a pointer whose block is already free.
	ErrDoubleFree = errors.New("alloc: double free")

	// ErrHeapCorrupt indicates malformed boundary tags. It is sticky.
	ErrHeapCorrupt = errors.New("alloc: heap corrupt")

	// ErrArenaInUse indicates the arena passed to New has already been grown.
	ErrArenaInUse = errors.New("alloc: arena already in use")

	// ErrInvalidOption indicates an option value outside its legal range.
	ErrInvalidOption = errors.New("alloc: invalid option")
)
