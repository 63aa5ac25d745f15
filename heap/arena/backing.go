package arena

import (
	"errors"
	"unsafe"

	"github.com/joshuapare/brkheap/internal/format"
	"github.com/joshuapare/brkheap/internal/mmap"
)

// reserve returns a capacity-byte region aligned to format.Alignment, the
// backing actually used, and its release function.
func reserve(capacity int, b Backing) ([]byte, Backing, func() error, error) {
	if b == BackingMmap {
		data, release, err := mmap.MapAnon(capacity)
		if err == nil {
			return data, BackingMmap, release, nil
		}
		if !errors.Is(err, mmap.ErrUnsupported) {
			return nil, b, nil, err
		}
	}
	return alignedBytes(capacity, format.Alignment), BackingHeap, func() error { return nil }, nil
}

// alignedBytes over-allocates by alignment bytes, then slices from the next
// aligned address so offset 0 of the result is aligned.
func alignedBytes(size, alignment int) []byte {
	raw := make([]byte, size+alignment)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (addr + uintptr(alignment-1)) &^ uintptr(alignment-1)
	off := int(aligned - addr)
	return raw[off : off+size : off+size]
}
