package format

import (
	"fmt"

	"github.com/joshuapare/brkheap/internal/buf"
)

// Boundary tag layout (one little-endian word, identical in header and footer):
//
//	Bits    Description
//	63..1   Total block size in bytes (header + payload + footer).
//	        Always a multiple of Alignment, so bits 3..1 are zero as well.
//	0       Allocated flag. 1 => allocated, 0 => free.
//
// Blocks are addressed by their payload offset ("bp"). The header sits one
// word before bp, the footer one word before the next block's header.

// Pack combines a block size and an allocated flag into one tag word.
func Pack(size int, allocated bool) uint64 {
	tag := uint64(size)
	if allocated {
		tag |= allocBit
	}
	return tag
}

// TagSize extracts the block size from a tag by clearing the allocated bit.
func TagSize(tag uint64) int {
	return int(tag &^ allocBit)
}

// TagAllocated extracts the allocated flag from a tag.
func TagAllocated(tag uint64) bool {
	return tag&allocBit != 0
}

// HeaderOffset returns the offset of the header word for the block whose payload starts at bp.
func HeaderOffset(bp int) int {
	return bp - WordSize
}

// FooterOffset returns the offset of the footer word for a block of the given
// total size whose payload starts at bp.
func FooterOffset(bp, size int) int {
	return bp + size - TagOverhead
}

// SetTags writes identical header and footer tags for the block at bp.
func SetTags(b []byte, bp, size int, allocated bool) {
	tag := Pack(size, allocated)
	PutWord(b, HeaderOffset(bp), tag)
	PutWord(b, FooterOffset(bp, size), tag)
}

// BlockSize reads the size from the header of the block at bp.
func BlockSize(b []byte, bp int) int {
	return TagSize(ReadWord(b, HeaderOffset(bp)))
}

// BlockAllocated reads the allocated flag from the header of the block at bp.
func BlockAllocated(b []byte, bp int) bool {
	return TagAllocated(ReadWord(b, HeaderOffset(bp)))
}

// NextPayload returns the payload offset of the block following bp.
func NextPayload(b []byte, bp int) int {
	return bp + BlockSize(b, bp)
}

// PrevFooterOffset returns the offset of the footer word of the block preceding bp.
// That word sits immediately before bp's header.
func PrevFooterOffset(bp int) int {
	return bp - TagOverhead
}

// PrevPayload returns the payload offset of the block preceding bp, found by
// reading the previous block's size from its footer.
func PrevPayload(b []byte, bp int) int {
	return bp - TagSize(ReadWord(b, PrevFooterOffset(bp)))
}

// Block is a decoded view of one block in the chain.
type Block struct {
	Payload   int  // Offset of the first payload byte
	Size      int  // Total size including header and footer
	Allocated bool // True when the allocated bit is set
}

// IsEpilogue reports whether the block is the zero-size allocated terminator.
func (blk Block) IsEpilogue() bool {
	return blk.Size == 0 && blk.Allocated
}

// DecodeBlock decodes the block whose payload starts at bp and validates its
// tags against the mapped length of b. The epilogue decodes as a zero-size
// allocated block and is only legal as the last word of b.
func DecodeBlock(b []byte, bp int) (Block, error) {
	hdr := HeaderOffset(bp)
	if !buf.Has(b, hdr, WordSize) {
		return Block{}, fmt.Errorf("block at %d: %w", bp, ErrTruncated)
	}
	tag := ReadWord(b, hdr)
	blk := Block{Payload: bp, Size: TagSize(tag), Allocated: TagAllocated(tag)}
	if blk.Size == 0 {
		if !blk.Allocated || hdr+WordSize != len(b) {
			return Block{}, fmt.Errorf("block at %d: zero size before end of heap: %w", bp, ErrBadTag)
		}
		return blk, nil
	}
	if !IsAligned(blk.Size) || blk.Size < MinBlockSize {
		return Block{}, fmt.Errorf("block at %d: size %d: %w", bp, blk.Size, ErrBadTag)
	}
	// The block must end before the last word, leaving room for at least
	// the epilogue header after its footer.
	if _, ok := buf.End(bp, blk.Size, len(b)); !ok {
		return Block{}, fmt.Errorf("block at %d: size %d runs past heap top %d: %w",
			bp, blk.Size, len(b), ErrTruncated)
	}
	ftr := FooterOffset(bp, blk.Size)
	if ReadWord(b, ftr) != tag {
		return Block{}, fmt.Errorf("block at %d: header 0x%x footer 0x%x: %w",
			bp, tag, ReadWord(b, ftr), ErrTagMismatch)
	}
	return blk, nil
}
