package verify

import (
	"fmt"

	"github.com/joshuapare/brkheap/internal/format"
)

// ValidationError represents a heap invariant violation.
type ValidationError struct {
	Type    string
	Message string
	Offset  int // Heap offset where the violation was found, -1 if N/A
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants runs every structural check over the heap image.
// Returns the first error encountered, or nil if all pass.
func AllInvariants(data []byte) error {
	if err := Prologue(data); err != nil {
		return err
	}
	if err := BlockChain(data); err != nil {
		return err
	}
	if err := NoAdjacentFree(data); err != nil {
		return err
	}
	return PayloadAlignment(data)
}

// Prologue validates the fixed heap prefix.
func Prologue(data []byte) error {
	if len(data) < format.PrefixSize {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("heap too small: %d bytes (need at least %d)", len(data), format.PrefixSize),
			Offset:  -1,
		}
	}

	if pad := format.ReadWord(data, format.PadOffset); pad != 0 {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("padding word not zero: 0x%X", pad),
			Offset:  format.PadOffset,
		}
	}

	want := format.Pack(format.PrologueSize, true)
	hdr := format.ReadWord(data, format.PrologueHeaderOffset)
	ftr := format.ReadWord(data, format.FooterOffset(format.ProloguePayload, format.PrologueSize))
	if hdr != want || ftr != want {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("bad prologue tags: header=0x%X footer=0x%X, expected 0x%X", hdr, ftr, want),
			Offset:  format.PrologueHeaderOffset,
			Details: map[string]any{
				"header":   hdr,
				"footer":   ftr,
				"expected": want,
			},
		}
	}

	return nil
}

// BlockChain walks the implicit list from the first regular block and checks
// that every block decodes cleanly and that the walk ends on the epilogue.
func BlockChain(data []byte) error {
	blocks, err := blocksOf(data)
	if err != nil {
		return err
	}
	total := 0
	for _, blk := range blocks {
		total += blk.Size
	}
	if want := len(data) - format.PrefixSize; total != want {
		return &ValidationError{
			Type:    "BlockChain",
			Message: fmt.Sprintf("block sizes sum to %d, heap holds %d", total, want),
			Offset:  -1,
			Details: map[string]any{
				"sum":       total,
				"heapBytes": want,
			},
		}
	}
	return nil
}

// NoAdjacentFree checks that coalescing left no two neighbouring free blocks.
func NoAdjacentFree(data []byte) error {
	blocks, err := blocksOf(data)
	if err != nil {
		return err
	}
	for i := 1; i < len(blocks); i++ {
		if !blocks[i-1].Allocated && !blocks[i].Allocated {
			return &ValidationError{
				Type: "NoAdjacentFree",
				Message: fmt.Sprintf("free blocks at 0x%X (%d bytes) and 0x%X (%d bytes) are adjacent",
					blocks[i-1].Payload, blocks[i-1].Size, blocks[i].Payload, blocks[i].Size),
				Offset: blocks[i].Payload,
			}
		}
	}
	return nil
}

// PayloadAlignment checks that every payload offset is 16-byte aligned.
func PayloadAlignment(data []byte) error {
	blocks, err := blocksOf(data)
	if err != nil {
		return err
	}
	for _, blk := range blocks {
		if !format.IsAligned(blk.Payload) {
			return &ValidationError{
				Type:    "PayloadAlignment",
				Message: fmt.Sprintf("payload not %d-byte aligned", format.Alignment),
				Offset:  blk.Payload,
			}
		}
	}
	return nil
}

// blocksOf decodes every regular block, excluding prologue and epilogue.
func blocksOf(data []byte) ([]format.Block, error) {
	if len(data) < format.PrefixSize {
		return nil, &ValidationError{
			Type:    "BlockChain",
			Message: fmt.Sprintf("heap too small: %d bytes", len(data)),
			Offset:  -1,
		}
	}

	var blocks []format.Block
	for bp := format.FirstPayload; ; {
		blk, err := format.DecodeBlock(data, bp)
		if err != nil {
			return nil, &ValidationError{
				Type:    "BlockChain",
				Message: err.Error(),
				Offset:  bp,
			}
		}
		if blk.IsEpilogue() {
			return blocks, nil
		}
		blocks = append(blocks, blk)
		bp += blk.Size
	}
}
