package format

// ============================================================================
// Word and alignment geometry
// ============================================================================
const (
	// WordSize is the size of one boundary tag (header or footer) in bytes.
	WordSize = 8

	// Alignment is the block alignment: two machine words.
	// Every block size and every payload offset is a multiple of it.
	Alignment = 2 * WordSize

	// AlignmentMask is the bitmask used for aligning to Alignment (Alignment - 1).
	AlignmentMask = Alignment - 1

	// TagOverhead is the per-block cost of the header plus the footer.
	TagOverhead = 2 * WordSize

	// MinBlockSize is the smallest legal block: both tags plus one aligned
	// payload unit. A zero-payload block would be indistinguishable from the
	// epilogue, so even 1-byte requests get 32 bytes.
	MinBlockSize = TagOverhead + Alignment
)

// ============================================================================
// Heap prefix layout
// ============================================================================
//
//	Offset  Size  Description
//	0x00    8     Padding word (keeps payloads 16-byte aligned). Always zero.
//	0x08    8     Prologue header: Pack(PrologueSize, true)
//	0x10    8     Prologue footer: Pack(PrologueSize, true)
//	0x18    8     Epilogue header: Pack(0, true). Moves on every extension.
//	0x20    ...   First regular block payload.
const (
	// PadOffset is the offset of the alignment padding word.
	PadOffset = 0

	// PrologueHeaderOffset is the offset of the prologue header word.
	PrologueHeaderOffset = PadOffset + WordSize

	// PrologueSize is the total size of the prologue block (header + footer, no payload).
	PrologueSize = TagOverhead

	// ProloguePayload is the payload offset of the prologue; the chain walk starts here.
	ProloguePayload = PrologueHeaderOffset + WordSize

	// FirstPayload is the payload offset of the first block after the prologue.
	FirstPayload = ProloguePayload + PrologueSize

	// PrefixSize is the number of bytes requested from the arena at init:
	// pad word, prologue header and footer, initial epilogue header.
	PrefixSize = 4 * WordSize
)

// DefaultChunkSize is the default number of bytes requested from the arena
// each time the heap is extended (4 KiB).
const DefaultChunkSize = 1 << 12

// allocBit is bit 0 of a tag word. Block sizes are multiples of Alignment,
// so the low bits of the size are always zero.
const allocBit = 0x1
