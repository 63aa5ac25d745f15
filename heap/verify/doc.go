// Package verify checks the structural invariants of a boundary-tag heap
// image: the bytes between the arena base and the current break.
//
// # Overview
//
// The checks never mutate the image and never trust a tag before it has
// been bounds-checked, so they are safe to run over a heap that is known
// to be damaged. They are used by alloc.Allocator.Check, by the trace
// replayer after every operation, and throughout the tests.
//
// Validation categories:
//   - Prologue: pad word zero, prologue header == footer == (16, allocated)
//   - BlockChain: every block decodes, header == footer, the walk lands
//     exactly on an allocated zero-size epilogue in the last word
//   - NoAdjacentFree: no two consecutive blocks are both free
//   - PayloadAlignment: every payload offset is 16-byte aligned
//
// # Quick Start
//
//	if err := verify.AllInvariants(heapBytes); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	    }
//	}
//
// AllInvariants runs the checks in the order listed above and returns the
// first failure.
package verify
