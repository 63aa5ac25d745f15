package format

// Alignment utilities for the heap's block layout.

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize returns the total block size needed to serve a request of n
// payload bytes: the payload plus header and footer, rounded up to Alignment,
// never below MinBlockSize.
//
// Example:
//
//	AdjustedSize(1)    = 32
//	AdjustedSize(16)   = 32
//	AdjustedSize(17)   = 48
//	AdjustedSize(1024) = 1040
//
// The caller must ensure n is small enough that n+TagOverhead+AlignmentMask
// does not overflow.
func AdjustedSize(n int) int {
	return max(MinBlockSize, Align16(n+TagOverhead))
}
