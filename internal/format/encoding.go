package format

import "encoding/binary"

// Binary encoding utilities for tag words.
//
// Tags are stored little-endian regardless of host byte order so a heap image
// is byte-for-byte reproducible across platforms.

// PutWord writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutWord(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], v)
}

// ReadWord reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadWord(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+WordSize])
}
