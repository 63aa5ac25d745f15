package format

import "testing"

func TestWordLittleEndian(t *testing.T) {
	b := make([]byte, 16)
	PutWord(b, 8, 0x0102030405060708)
	if b[8] != 0x08 || b[15] != 0x01 {
		t.Fatalf("unexpected byte order: % x", b[8:])
	}
	if got := ReadWord(b, 8); got != 0x0102030405060708 {
		t.Fatalf("ReadWord = 0x%x", got)
	}
}
