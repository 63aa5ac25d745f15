package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/brkheap/internal/format"
)

type fakeBlock struct {
	size      int
	allocated bool
}

// buildHeap lays out a heap prefix followed by the given blocks and an epilogue.
func buildHeap(t *testing.T, blocks ...fakeBlock) []byte {
	t.Helper()
	n := format.PrefixSize
	for _, b := range blocks {
		n += b.size
	}
	data := make([]byte, n)
	format.SetTags(data, format.ProloguePayload, format.PrologueSize, true)
	bp := format.FirstPayload
	for _, b := range blocks {
		format.SetTags(data, bp, b.size, b.allocated)
		bp += b.size
	}
	format.PutWord(data, format.HeaderOffset(bp), format.Pack(0, true))
	return data
}

func requireValidationType(t *testing.T, err error, typ string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type)
	return verr
}

func TestAllInvariants_Valid(t *testing.T) {
	data := buildHeap(t,
		fakeBlock{1040, true},
		fakeBlock{48, true},
		fakeBlock{3008, false},
	)
	require.NoError(t, AllInvariants(data))
}

func TestAllInvariants_EmptyHeap(t *testing.T) {
	// Prefix and epilogue only: legal before the first extension.
	data := buildHeap(t)
	require.NoError(t, AllInvariants(data))
}

func TestPrologue_TooSmall(t *testing.T) {
	err := Prologue(make([]byte, 16))
	verr := requireValidationType(t, err, "Prologue")
	require.Equal(t, -1, verr.Offset)
}

func TestPrologue_NonZeroPad(t *testing.T) {
	data := buildHeap(t, fakeBlock{4096, false})
	format.PutWord(data, format.PadOffset, 7)

	err := Prologue(data)
	requireValidationType(t, err, "Prologue")
	require.Contains(t, err.Error(), "padding word")
}

func TestPrologue_BadTags(t *testing.T) {
	data := buildHeap(t, fakeBlock{4096, false})
	format.PutWord(data, format.PrologueHeaderOffset, format.Pack(format.PrologueSize, false))

	err := Prologue(data)
	verr := requireValidationType(t, err, "Prologue")
	require.Equal(t, format.PrologueHeaderOffset, verr.Offset)
	require.NotNil(t, verr.Details)
}

func TestBlockChain_FooterMismatch(t *testing.T) {
	data := buildHeap(t, fakeBlock{64, true}, fakeBlock{64, false})
	format.PutWord(data, format.FooterOffset(format.FirstPayload, 64), format.Pack(64, false))

	err := BlockChain(data)
	verr := requireValidationType(t, err, "BlockChain")
	require.Equal(t, format.FirstPayload, verr.Offset)
	require.Contains(t, err.Error(), "mismatch")
}

func TestBlockChain_SizeRunsPastTop(t *testing.T) {
	data := buildHeap(t, fakeBlock{64, true})
	format.PutWord(data, format.HeaderOffset(format.FirstPayload), format.Pack(4096, true))

	err := BlockChain(data)
	requireValidationType(t, err, "BlockChain")
}

func TestBlockChain_MisalignedSize(t *testing.T) {
	data := buildHeap(t, fakeBlock{64, true})
	format.PutWord(data, format.HeaderOffset(format.FirstPayload), format.Pack(40, true))

	err := BlockChain(data)
	requireValidationType(t, err, "BlockChain")
}

func TestBlockChain_MissingEpilogue(t *testing.T) {
	data := buildHeap(t, fakeBlock{64, true})
	format.PutWord(data, len(data)-format.WordSize, format.Pack(0, false))

	err := BlockChain(data)
	requireValidationType(t, err, "BlockChain")
}

func TestNoAdjacentFree(t *testing.T) {
	t.Run("separated", func(t *testing.T) {
		data := buildHeap(t,
			fakeBlock{32, false},
			fakeBlock{32, true},
			fakeBlock{32, false},
		)
		require.NoError(t, NoAdjacentFree(data))
	})

	t.Run("adjacent", func(t *testing.T) {
		data := buildHeap(t,
			fakeBlock{32, true},
			fakeBlock{48, false},
			fakeBlock{64, false},
		)
		err := NoAdjacentFree(data)
		verr := requireValidationType(t, err, "NoAdjacentFree")
		require.Equal(t, format.FirstPayload+32+48, verr.Offset)
	})
}

func TestPayloadAlignment_Valid(t *testing.T) {
	data := buildHeap(t, fakeBlock{32, true}, fakeBlock{48, true}, fakeBlock{96, false})
	require.NoError(t, PayloadAlignment(data))
}

func TestValidationError_Format(t *testing.T) {
	withOffset := &ValidationError{Type: "BlockChain", Message: "boom", Offset: 0x20}
	require.Equal(t, "BlockChain at offset 0x20: boom", withOffset.Error())

	noOffset := &ValidationError{Type: "Prologue", Message: "boom", Offset: -1}
	require.Equal(t, "Prologue: boom", noOffset.Error())
}
