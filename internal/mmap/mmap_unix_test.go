//go:build unix

package mmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapAnonUnix(t *testing.T) {
	data, cleanup, err := MapAnon(1 << 16)
	require.NoError(t, err)
	require.Len(t, data, 1<<16)

	// Fresh anonymous pages are zeroed and writable.
	require.Zero(t, data[0])
	require.Zero(t, data[len(data)-1])
	data[0], data[len(data)-1] = 0xAA, 0x55
	require.Equal(t, byte(0xAA), data[0])

	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "second cleanup must be a no-op")
}

func TestMapAnonRejectsZero(t *testing.T) {
	_, _, err := MapAnon(0)
	require.Error(t, err)
}
