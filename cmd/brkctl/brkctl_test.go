package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.trace")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDemo_Text(t *testing.T) {
	out, err := runCLI(t, "demo")
	require.NoError(t, err)

	require.Contains(t, out, "extended heap by 4.0 KiB")
	require.Contains(t, out, "search hit: 1,024 bytes in a 1,040-byte block")
	require.Contains(t, out, "free: 1,040-byte block")
	require.Contains(t, out, "coalesced with next")
	require.Contains(t, out, "Arena:         100 MiB (heap)")
	require.Contains(t, out, "Blocks:        1 (0 allocated, 1 free)")
}

func TestDemo_JSON(t *testing.T) {
	out, err := runCLI(t, "demo", "--json", "--size", "5000", "--capacity", "1MiB")
	require.NoError(t, err)

	var res demoResult
	decodeJSON(t, out, &res)
	require.Equal(t, 5000, res.Requested)
	require.Equal(t, "0x20", res.Ptr)
	require.Equal(t, 5024, res.BlockSize)
	require.True(t, res.Extended)
	require.Equal(t, 1<<20, res.Heap.Capacity)
	require.Equal(t, 4096+5024, res.Heap.HeapBytes)
	require.Equal(t, 1, res.Heap.FreeBlocks)
	require.Equal(t, 2, res.Heap.Extensions)
}

func TestDemo_Quiet(t *testing.T) {
	out, err := runCLI(t, "demo", "-q")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDemo_ExhaustedArena(t *testing.T) {
	_, err := runCLI(t, "demo", "--capacity", "8KiB", "--size", "65536")
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of memory")
}

func TestDemo_InvalidFlags(t *testing.T) {
	_, err := runCLI(t, "demo", "--capacity", "lots")
	require.ErrorContains(t, err, "invalid --capacity")

	_, err = runCLI(t, "demo", "--backing", "tape")
	require.ErrorContains(t, err, "unknown backing")

	_, err = runCLI(t, "demo", "--chunk-size", "8")
	require.ErrorContains(t, err, "chunk size")
}

func TestDemo_MmapBacking(t *testing.T) {
	out, err := runCLI(t, "demo", "--json", "--backing", "mmap", "--capacity", "1MiB")
	require.NoError(t, err)

	var res demoResult
	decodeJSON(t, out, &res)
	require.Contains(t, []string{"mmap", "heap"}, res.Heap.Backing)
}

func TestConfig_FileAndEnv(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "brkctl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("chunk-size: 1024\ncapacity: 2MiB\n"), 0o600))

	out, err := runCLI(t, "demo", "--json", "--config", cfg, "--size", "10")
	require.NoError(t, err)
	var res demoResult
	decodeJSON(t, out, &res)
	require.Equal(t, 1024, res.Heap.HeapBytes)
	require.Equal(t, 2<<20, res.Heap.Capacity)

	// Environment applies when the flag is not given; the command line wins.
	t.Setenv("BRKCTL_CHUNK_SIZE", "2048")
	out, err = runCLI(t, "demo", "--json")
	require.NoError(t, err)
	decodeJSON(t, out, &res)
	require.Equal(t, 2048, res.Heap.HeapBytes)

	out, err = runCLI(t, "demo", "--json", "--chunk-size", "512")
	require.NoError(t, err)
	decodeJSON(t, out, &res)
	require.Equal(t, 512, res.Heap.HeapBytes)
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := runCLI(t, "demo", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "reading config")
}

func TestReplay_Text(t *testing.T) {
	path := writeTrace(t, "# reuse\na 0 1024\na 1 32\nf 0\na 2 900\nf 1\nf 2\n")

	out, err := runCLI(t, "replay", path, "--check", "--capacity", "1MiB")
	require.NoError(t, err)
	require.Contains(t, out, "Operations:    6")
	require.Contains(t, out, "Allocations:   3 (0 zero-size, 0 failed)")
	require.Contains(t, out, "Frees:         3 (0 skipped)")
	require.Contains(t, out, "Extensions:    1")
}

func TestReplay_JSONWithMetrics(t *testing.T) {
	path := writeTrace(t, "a 0 100\na 1 5000\nf 0\n")

	out, err := runCLI(t, "replay", path, "--json", "--metrics")
	require.NoError(t, err)

	// The JSON report comes first, the exposition text after it.
	idx := strings.Index(out, "# HELP")
	require.Positive(t, idx)

	var rep replayReport
	decodeJSON(t, out[:idx], &rep)
	require.Equal(t, 3, rep.Ops)
	require.Equal(t, 1, rep.Live)
	require.Equal(t, int64(5100), rep.PeakLiveBytes)

	require.Contains(t, out[idx:], `brkheap_alloc_total{result="extended"} 1`)
	require.Contains(t, out[idx:], "brkheap_free_total 1")
}

func TestReplay_Errors(t *testing.T) {
	_, err := runCLI(t, "replay", writeTrace(t, "a 0 8\nr 0 16\n"))
	require.ErrorContains(t, err, ":2: realloc is not supported")

	_, err = runCLI(t, "replay", writeTrace(t, "f 3\n"))
	require.ErrorContains(t, err, "unknown id")

	_, err = runCLI(t, "replay")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "brkctl dev")

	out, err = runCLI(t, "version", "--json")
	require.NoError(t, err)
	var got map[string]string
	decodeJSON(t, out, &got)
	require.Equal(t, "dev", got["version"])
}

func TestVersion_JSONWriteError(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	// A closed stdout makes the JSON encoder fail.
	closed, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	require.NoError(t, closed.Close())

	orig := os.Stdout
	os.Stdout = closed
	t.Cleanup(func() { os.Stdout = orig })

	rootCmd.SetArgs([]string{"version", "--json"})
	err = rootCmd.ExecuteContext(t.Context())
	require.ErrorIs(t, err, os.ErrClosed)
}
