package alloc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/brkheap/heap/arena"
	"github.com/joshuapare/brkheap/heap/verify"
	"github.com/joshuapare/brkheap/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh arena of the given capacity.
// The arena is released when the test ends.
func newTestAllocator(t testing.TB, capacity int, opts ...Option) *Allocator {
	t.Helper()

	ar, err := arena.New(capacity)
	require.NoError(t, err, "failed to create arena")
	t.Cleanup(func() { ar.Close() })

	a, err := New(ar, opts...)
	require.NoError(t, err, "failed to create allocator")
	return a
}

// layoutBlock describes one block for newTestAllocatorWithLayout.
type layoutBlock struct {
	size      int
	allocated bool
}

func free(size int) layoutBlock { return layoutBlock{size: size} }
func used(size int) layoutBlock { return layoutBlock{size: size, allocated: true} }

// newTestAllocatorWithLayout creates an allocator whose initial chunk is
// rewritten into the given blocks. The sizes must add up to the chunk size
// (4096 by default), so the epilogue stays where New put it.
func newTestAllocatorWithLayout(t testing.TB, blocks ...layoutBlock) *Allocator {
	t.Helper()

	a := newTestAllocator(t, 1<<20)
	total := 0
	for _, b := range blocks {
		total += b.size
	}
	require.Equal(t, a.chunkSize, total, "layout must fill the initial chunk exactly")

	bp := format.FirstPayload
	for _, b := range blocks {
		format.SetTags(a.mem, bp, b.size, b.allocated)
		if b.allocated {
			a.stats.BytesInUse += int64(b.size)
		}
		bp += b.size
	}
	return a
}

// ============================================================================
// Inspection Utilities
// ============================================================================

// getBlock returns the decoded block whose payload starts at p.
func getBlock(t testing.TB, a *Allocator, p Ptr) format.Block {
	t.Helper()
	blk, err := format.DecodeBlock(a.heap(), int(p))
	require.NoError(t, err, "decode block at %v", p)
	return blk
}

// blocks returns the chain as seen by Walk.
func blocks(t testing.TB, a *Allocator) []Block {
	t.Helper()
	var out []Block
	require.NoError(t, a.Walk(func(b Block) bool {
		out = append(out, b)
		return true
	}))
	return out
}

// assertInvariants checks every structural invariant plus the byte
// accounting between the chain and the counters.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()

	require.NoError(t, verify.AllInvariants(a.heap()), "heap invariants violated")

	sum, err := a.Summary()
	require.NoError(t, err)
	require.Equal(t, sum.HeapBytes, sum.FreeBytes+sum.AllocatedBytes, "block sizes must cover the heap")
	require.Equal(t, a.Stats().BytesInUse, int64(sum.AllocatedBytes), "BytesInUse out of sync with chain")
}

// fill writes a recognizable pattern derived from seed into b.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// requirePattern checks that b still holds the pattern written by fill.
func requirePattern(t testing.TB, b []byte, seed byte) {
	t.Helper()
	want := make([]byte, len(b))
	fill(want, seed)
	require.True(t, bytes.Equal(want, b), "payload contents changed (seed %d)", seed)
}

// newDebugLogger returns a logger capturing every record as text.
func newDebugLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return l, &buf
}

// recordingObserver counts observer events.
type recordingObserver struct {
	allocs    int
	extended  int
	failed    int
	frees     int
	extendBy  []int
	coalesces map[Merge]int
	requested []int
	granted   []int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{coalesces: make(map[Merge]int)}
}

func (r *recordingObserver) OnAlloc(requested, blockSize int, extended bool) {
	r.allocs++
	if extended {
		r.extended++
	}
	r.requested = append(r.requested, requested)
	r.granted = append(r.granted, blockSize)
}

func (r *recordingObserver) OnAllocFailed(int, error) { r.failed++ }
func (r *recordingObserver) OnFree(int)               { r.frees++ }
func (r *recordingObserver) OnExtend(n int)           { r.extendBy = append(r.extendBy, n) }
func (r *recordingObserver) OnCoalesce(m Merge)       { r.coalesces[m]++ }
