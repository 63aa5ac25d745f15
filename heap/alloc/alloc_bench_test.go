package alloc

import (
	"math/rand"
	"testing"

	"github.com/joshuapare/brkheap/heap/arena"
)

func newBenchAllocator(b *testing.B, capacity int) *Allocator {
	b.Helper()
	ar, err := arena.New(capacity)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { ar.Close() })
	a, err := New(ar)
	if err != nil {
		b.Fatal(err)
	}
	return a
}

// Benchmark_Alloc_FreeSameSize measures the steady state where every request
// is served by the block just released.
func Benchmark_Alloc_FreeSameSize(b *testing.B) {
	a := newBenchAllocator(b, 1<<20)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		p, err := a.Alloc(64)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Free(p); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark_Alloc_MixedLive keeps a window of live blocks so the first-fit
// scan has to step over allocated blocks.
func Benchmark_Alloc_MixedLive(b *testing.B) {
	a := newBenchAllocator(b, 64<<20)
	rng := rand.New(rand.NewSource(1))

	const window = 256
	ring := make([]Ptr, window)

	b.ResetTimer()
	b.ReportAllocs()

	for i := range b.N {
		slot := i % window
		if ring[slot] != Nil {
			if err := a.Free(ring[slot]); err != nil {
				b.Fatal(err)
			}
		}
		p, err := a.Alloc(16 + rng.Intn(1024))
		if err != nil {
			b.Fatal(err)
		}
		ring[slot] = p
	}
}
