package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/brkheap/heap/alloc"
	"github.com/joshuapare/brkheap/heap/arena"
	"github.com/joshuapare/brkheap/internal/logger"
)

// heapConfig is the resolved form of the heap flags.
type heapConfig struct {
	Capacity  int
	ChunkSize int
	Backing   arena.Backing
}

func resolveHeapConfig() (heapConfig, error) {
	capBytes, err := humanize.ParseBytes(capacityFlag)
	if err != nil {
		return heapConfig{}, fmt.Errorf("invalid --capacity %q: %w", capacityFlag, err)
	}
	if capBytes == 0 || capBytes > uint64(math.MaxInt) {
		return heapConfig{}, fmt.Errorf("invalid --capacity %q: out of range", capacityFlag)
	}
	b, err := arena.ParseBacking(backingFlag)
	if err != nil {
		return heapConfig{}, err
	}
	return heapConfig{Capacity: int(capBytes), ChunkSize: chunkSize, Backing: b}, nil
}

// openHeap reserves an arena from the flags and lays out a heap in it.
// The caller must Close the returned arena.
func openHeap(obs alloc.Observer) (*alloc.Allocator, *arena.Arena, error) {
	cfg, err := resolveHeapConfig()
	if err != nil {
		return nil, nil, err
	}

	printVerbose("Reserving %s arena (%s backing)\n", humanize.IBytes(uint64(cfg.Capacity)), cfg.Backing)

	ar, err := arena.New(cfg.Capacity, arena.WithBacking(cfg.Backing), arena.WithLogger(logger.L))
	if err != nil {
		return nil, nil, err
	}

	opts := []alloc.Option{
		alloc.WithChunkSize(cfg.ChunkSize),
		alloc.WithLogger(logger.L),
	}
	if obs != nil {
		opts = append(opts, alloc.WithObserver(obs))
	}
	a, err := alloc.New(ar, opts...)
	if err != nil {
		ar.Close()
		return nil, nil, err
	}
	return a, ar, nil
}

// heapReport is the JSON form of a heap's final state.
type heapReport struct {
	Capacity        int     `json:"capacity"`
	Backing         string  `json:"backing"`
	HeapBytes       int     `json:"heap_bytes"`
	Blocks          int     `json:"blocks"`
	FreeBlocks      int     `json:"free_blocks"`
	AllocatedBlocks int     `json:"allocated_blocks"`
	FreeBytes       int     `json:"free_bytes"`
	AllocatedBytes  int     `json:"allocated_bytes"`
	LargestFree     int     `json:"largest_free"`
	Fragmentation   float64 `json:"fragmentation"`
	Extensions      int     `json:"extensions"`
	Splits          int     `json:"splits"`
	Coalesces       int     `json:"coalesces"`
	PeakInUse       int64   `json:"peak_in_use"`
}

func newHeapReport(a *alloc.Allocator) (heapReport, error) {
	sum, err := a.Summary()
	if err != nil {
		return heapReport{}, err
	}
	st := a.Stats()
	return heapReport{
		Capacity:        a.Arena().Max(),
		Backing:         a.Arena().Backing().String(),
		HeapBytes:       sum.HeapBytes,
		Blocks:          sum.Blocks,
		FreeBlocks:      sum.FreeBlocks,
		AllocatedBlocks: sum.AllocatedBlocks,
		FreeBytes:       sum.FreeBytes,
		AllocatedBytes:  sum.AllocatedBytes,
		LargestFree:     sum.LargestFree,
		Fragmentation:   sum.Fragmentation(),
		Extensions:      st.Extensions,
		Splits:          st.Splits,
		Coalesces:       st.CoalesceNext + st.CoalescePrev + st.CoalesceBoth,
		PeakInUse:       st.PeakInUse,
	}, nil
}

func printHeapReport(r heapReport) {
	printInfo("\nHeap:\n")
	printInfo("  Arena:         %s (%s)\n", humanize.IBytes(uint64(r.Capacity)), r.Backing)
	printInfo("  Heap size:     %s\n", humanize.IBytes(uint64(r.HeapBytes)))
	printInfo("  Blocks:        %s (%s allocated, %s free)\n",
		counts.Sprintf("%d", r.Blocks),
		counts.Sprintf("%d", r.AllocatedBlocks),
		counts.Sprintf("%d", r.FreeBlocks))
	printInfo("  In use:        %s\n", humanize.IBytes(uint64(r.AllocatedBytes)))
	printInfo("  Free:          %s (largest %s)\n",
		humanize.IBytes(uint64(r.FreeBytes)), humanize.IBytes(uint64(r.LargestFree)))
	printInfo("  Fragmentation: %.1f%%\n", r.Fragmentation*100)
	printInfo("  Peak in use:   %s\n", humanize.IBytes(uint64(r.PeakInUse)))
	printInfo("  Extensions:    %s\n", counts.Sprintf("%d", r.Extensions))
	printInfo("  Splits:        %s\n", counts.Sprintf("%d", r.Splits))
	printInfo("  Coalesces:     %s\n", counts.Sprintf("%d", r.Coalesces))
}
