package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/brkheap/heap/alloc"
)

var demoSize int

func init() {
	cmd := newDemoCmd()
	cmd.Flags().IntVar(&demoSize, "size", 1024, "Bytes to allocate")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Initialize a heap, allocate one block and free it",
		Long: `The demo command lays out a fresh heap, allocates --size bytes, frees
them again and prints each allocator event followed by the final heap state.

Example:
  brkctl demo
  brkctl demo --size 8000 --chunk-size 1024
  brkctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	return cmd
}

// demoResult is the JSON form of a demo run.
type demoResult struct {
	Requested int        `json:"requested"`
	Ptr       string     `json:"ptr"`
	BlockSize int        `json:"block_size"`
	Extended  bool       `json:"extended"`
	Events    []string   `json:"events"`
	Heap      heapReport `json:"heap"`
}

func runDemo() error {
	events := &progressObserver{}
	a, ar, err := openHeap(events)
	if err != nil {
		return err
	}
	defer ar.Close()

	p, err := a.Alloc(demoSize)
	if err != nil {
		return err
	}
	blockSize := events.lastGranted
	extended := events.lastExtended

	if err := a.Free(p); err != nil {
		return err
	}
	if err := a.Check(); err != nil {
		return err
	}

	report, err := newHeapReport(a)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(demoResult{
			Requested: demoSize,
			Ptr:       p.String(),
			BlockSize: blockSize,
			Extended:  extended,
			Events:    events.lines,
			Heap:      report,
		})
	}

	for _, line := range events.lines {
		printInfo("%s\n", line)
	}
	printInfo("Allocated %s at %v (block %s)\n",
		humanize.IBytes(uint64(demoSize)), p, humanize.IBytes(uint64(blockSize)))
	printHeapReport(report)
	return nil
}

// progressObserver records allocator events as human-readable lines.
type progressObserver struct {
	lines        []string
	lastGranted  int
	lastExtended bool
}

func (o *progressObserver) OnAlloc(requested, blockSize int, extended bool) {
	o.lastGranted = blockSize
	o.lastExtended = extended
	if !extended {
		o.lines = append(o.lines, counts.Sprintf("search hit: %d bytes in a %d-byte block", requested, blockSize))
		return
	}
	o.lines = append(o.lines, counts.Sprintf("allocated %d bytes in a %d-byte block from new memory", requested, blockSize))
}

func (o *progressObserver) OnAllocFailed(requested int, err error) {
	o.lines = append(o.lines, counts.Sprintf("out of memory: %d bytes: %v", requested, err))
}

func (o *progressObserver) OnFree(blockSize int) {
	o.lines = append(o.lines, counts.Sprintf("free: %d-byte block", blockSize))
}

func (o *progressObserver) OnExtend(bytes int) {
	o.lines = append(o.lines, "extended heap by "+humanize.IBytes(uint64(bytes)))
}

func (o *progressObserver) OnCoalesce(kind alloc.Merge) {
	o.lines = append(o.lines, "coalesced with "+kind.String())
}
