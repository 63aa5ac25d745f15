package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/brkheap/heap/alloc"
	"github.com/joshuapare/brkheap/heap/metrics"
	"github.com/joshuapare/brkheap/internal/logger"
	"github.com/joshuapare/brkheap/internal/trace"
)

var (
	replayCheck   bool
	replayVerify  bool
	replayMetrics bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Verify heap invariants after every operation")
	cmd.Flags().BoolVar(&replayVerify, "verify", true, "Fill payloads with a pattern and verify it before each free")
	cmd.Flags().BoolVar(&replayMetrics, "metrics", false, "Print Prometheus metrics after the run")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs an allocation trace against a fresh heap.
Each line is "a <id> <bytes>" or "f <id>"; lines starting with # are comments.

Example:
  brkctl replay workload.trace
  brkctl replay workload.trace --check --capacity 4MiB
  brkctl replay workload.trace --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args)
		},
	}
	return cmd
}

// replayReport is the JSON form of a replay run.
type replayReport struct {
	Trace         string     `json:"trace"`
	Ops           int        `json:"ops"`
	Allocs        int        `json:"allocs"`
	ZeroAllocs    int        `json:"zero_allocs"`
	FailedAllocs  int        `json:"failed_allocs"`
	Frees         int        `json:"frees"`
	SkippedFrees  int        `json:"skipped_frees"`
	Live          int        `json:"live"`
	PeakLiveBytes int64      `json:"peak_live_bytes"`
	Heap          heapReport `json:"heap"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	printVerbose("Parsing trace: %s\n", tracePath)
	ops, err := trace.ParseFile(tracePath)
	if err != nil {
		return err
	}
	printVerbose("Parsed %s operations\n", counts.Sprintf("%d", len(ops)))

	var (
		reg *prometheus.Registry
		obs alloc.Observer
	)
	if replayMetrics {
		reg = prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		obs = m
	}

	a, ar, err := openHeap(obs)
	if err != nil {
		return err
	}
	defer ar.Close()

	res, err := trace.Replay(cmd.Context(), a, ops, trace.Options{
		Check:  replayCheck,
		Verify: replayVerify,
		Logger: logger.L,
	})
	if err != nil {
		return err
	}

	heap, err := newHeapReport(a)
	if err != nil {
		return err
	}
	report := replayReport{
		Trace:         tracePath,
		Ops:           res.Ops,
		Allocs:        res.Allocs,
		ZeroAllocs:    res.ZeroAllocs,
		FailedAllocs:  res.FailedAllocs,
		Frees:         res.Frees,
		SkippedFrees:  res.SkippedFrees,
		Live:          res.Live,
		PeakLiveBytes: res.PeakLiveBytes,
		Heap:          heap,
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printReplayReport(report)
	}

	if replayMetrics && !quiet {
		return metrics.WriteText(os.Stdout, reg)
	}
	return nil
}

func printReplayReport(r replayReport) {
	printInfo("Trace: %s\n", r.Trace)
	printInfo("  Operations:    %s\n", counts.Sprintf("%d", r.Ops))
	printInfo("  Allocations:   %s (%s zero-size, %s failed)\n",
		counts.Sprintf("%d", r.Allocs),
		counts.Sprintf("%d", r.ZeroAllocs),
		counts.Sprintf("%d", r.FailedAllocs))
	printInfo("  Frees:         %s (%s skipped)\n",
		counts.Sprintf("%d", r.Frees), counts.Sprintf("%d", r.SkippedFrees))
	printInfo("  Live at end:   %s\n", counts.Sprintf("%d", r.Live))
	printInfo("  Peak live:     %s\n", humanize.IBytes(uint64(r.PeakLiveBytes)))
	printHeapReport(r.Heap)
}
