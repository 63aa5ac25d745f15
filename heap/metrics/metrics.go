// Package metrics exports allocator events as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	obs, err := metrics.New(reg)
//	...
//	a, err := alloc.New(ar, alloc.WithObserver(obs))
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/joshuapare/brkheap/heap/alloc"
)

const namespace = "brkheap"

// Observer implements alloc.Observer on top of Prometheus collectors.
type Observer struct {
	allocs       *prometheus.CounterVec
	frees        prometheus.Counter
	extendBytes  prometheus.Counter
	coalesces    *prometheus.CounterVec
	heapBytes    prometheus.Gauge
	inUseBytes   prometheus.Gauge
	requestBytes prometheus.Histogram
}

var _ alloc.Observer = (*Observer)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		allocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alloc_total",
			Help:      "Allocation requests by result (hit, extended, failed).",
		}, []string{"result"}),
		frees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "free_total",
			Help:      "Blocks released.",
		}),
		extendBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extend_bytes_total",
			Help:      "Bytes obtained from the arena by heap extensions.",
		}),
		coalesces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coalesce_total",
			Help:      "Merges of adjacent free blocks by neighbour kind.",
		}, []string{"kind"}),
		heapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_bytes",
			Help:      "Bytes between the prologue and the epilogue.",
		}),
		inUseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_use_bytes",
			Help:      "Total size of allocated blocks, tags included.",
		}),
		requestBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alloc_request_bytes",
			Help:      "Requested payload sizes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8), // 16 B .. 256 KiB
		}),
	}

	for _, c := range []prometheus.Collector{
		o.allocs, o.frees, o.extendBytes, o.coalesces,
		o.heapBytes, o.inUseBytes, o.requestBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	// Expose every label up front so a scrape shows zeros instead of gaps.
	for _, r := range []string{"hit", "extended", "failed"} {
		o.allocs.WithLabelValues(r)
	}
	for _, m := range []alloc.Merge{alloc.MergeNext, alloc.MergePrev, alloc.MergeBoth} {
		o.coalesces.WithLabelValues(m.String())
	}
	return o, nil
}

// OnAlloc counts a successful allocation as a hit or an extension and raises the in-use gauge.
func (o *Observer) OnAlloc(requested, blockSize int, extended bool) {
	result := "hit"
	if extended {
		result = "extended"
	}
	o.allocs.WithLabelValues(result).Inc()
	o.requestBytes.Observe(float64(requested))
	o.inUseBytes.Add(float64(blockSize))
}

// OnAllocFailed counts a refused allocation. Its size still lands in the request histogram.
func (o *Observer) OnAllocFailed(requested int, _ error) {
	o.allocs.WithLabelValues("failed").Inc()
	o.requestBytes.Observe(float64(requested))
}

// OnFree counts a free and lowers the in-use gauge.
func (o *Observer) OnFree(blockSize int) {
	o.frees.Inc()
	o.inUseBytes.Sub(float64(blockSize))
}

// OnExtend adds the growth to the heap size gauge and the extension counter.
func (o *Observer) OnExtend(bytes int) {
	o.extendBytes.Add(float64(bytes))
	o.heapBytes.Add(float64(bytes))
}

// OnCoalesce counts a merge by kind.
func (o *Observer) OnCoalesce(kind alloc.Merge) {
	o.coalesces.WithLabelValues(kind.String()).Inc()
}

// WriteText gathers g and writes it in the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
