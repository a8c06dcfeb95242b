package infrastructure

import (
	"context"
	"runtime"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics samples Go runtime memory after each pipeline step.
// The whole table is held in memory, so heap size tracks input size.
type RuntimeMetrics struct {
	heapAlloc   metric.Int64Gauge
	heapObjects metric.Int64Gauge
	gcCount     metric.Int64Gauge
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	heapObjects, err := meter.Int64Gauge(
		"runtime_heap_objects",
		metric.WithDescription("Number of allocated heap objects"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"runtime_gc_cycles",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{heapAlloc: heapAlloc, heapObjects: heapObjects, gcCount: gcCount}, nil
}

// MemoryStats is a snapshot of the runtime memory counters
type MemoryStats struct {
	HeapAlloc   uint64
	HeapObjects uint64
	NumGC       uint32
}

// Record samples the runtime and records the gauges
func (rm *RuntimeMetrics) Record(ctx context.Context, opts ...metric.RecordOption) MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := MemoryStats{HeapAlloc: ms.HeapAlloc, HeapObjects: ms.HeapObjects, NumGC: ms.NumGC}
	if rm == nil {
		return stats
	}

	rm.heapAlloc.Record(ctx, int64(ms.HeapAlloc), opts...)
	rm.heapObjects.Record(ctx, int64(ms.HeapObjects), opts...)
	rm.gcCount.Record(ctx, int64(ms.NumGC), opts...)
	return stats
}
