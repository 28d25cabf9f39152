package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/api/metrics"
	"github.com/agriops/farmops-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Recorder consumes drained usage events. TenantUsageMonitor satisfies it.
type Recorder interface {
	RecordOperation(tenantID, operation string, dataSize int64)
}

// Dispatcher routes usage events to a fixed set of workers using consistent
// hashing on the tenant ID, guaranteeing per-tenant ordering while keeping
// metering off the request path.
type Dispatcher struct {
	workers  []chan ports.UsageEvent
	recorder Recorder
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder Recorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.UsageEvent, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.UsageEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channels until
// Stop closes them; ctx cancellation aborts without draining.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a usage event to the worker responsible for its tenant.
// Events for a full worker channel are dropped rather than blocking the
// caller; metering is best-effort.
func (d *Dispatcher) Enqueue(event ports.UsageEvent) {
	if event.TenantID == "" {
		return
	}
	ch := d.workers[d.shardIndex(event.TenantID)]
	select {
	case ch <- event:
	default:
		d.log.Warn().
			Str("tenant_id", event.TenantID).
			Str("operation", event.Operation).
			Msg("usage event dropped, worker channel full")
	}
}

// Stop closes the worker channels and waits for the remaining events to be
// recorded. Enqueue must not be called after Stop.
func (d *Dispatcher) Stop() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

// shardIndex maps a tenant ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(tenantID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.UsageEvent) {
	defer d.wg.Done()
	depth := metrics.UsageQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.recorder.RecordOperation(event.TenantID, event.Operation, event.DataSize)
			metrics.UsageEventsProcessedTotal.WithLabelValues(event.Operation).Inc()
		}
	}
}
