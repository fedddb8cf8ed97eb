package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/etherealapi/identity-platform/internal/api/metrics"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher is the asynchronous audit trail. It routes audit events to a
// fixed set of workers using consistent hashing on the principal id, which
// keeps the events of one principal in emission order. Events are
// fire-and-forget; a full worker channel drops the event with a warning
// rather than blocking the emitting operation.
type Dispatcher struct {
	workers []chan ports.AuditEvent
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.AuditEvent, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AuditEvent, channelBuffer)
	}
	return d
}

var _ ports.AuditSink = (*Dispatcher)(nil)

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Emit hands an event to the worker responsible for its principal.
func (d *Dispatcher) Emit(event ports.AuditEvent) {
	shard := d.shardIndex(event.PrincipalID)
	select {
	case d.workers[shard] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(len(d.workers[shard])))
	default:
		d.log.Warn().
			Str("action", event.Action).
			Str("principal_id", event.PrincipalID).
			Int("worker_id", shard).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a principal id deterministically to a worker index.
func (d *Dispatcher) shardIndex(principalID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(principalID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AuditEvent) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			entry := d.log.Info().
				Str("audit_action", event.Action).
				Str("principal_type", event.PrincipalType).
				Str("principal_id", event.PrincipalID).
				Time("at", event.At)
			for k, v := range event.Details {
				entry = entry.Str(k, v)
			}
			entry.Msg("audit event")

			metrics.AuditEventsTotal.WithLabelValues(event.Action).Inc()
			metrics.AuditQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
		}
	}
}
