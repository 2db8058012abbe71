package engine

import (
	"context"
	"sync"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
	"github.com/gmsas95/medremind/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Repository is the durable side of the engine
type Repository interface {
	LoadMedicines(ctx context.Context) ([]medication.Medicine, error)
	LoadLogs(ctx context.Context) ([]medication.LogEntry, error)
	LoadAlert(ctx context.Context) (medication.CaregiverAlert, error)
	SaveMedicine(ctx context.Context, m medication.Medicine) error
	DeleteMedicine(ctx context.Context, id string) error
	SaveLogs(ctx context.Context, entries ...medication.LogEntry) error
	SaveAlert(ctx context.Context, alert medication.CaregiverAlert) error
}

type writeOp struct {
	name    string
	fn      func(ctx context.Context, repo Repository) error
	barrier chan struct{}
}

// persister applies writes in order on one goroutine. Callers enqueue and
// move on; failures are logged and counted, never returned.
type persister struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	cb      *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	ops    chan writeOp
	done   chan struct{}
}

func newPersister(repo Repository, logger *zap.Logger, m *metrics.Metrics, buffer int) *persister {
	p := &persister{
		repo:    repo,
		logger:  logger,
		metrics: m,
		timeout: 5 * time.Second,
		ops:     make(chan writeOp, buffer),
		done:    make(chan struct{}),
	}
	p.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Persistence breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	go p.run()
	return p
}

// enqueue never blocks. When the writer has fallen behind and the queue is
// full the write is dropped and counted as a persistence failure.
func (p *persister) enqueue(name string, fn func(ctx context.Context, repo Repository) error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("Dropping write after close", zap.String("op", name))
		return
	}

	select {
	case p.ops <- writeOp{name: name, fn: fn}:
	default:
		p.logger.Error("Persistence queue full, dropping write",
			zap.String("op", name),
			zap.Int("queued", len(p.ops)))
		if p.metrics != nil {
			p.metrics.RecordPersistFailure()
		}
	}
}

// flush waits until every write enqueued before the call has been applied
func (p *persister) flush(ctx context.Context) error {
	barrier := make(chan struct{})

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil
	}
	select {
	case p.ops <- writeOp{name: "flush", barrier: barrier}:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the writer
func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.ops)
	p.mu.Unlock()
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)

	for op := range p.ops {
		if op.barrier != nil {
			close(op.barrier)
			continue
		}
		p.apply(op)
	}
}

func (p *persister) apply(op writeOp) {
	_, err := p.cb.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		return struct{}{}, op.fn(ctx, p.repo)
	})
	if err != nil {
		p.logger.Error("Persist failed", zap.String("op", op.name), zap.Error(err))
		if p.metrics != nil {
			p.metrics.RecordPersistFailure()
		}
	}
}
