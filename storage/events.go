package storage

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"taskflow/domain"
)

type eventQueue interface {
	EnqueueEvent(ctx context.Context, userID string, ev domain.Event) error
}

type eventJob struct {
	userID  string
	event   domain.Event
	attempt int
}

// PublisherConfig tunes the asynchronous event publisher.
type PublisherConfig struct {
	BufferSize     int
	WorkerCount    int
	EnqueueTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
	MaxAttempts    int
}

// Publisher ships activity feed events to the queue off the request path.
// Delivery is best effort: a saturated buffer or exhausted retries drop the
// event with a log line, never failing the originating mutation.
type Publisher struct {
	cfg    PublisherConfig
	queue  eventQueue
	logger *log.Logger

	jobs      chan eventJob
	stopCh    chan struct{}
	workerWG  sync.WaitGroup
	retryWG   sync.WaitGroup
	closed    atomic.Bool
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewPublisher creates and starts a Publisher on the given queue backend.
func NewPublisher(queue eventQueue, logger *log.Logger, cfg PublisherConfig) *Publisher {
	if queue == nil {
		panic("storage.NewPublisher: queue backend is nil")
	}
	if logger == nil {
		panic("storage.NewPublisher: logger is nil")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 30 * time.Second
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 250 * time.Millisecond
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	p := &Publisher{
		cfg:    cfg,
		queue:  queue,
		logger: logger,
		jobs:   make(chan eventJob, cfg.BufferSize),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		p.workerWG.Add(1)
		go p.worker()
	}
	return p
}

// Publish hands an event to the background workers without blocking.
func (p *Publisher) Publish(userID string, ev domain.Event) {
	if p.closed.Load() {
		return
	}
	job := eventJob{userID: userID, event: ev}
	select {
	case p.jobs <- job:
	default:
		p.dropped.Add(1)
		p.logger.WithFields(log.Fields{
			"event_type": ev.Type,
			"entity_id":  ev.EntityID,
		}).Warn("event publisher saturated, dropping event")
	}
}

// Close stops the workers, then waits out scheduled retries. Workers are
// the only callers of scheduleRetry, so they must be fully drained before
// the retry wait or a late retryWG.Add races the Wait. Buffered but
// undelivered events are dropped.
func (p *Publisher) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.stopCh)
	p.workerWG.Wait()
	p.retryWG.Wait()
}

func (p *Publisher) worker() {
	defer p.workerWG.Done()
	for {
		select {
		case job := <-p.jobs:
			p.deliver(job)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Publisher) deliver(job eventJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.EnqueueTimeout)
	err := p.queue.EnqueueEvent(ctx, job.userID, job.event)
	cancel()
	if err == nil {
		p.delivered.Add(1)
		return
	}

	job.attempt++
	if job.attempt >= p.cfg.MaxAttempts {
		p.dropped.Add(1)
		p.logger.WithError(err).WithFields(log.Fields{
			"event_type": job.event.Type,
			"entity_id":  job.event.EntityID,
			"attempts":   job.attempt,
		}).Error("event delivery failed, giving up")
		return
	}

	p.logger.WithError(err).WithFields(log.Fields{
		"event_type": job.event.Type,
		"attempt":    job.attempt,
	}).Warn("event delivery failed, scheduling retry")
	p.scheduleRetry(job)
}

func (p *Publisher) scheduleRetry(job eventJob) {
	delay := exponentialBackoff(job.attempt, p.cfg.RetryInitial, p.cfg.RetryMax)
	p.retryWG.Add(1)
	timer := time.NewTimer(delay)
	go func() {
		defer p.retryWG.Done()
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case p.jobs <- job:
			case <-p.stopCh:
			}
		case <-p.stopCh:
		}
	}()
}

// Stats reports delivery counters, used by tests and diagnostics.
func (p *Publisher) Stats() (delivered, dropped uint64) {
	return p.delivered.Load(), p.dropped.Load()
}

func exponentialBackoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 0 {
		return initial
	}
	backoff := float64(initial) * math.Pow(2, float64(attempt-1))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	jitter := 0.2 * backoff
	return time.Duration(backoff + (rand.Float64()-0.5)*2*jitter)
}
