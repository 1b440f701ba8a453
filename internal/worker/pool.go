package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"avatar-relay/internal/models"
)

// TurnRecorder persists completed turns to the audit log.
type TurnRecorder interface {
	Record(ctx context.Context, ev *models.TurnEvent) error
}

// EventPublisher pushes events to live listeners.
type EventPublisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

const sinkTimeout = 10 * time.Second

// Pool drains completed turns into the recorder and publisher off the
// request path. Either sink may be nil.
type Pool struct {
	queue       chan models.TurnEvent
	recorder    TurnRecorder
	publisher   EventPublisher
	workerCount int
	wg          sync.WaitGroup
	stopOnce    sync.Once
	stopChan    chan struct{}
}

func NewPool(recorder TurnRecorder, publisher EventPublisher, workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		queue:       make(chan models.TurnEvent, queueSize),
		recorder:    recorder,
		publisher:   publisher,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	slog.Info("turn workers started", "workers", p.workerCount)
}

// Stop lets the workers finish what is already queued, then returns.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
}

// Submit enqueues ev without blocking; the event is dropped when the queue is
// full or the pool is stopping.
func (p *Pool) Submit(ev models.TurnEvent) {
	select {
	case <-p.stopChan:
		slog.Warn("turn event dropped, pool stopped", "turn_id", ev.ID)
		return
	default:
	}

	select {
	case p.queue <- ev:
	default:
		slog.Warn("turn event dropped, queue full", "turn_id", ev.ID)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case ev := <-p.queue:
			p.process(id, ev)
		case <-p.stopChan:
			for {
				select {
				case ev := <-p.queue:
					p.process(id, ev)
				default:
					slog.Debug("turn worker shutting down", "worker", id)
					return
				}
			}
		}
	}
}

func (p *Pool) process(id int, ev models.TurnEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, &ev); err != nil {
			slog.Error("failed to record turn", "worker", id, "turn_id", ev.ID, "error", err)
		}
	}

	if p.publisher != nil {
		msg := models.WSMessage{Type: "turn_completed", Payload: ev}
		if err := p.publisher.Publish(ctx, msg); err != nil {
			slog.Error("failed to publish turn", "worker", id, "turn_id", ev.ID, "error", err)
		}
	}
}
