package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
)

// Pool drains audit deliveries into the audit_events table with a fixed
// number of workers.
type Pool struct {
	deliveries <-chan amqp.Delivery
	audits     repo.AuditRepository
	logger     *zap.Logger
	count      int
	recorder   Recorder
	wg         sync.WaitGroup
	stop       chan struct{}
	stopOnce   sync.Once
}

// Recorder is told the outcome of every delivery: "stored", "dropped" or
// "requeued".
type Recorder interface {
	AuditProcessed(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuditProcessed(string) {}

func NewPool(deliveries <-chan amqp.Delivery, audits repo.AuditRepository, logger *zap.Logger, count int) *Pool {
	if count <= 0 {
		count = 1
	}
	return &Pool{
		deliveries: deliveries,
		audits:     audits,
		logger:     logger,
		count:      count,
		recorder:   nopRecorder{},
		stop:       make(chan struct{}),
	}
}

// WithRecorder must be called before Start.
func (p *Pool) WithRecorder(r Recorder) *Pool {
	p.recorder = r
	return p
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting audit worker pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.logger.Info("Stopping audit worker pool...")
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
	p.logger.Info("Audit worker pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case d, ok := <-p.deliveries:
			if !ok {
				return
			}
			p.handle(ctx, id, d)
		}
	}
}

// handle acks stored events, drops undecodable ones and requeues on storage
// failure.
func (p *Pool) handle(ctx context.Context, workerID int, d amqp.Delivery) {
	event, err := decode(d.Body)
	if err != nil {
		p.logger.Error("dropping malformed audit message", zap.Int("worker", workerID), zap.Error(err))
		if err := d.Nack(false, false); err != nil {
			p.logger.Error("nack failed", zap.Error(err))
		}
		p.recorder.AuditProcessed("dropped")
		return
	}

	stored, err := p.audits.Create(ctx, event)
	if err != nil {
		p.logger.Error("store audit event", zap.Int("worker", workerID), zap.Error(err))
		if err := d.Nack(false, true); err != nil {
			p.logger.Error("nack failed", zap.Error(err))
		}
		p.recorder.AuditProcessed("requeued")
		return
	}

	if err := d.Ack(false); err != nil {
		p.logger.Error("ack failed", zap.Error(err))
		return
	}
	p.recorder.AuditProcessed("stored")
	p.logger.Debug("audit event stored",
		zap.Int("worker", workerID),
		zap.Int64("id", stored.ID),
		zap.String("action", string(stored.Action)),
	)
}

func decode(body []byte) (model.AuditEvent, error) {
	var e model.AuditEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return e, fmt.Errorf("decode audit event: %w", err)
	}
	if e.Action == "" || e.SubjectType == "" || e.OccurredAt.IsZero() {
		return e, fmt.Errorf("decode audit event: missing fields")
	}
	return e, nil
}
