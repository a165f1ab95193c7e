package sms

import (
	"context"
	"log"
	"time"
)

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 50
	maxAttempts      = 3
)

// Worker polls the outbox and delivers pending messages through the
// gateway. A message is retried until maxAttempts, then marked failed.
type Worker struct {
	repo      Repository
	gateway   Gateway
	interval  time.Duration
	batchSize int
}

func NewWorker(repo Repository, gateway Gateway) *Worker {
	return &Worker{
		repo:      repo,
		gateway:   gateway,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
}

// Run polls until ctx is cancelled. Meant to be started as a goroutine from
// main.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.DeliverPending(ctx); err != nil {
				log.Printf("sms worker: %v", err)
			}
		}
	}
}

// DeliverPending processes one batch. Exported so tests and the sweep can
// drive it without the ticker.
func (w *Worker) DeliverPending(ctx context.Context) error {
	batch, err := w.repo.NextBatch(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, msg := range batch {
		if err := w.gateway.SendMessage(ctx, msg.PhoneNumber, msg.Body); err != nil {
			attempts := msg.Attempts + 1
			log.Printf("sms delivery failed phone=%s attempt=%d err=%v", msg.PhoneNumber, attempts, err)
			markErr := w.repo.RecordAttempt(ctx, msg.ID, attempts)
			if markErr == nil && attempts >= maxAttempts {
				markErr = w.repo.MarkFailed(ctx, msg.ID, attempts)
			}
			if markErr != nil {
				return markErr
			}
			continue
		}
		if err := w.repo.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}
