package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ecotrace/internal/model"
)

// StatsStore accumulates community-wide disposal counters.
type StatsStore interface {
	Add(ctx context.Context, co2, kwh int64) error
}

// CommunityStatsWorker consumes disposal events and folds them into the
// site-wide redis counters. It runs outside the tracker transaction, so a
// dropped event skews community stats but never the per-user totals.
type CommunityStatsWorker struct {
	conn      *amqp.Connection
	stats     StatsStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCommunityStatsWorker(conn *amqp.Connection, stats StatsStore, queueName string) *CommunityStatsWorker {
	return &CommunityStatsWorker{
		conn:      conn,
		stats:     stats,
		queueName: queueName,
	}
}

func (w *CommunityStatsWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handleDelivery(workerCtx, d)
			}
		}
	}()

	return nil
}

// handleDelivery folds one disposal event into the counters. Failures nack
// without requeue: community stats are advisory, and an immediate requeue
// with redis down would just spin the worker against the broker.
func (w *CommunityStatsWorker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event model.DisposalEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		log.Printf("worker decode disposal event failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.stats.Add(ctx, event.DeviceCO2, event.DeviceKWh); err != nil {
		log.Printf("worker update community stats failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *CommunityStatsWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
