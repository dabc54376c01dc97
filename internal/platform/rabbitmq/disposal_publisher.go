package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"ecotrace/internal/model"
)

type DisposalPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewDisposalPublisher(conn *amqp.Connection, queueName string) *DisposalPublisher {
	return &DisposalPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *DisposalPublisher) Publish(ctx context.Context, event model.DisposalEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal disposal event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish disposal event failed: %w", err)
	}
	return nil
}
