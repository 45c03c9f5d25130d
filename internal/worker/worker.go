// Package worker delivers booking confirmations queued on the bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Chamindu77/SFBS-Backend/internal/notify"
)

type source interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

type Worker struct {
	src      source
	notifier notify.Notifier
}

func New(src source, n notify.Notifier) *Worker {
	return &Worker{src: src, notifier: n}
}

// Run consumes until ctx is done or the channel closes. Confirmations are
// never retried: a failed delivery is logged and dropped.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.src.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, d.RoutingKey, d.Body); err != nil {
				log.Printf("[notify] handle error key=%s err=%v -> drop", d.RoutingKey, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.
func (w *Worker) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case notify.RKBookingCreated:
		var msg notify.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode payload failed: %w", err)
		}
		if msg.To == "" {
			return errors.New("message without recipient")
		}
		return w.notifier.Notify(ctx, msg.To, msg.Summary)
	default:
		log.Printf("[notify] skip unknown key=%s", key)
	}
	return nil
}
