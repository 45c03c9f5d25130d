package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Chamindu77/SFBS-Backend/internal/notify"
)

type recorder struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (r *recorder) Notify(_ context.Context, to string, _ notify.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to)
	return r.err
}

type acks struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *acks) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acks) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		panic("confirmations must not be requeued")
	}
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *acks) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type chanSource chan amqp.Delivery

func (c chanSource) Deliveries(context.Context) (<-chan amqp.Delivery, error) { return c, nil }

func body(t *testing.T, to string) []byte {
	t.Helper()
	b, err := json.Marshal(notify.Message{To: to, Summary: notify.Summary{BookingID: "b-1"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandle(t *testing.T) {
	rec := &recorder{}
	w := New(nil, rec)
	ctx := context.Background()

	if err := w.Handle(ctx, notify.RKBookingCreated, body(t, "nimal@example.com")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(rec.to) != 1 || rec.to[0] != "nimal@example.com" {
		t.Fatalf("recipients = %v", rec.to)
	}

	if err := w.Handle(ctx, notify.RKBookingCreated, []byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := w.Handle(ctx, notify.RKBookingCreated, body(t, "")); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
	if err := w.Handle(ctx, "booking.cancelled", []byte("{}")); err != nil {
		t.Fatalf("unknown keys are skipped, got %v", err)
	}
}

func TestRun_AcksAndDrops(t *testing.T) {
	rec := &recorder{}
	ack := &acks{}
	src := make(chanSource, 3)
	src <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, RoutingKey: notify.RKBookingCreated, Body: body(t, "a@example.com")}
	src <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, RoutingKey: notify.RKBookingCreated, Body: []byte("garbage")}
	src <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, RoutingKey: notify.RKBookingCreated, Body: body(t, "b@example.com")}
	close(src)

	done := make(chan error, 1)
	go func() { done <- New(src, rec).Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after channel close")
	}

	if len(ack.acked) != 2 || len(ack.nacked) != 1 || ack.nacked[0] != 2 {
		t.Fatalf("acked=%v nacked=%v", ack.acked, ack.nacked)
	}
}

func TestRun_NotifierErrorIsDropped(t *testing.T) {
	rec := &recorder{err: errors.New("smtp down")}
	ack := &acks{}
	src := make(chanSource, 1)
	src <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, RoutingKey: notify.RKBookingCreated, Body: body(t, "a@example.com")}
	close(src)

	if err := New(src, rec).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ack.nacked) != 1 || ack.nacked[0] != 7 {
		t.Fatalf("nacked = %v", ack.nacked)
	}
}
