package notify

import (
	"context"
	"fmt"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// MQNotifier hands the confirmation to the notification worker through the
// booking exchange.
type MQNotifier struct {
	pub jsonPublisher
}

func NewMQNotifier(pub jsonPublisher) *MQNotifier {
	return &MQNotifier{pub: pub}
}

func (n *MQNotifier) Notify(ctx context.Context, to string, s Summary) error {
	if err := n.pub.PublishJSON(ctx, RKBookingCreated, Message{To: to, Summary: s}); err != nil {
		return fmt.Errorf("publish %s: %w", RKBookingCreated, err)
	}
	return nil
}
