package notify

import (
	"context"
	"fmt"
)

//go:generate mockgen -package=notify_test -destination=mock_sender_test.go -source=sender.go Sender

// Sender delivers one message body to one address and returns the
// transport's message ID
type Sender interface {
	Send(ctx context.Context, body, from, to string) (string, error)
}

// DeliveryError is a failed delivery to a single recipient. It never aborts
// delivery to the others.
type DeliveryError struct {
	Recipient string
	Channel   string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s via %s failed: %v", e.Recipient, e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
