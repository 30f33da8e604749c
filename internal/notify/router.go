package notify

import (
	"context"
	"fmt"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// Router picks a Sender by the recipient's channel
type Router struct {
	senders map[string]Sender
}

// NewRouter creates an empty Router
func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

// Handle registers the sender for a channel
func (r *Router) Handle(channel string, s Sender) *Router {
	r.senders[channel] = s
	return r
}

// Send forwards to the sender registered for to's channel
func (r *Router) Send(ctx context.Context, body, from, to string) (string, error) {
	channel := models.ChannelOf(to)
	s, ok := r.senders[channel]
	if !ok {
		return "", fmt.Errorf("no sender configured for channel %s", channel)
	}
	return s.Send(ctx, body, from, to)
}
