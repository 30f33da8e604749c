package models

import (
	"strings"
	"time"
)

// Delivery status constants
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Delivery channel constants
const (
	ChannelSMS      = "sms"
	ChannelTelegram = "telegram"
)

// TelegramPrefix marks recipients that are Telegram chat IDs
const TelegramPrefix = "telegram:"

// ChannelOf returns the delivery channel for a recipient address
func ChannelOf(recipient string) string {
	if strings.HasPrefix(recipient, TelegramPrefix) {
		return ChannelTelegram
	}
	return ChannelSMS
}

// Aggregate delivery outcomes
const (
	AggregateAllDelivered       = "all_delivered"
	AggregatePartiallyDelivered = "partially_delivered"
	AggregateNoneDelivered      = "none_delivered"
	AggregateNoRecipients       = "no_recipients"
)

// DeliveryResult is the outcome of one delivery attempt to one recipient
type DeliveryResult struct {
	ID        int       `json:"id,omitempty" db:"id"`
	PriceDate time.Time `json:"price_date" db:"price_date"`
	Recipient string    `json:"recipient" db:"recipient"`
	Channel   string    `json:"channel" db:"channel"`
	Status    string    `json:"status" db:"status"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	MessageID string    `json:"message_id,omitempty" db:"message_id"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`

	// Err is the delivery error behind Reason, nil when delivered
	Err error `json:"-" db:"-"`
}

// Delivered reports whether the message reached the transport successfully
func (r DeliveryResult) Delivered() bool {
	return r.Status == DeliveryDelivered
}

// DeliveryReport collects per-recipient results in recipient order
type DeliveryReport struct {
	Body    string           `json:"body"`
	Results []DeliveryResult `json:"results"`
}

// Succeeded counts delivered results
func (r DeliveryReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Delivered() {
			n++
		}
	}
	return n
}

// Failed counts failed results
func (r DeliveryReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Aggregate summarises the report: all, some, none or no recipients at all
func (r DeliveryReport) Aggregate() string {
	switch ok := r.Succeeded(); {
	case len(r.Results) == 0:
		return AggregateNoRecipients
	case ok == len(r.Results):
		return AggregateAllDelivered
	case ok > 0:
		return AggregatePartiallyDelivered
	default:
		return AggregateNoneDelivered
	}
}
