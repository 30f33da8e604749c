package notify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// DefaultConcurrency bounds parallel deliveries when no limit is configured
const DefaultConcurrency = 4

// Dispatcher fans one formatted message out to many recipients
type Dispatcher struct {
	sender      Sender
	from        string
	concurrency int
	now         func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithConcurrency sets how many deliveries may run at once
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithClock overrides the time source used for SentAt
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a Dispatcher sending from the given address
func NewDispatcher(sender Sender, from string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		from:        from,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendAll delivers the same body to every recipient. Each delivery is
// independent: a failure is recorded for that recipient and the rest are
// still attempted. Results keep recipient order.
func (d *Dispatcher) SendAll(ctx context.Context, record *models.PriceRecord, diff models.DiffResult, recipients []string) models.DeliveryReport {
	body := FormatMessage(record, diff)
	results := make([]models.DeliveryResult, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, to := range recipients {
		g.Go(func() error {
			results[i] = d.deliver(ctx, record.Date, body, to)
			return nil
		})
	}
	_ = g.Wait()

	return models.DeliveryReport{Body: body, Results: results}
}

func (d *Dispatcher) deliver(ctx context.Context, date time.Time, body, to string) models.DeliveryResult {
	res := models.DeliveryResult{
		PriceDate: date,
		Recipient: to,
		Channel:   models.ChannelOf(to),
	}

	id, err := d.send(ctx, body, to)
	res.SentAt = d.now().UTC()
	if err != nil {
		res.Status = models.DeliveryFailed
		res.Reason = err.Error()
		res.Err = &DeliveryError{Recipient: to, Channel: res.Channel, Err: err}
		logx.FromContext(ctx).Warn("delivery failed",
			logx.FieldRecipient, to,
			logx.FieldChannel, res.Channel,
			logx.Error(err),
		)
		return res
	}

	res.Status = models.DeliveryDelivered
	res.MessageID = id
	return res
}

func (d *Dispatcher) send(ctx context.Context, body, to string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.sender.Send(ctx, body, d.from, to)
}
