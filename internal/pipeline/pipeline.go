// Package pipeline runs one price tracking invocation end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/trogers1052/metal-price-tracker/internal/database"
	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
	"github.com/trogers1052/metal-price-tracker/internal/quote"
)

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Failure kinds reported in Outcome.FailureKind
const (
	FailureFetch     = "fetch"
	FailureExhausted = "exhausted"
	FailureStore     = "store"
	FailureCancelled = "cancelled"
)

// Triggers that start a run
const (
	TriggerCLI   = "cli"
	TriggerCron  = "cron"
	TriggerHTTP  = "http"
	TriggerKafka = "kafka"
	TriggerStart = "startup"
)

// Store persists prices and delivery outcomes
type Store interface {
	UpsertAndDiff(ctx context.Context, date time.Time, q models.Quote) (*models.PriceRecord, models.DiffResult, error)
	CreateDeliveryResults(ctx context.Context, date time.Time, results []models.DeliveryResult) error
}

// Notifier fans the stored price out to recipients
type Notifier interface {
	SendAll(ctx context.Context, record *models.PriceRecord, diff models.DiffResult, recipients []string) models.DeliveryReport
}

// Publisher announces stored prices to other services
type Publisher interface {
	PublishPriceRecorded(ctx context.Context, runID string, record *models.PriceRecord, diff models.DiffResult) error
}

// Cache is refreshed with every stored price
type Cache interface {
	Set(ctx context.Context, record *models.PriceRecord)
}

// Observer receives run measurements
type Observer interface {
	ObserveRun(trigger, status string, elapsed time.Duration)
	ObserveAttempt(outcome string)
	ObserveDelivery(channel, status string)
	ObservePrice(gold, silver int64)
}

// Options carries the collaborators of a Pipeline. Source, Store and
// Notifier are required.
type Options struct {
	Source      quote.Source
	Store       Store
	Notifier    Notifier
	Recipients  []string
	MaxAttempts int
	Converter   quote.Converter
	Location    *time.Location
	Publisher   Publisher
	Cache       Cache
	Observer    Observer
	Now         func() time.Time
}

// Pipeline wires quote retrieval, storage and notification
type Pipeline struct {
	opts Options
}

// New creates a Pipeline
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil || opts.Store == nil || opts.Notifier == nil {
		return nil, errors.New("pipeline: source, store and notifier are required")
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = quote.DefaultMaxAttempts
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}, nil
}

// Outcome is the terminal status of one run
type Outcome struct {
	RunID       string                 `json:"run_id"`
	Trigger     string                 `json:"trigger"`
	Status      string                 `json:"status"`
	Summary     string                 `json:"summary"`
	FailureKind string                 `json:"failure_kind,omitempty"`
	Date        string                 `json:"date,omitempty"`
	Record      *models.PriceRecord    `json:"record,omitempty"`
	Diff        *models.DiffResult     `json:"diff,omitempty"`
	Deliveries  *models.DeliveryReport `json:"deliveries,omitempty"`
	Err         error                  `json:"-"`
}

// OK reports whether a price was obtained and stored
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Run obtains a quote, stores it for today's calendar date and notifies
// recipients. The run succeeds once the price is stored, whatever happens
// to the deliveries.
func (p *Pipeline) Run(ctx context.Context, trigger string) (out Outcome) {
	start := p.opts.Now()
	out = Outcome{RunID: xid.New().String(), Trigger: trigger}

	log := logx.FromContext(ctx).With(logx.FieldRunID, out.RunID, logx.FieldTrigger, trigger)
	ctx = logx.WithLogger(ctx, log)
	log.Info("pipeline run started")

	defer func() {
		p.opts.Observer.ObserveRun(trigger, out.Status, p.opts.Now().Sub(start))
	}()

	q, err := quote.ObtainQuote(ctx, p.opts.Source, p.opts.MaxAttempts, quote.WithAttemptHook(
		func(_ int, outcome string, _ error) {
			p.opts.Observer.ObserveAttempt(outcome)
		},
	))
	if err != nil {
		return p.fail(ctx, out, classify(err), err)
	}
	q = p.opts.Converter.Apply(q)

	date := calendarDate(start, p.opts.Location)
	out.Date = date.Format(models.DateLayout)

	record, diff, err := p.opts.Store.UpsertAndDiff(ctx, date, q)
	if err != nil {
		return p.fail(ctx, out, FailureStore, err)
	}
	out.Record = record
	out.Diff = &diff

	log.Info("price stored",
		logx.FieldDate, out.Date,
		logx.FieldGold, record.Gold,
		logx.FieldSilver, record.Silver,
		logx.FieldGoldDiff, logx.Nullable(diff.GoldDiff),
		logx.FieldSilverDiff, logx.Nullable(diff.SilverDiff),
	)
	p.opts.Observer.ObservePrice(record.Gold, record.Silver)

	if p.opts.Cache != nil {
		p.opts.Cache.Set(ctx, record)
	}
	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.PublishPriceRecorded(ctx, out.RunID, record, diff); err != nil {
			log.Warn("failed to publish price event", logx.Error(err))
		}
	}

	report := p.opts.Notifier.SendAll(ctx, record, diff, p.opts.Recipients)
	out.Deliveries = &report
	for _, r := range report.Results {
		p.opts.Observer.ObserveDelivery(r.Channel, r.Status)
	}

	if err := p.opts.Store.CreateDeliveryResults(ctx, date, report.Results); err != nil {
		log.Warn("failed to record deliveries", logx.Error(err))
	}

	out.Status = StatusSuccess
	out.Summary = fmt.Sprintf("stored %s gold %d silver %d; delivered %d of %d (%s)",
		out.Date, record.Gold, record.Silver, report.Succeeded(), len(report.Results), report.Aggregate())

	log.Info("pipeline run finished",
		logx.FieldSucceeded, report.Succeeded(),
		logx.FieldFailed, report.Failed(),
		logx.FieldAggregate, report.Aggregate(),
		logx.FieldDurationMs, p.opts.Now().Sub(start).Milliseconds(),
	)
	return out
}

func (p *Pipeline) fail(ctx context.Context, out Outcome, kind string, err error) Outcome {
	out.Status = StatusFailure
	out.FailureKind = kind
	out.Err = err
	out.Summary = fmt.Sprintf("%s failure: %v", kind, err)

	logx.FromContext(ctx).Error("pipeline run failed", logx.FieldFailureKind, kind, logx.Error(err))
	return out
}

func classify(err error) string {
	var (
		fetchErr     *quote.FetchError
		exhaustedErr *quote.ExhaustedError
		storeErr     *database.StoreError
	)
	switch {
	case errors.As(err, &exhaustedErr):
		return FailureExhausted
	case errors.As(err, &fetchErr):
		return FailureFetch
	case errors.As(err, &storeErr):
		return FailureStore
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	default:
		return FailureFetch
	}
}

// calendarDate returns midnight UTC of t's calendar day in loc
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(string, string, time.Duration) {}
func (nopObserver) ObserveAttempt(string)                    {}
func (nopObserver) ObserveDelivery(string, string)           {}
func (nopObserver) ObservePrice(int64, int64)                {}
